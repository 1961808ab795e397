package errors

import (
	"testing"
)

func TestValidateModelID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"hub id", "meta-llama/Llama-3.1-8B", false},
		{"safe id", "meta-llama__Llama-3.1-8B", false},
		{"bare name", "gpt2", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"traversal", "../etc", true},
		{"dotdot inside", "org/..", true},
		{"two slashes", "a/b/c", true},
		{"leading slash", "/gpt2", true},
		{"space", "gpt 2", true},
		{"query", "gpt2?x=1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModelID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateModelID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidModelID) {
				t.Errorf("ValidateModelID(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"compact", ValidateViewMode("compact"), ""},
		{"full", ValidateViewMode("full"), ""},
		{"bad view", ValidateViewMode("tiny"), ErrCodeInvalidViewMode},
		{"empty view", ValidateViewMode(""), ErrCodeInvalidViewMode},
		{"split 1", ValidateSplitSize(1), ""},
		{"split 0", ValidateSplitSize(0), ErrCodeInvalidSplitSize},
		{"split negative", ValidateSplitSize(-3), ErrCodeInvalidSplitSize},
		{"depth 0", ValidateAutoDepth(0), ""},
		{"depth max", ValidateAutoDepth(MaxAutoDepth), ""},
		{"depth negative", ValidateAutoDepth(-1), ErrCodeInvalidDepth},
		{"depth too deep", ValidateAutoDepth(MaxAutoDepth + 1), ErrCodeInvalidDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("code = %q, want %q (err = %v)", got, tt.code, tt.err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/path", false},
		{"http", "http://example.com/path", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"javascript", "javascript:alert(1)", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "modules.tree.json.gz", false},
		{"valid nested", "chunks/modules.compact_tree.json.zst", false},
		{"valid with dots", "v1.2.3/manifest.json", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidPath,
		ErrCodeDuplicatePath,
		ErrCodeInvalidViewMode,
		ErrCodeInvalidSplitSize,
		ErrCodeInvalidDepth,
		ErrCodeInvalidModelID,
		ErrCodeInvalidManifest,
		ErrCodeInvalidEngine,
		ErrCodeInvalidFormat,
		ErrCodeNotFound,
		ErrCodeModelNotFound,
		ErrCodeChunkNotFound,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeRateLimited,
		ErrCodeLayoutFailed,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
