package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/unformer/pkg/render"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing, or stdout for "" and "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// basePath derives the base output path. A known format extension on
// output is stripped; an empty output falls back to stem.
func basePath(output, stem string) string {
	if output == "" {
		return stem
	}
	ext := filepath.Ext(output)
	if render.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// artifactPaths maps each format to its output file. A single format with
// an explicit output is written exactly there.
func artifactPaths(formats []string, output, stem string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, stem)
	for _, f := range formats {
		paths[f] = fmt.Sprintf("%s.%s", base, f)
	}
	return paths
}

// writeArtifacts writes rendered outputs in the order of formats.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, stem string) ([]string, error) {
	paths := artifactPaths(formats, output, stem)
	written := make([]string, 0, len(formats))
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		if err := writeOutput(paths[f], data); err != nil {
			return written, fmt.Errorf("write %s: %w", paths[f], err)
		}
		written = append(written, paths[f])
	}
	return written, nil
}
