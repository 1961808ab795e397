package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/unformer/pkg/cache"
	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/layout"
	"github.com/matzehuels/unformer/pkg/pipeline"
	"github.com/matzehuels/unformer/pkg/source"
	"github.com/matzehuels/unformer/pkg/tree"
)

const bert = `{"name":"BertModel","path":"BertModel","class":"BertModel","children":[
	{"name":"embeddings","path":"BertModel.embeddings","class":"BertEmbeddings"},
	{"name":"layer","path":"BertModel.layer","class":"ModuleList","children":[
		{"name":"0","path":"BertModel.layer.0","class":"BertLayer","index":0},
		{"name":"1","path":"BertModel.layer.1","class":"BertLayer","index":1},
		{"name":"2","path":"BertModel.layer.2","class":"BertLayer","index":2}
	]},
	{"name":"pooler","path":"BertModel.pooler","class":"BertPooler"}
]}`

// writeBert writes the fixture tree to a temp dir and returns its path.
func writeBert(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bert.json")
	if err := os.WriteFile(path, []byte(bert), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// captureStdout redirects command output for the duration of the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

// execute runs the root command with an isolated config directory.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,dot", []string{"svg", "dot"}},
		{" json , dot ,", []string{"json", "dot"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseFormats(tt.input)); diff != "" {
			t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		opts pipeline.Options
		want string
	}{
		{pipeline.Options{File: "models/gpt2.json"}, "gpt2"},
		{pipeline.Options{File: "gpt2.json.zst"}, "gpt2"},
		{pipeline.Options{File: "gpt2.json.gz"}, "gpt2"},
		{pipeline.Options{File: "out/gpt2.graph.json"}, "gpt2"},
		{pipeline.Options{File: "gpt2.layout.json"}, "gpt2"},
		{pipeline.Options{Model: "openai/gpt2"}, source.SafeModelDir("openai/gpt2")},
	}
	for _, tt := range tests {
		if got := baseName(tt.opts); got != tt.want {
			t.Errorf("baseName(%+v) = %q, want %q", tt.opts, got, tt.want)
		}
	}
}

func TestArtifactPaths(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		output  string
		want    map[string]string
	}{
		{"default stem", []string{"svg"}, "", map[string]string{"svg": "bert.svg"}},
		{"single explicit", []string{"svg"}, "out/diagram.svg", map[string]string{"svg": "out/diagram.svg"}},
		{"multiple base path", []string{"svg", "dot"}, "out/diagram", map[string]string{"svg": "out/diagram.svg", "dot": "out/diagram.dot"}},
		{"multiple strips known ext", []string{"svg", "json"}, "out/diagram.svg", map[string]string{"svg": "out/diagram.svg", "json": "out/diagram.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, artifactPaths(tt.formats, tt.output, "bert")); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	c := New(io.Discard, LogInfo)

	t.Run("model and file", func(t *testing.T) {
		_, err := c.options(&inputFlags{file: "m.json", depth: -1}, []string{"openai/gpt2"})
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("err = %v, want INVALID_INPUT", err)
		}
	})
	t.Run("neither", func(t *testing.T) {
		_, err := c.options(&inputFlags{depth: -1}, nil)
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("err = %v, want INVALID_INPUT", err)
		}
	})
	t.Run("overrides", func(t *testing.T) {
		opts, err := c.options(&inputFlags{
			view:     "full",
			depth:    3,
			split:    4,
			engine:   "graphviz",
			expand:   []string{"a.b"},
			collapse: []string{"a.c"},
		}, []string{"openai/gpt2"})
		if err != nil {
			t.Fatal(err)
		}
		if opts.Model != "openai/gpt2" || opts.ViewMode != "full" || *opts.AutoDepth != 3 ||
			opts.SplitSize != 4 || opts.Engine != "graphviz" {
			t.Errorf("opts = %+v", opts)
		}
		if diff := cmp.Diff(map[string]bool{"a.b": true, "a.c": false}, opts.Expanded); diff != "" {
			t.Errorf("Expanded mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("depth zero is explicit", func(t *testing.T) {
		opts, err := c.options(&inputFlags{depth: 0}, []string{"m"})
		if err != nil {
			t.Fatal(err)
		}
		if *opts.AutoDepth != 0 {
			t.Errorf("AutoDepth = %d, want 0", *opts.AutoDepth)
		}
	})
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func prepareBert(t *testing.T) *tree.Node {
	t.Helper()
	raw, _, err := pipeline.LoadFile(writeBert(t), true)
	if err != nil {
		t.Fatal(err)
	}
	root, err := pipeline.Prepare(raw)
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestOutline(t *testing.T) {
	out := outline(prepareBert(t), 1)
	for _, want := range []string{"BertModel", "  embeddings", "  layer", "(+3)", "  pooler"} {
		if !strings.Contains(out, want) {
			t.Errorf("outline missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "BertModel.layer.0") {
		t.Errorf("outline went past depth 1:\n%s", out)
	}
}

func TestGraphCommand(t *testing.T) {
	captureStdout(t)
	out := filepath.Join(t.TempDir(), "bert.graph.json")
	if err := execute(t, "graph", "-f", writeBert(t), "-o", out, "--no-cache", "--expand", "BertModel.layer"); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	g, err := graph.ReadGraph(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.NodeMap["BertModel.layer::stack:0..2"]; !ok {
		t.Errorf("missing stack node; nodes = %v", g.Nodes)
	}
	for _, n := range g.Nodes {
		if n.Positioned {
			t.Errorf("graph command positioned %s", n.ID)
		}
	}
}

func TestRenderCommand(t *testing.T) {
	captureStdout(t)
	base := filepath.Join(t.TempDir(), "bert")
	if err := execute(t, "render", "-f", writeBert(t), "-F", "dot,json", "-o", base, "--no-cache"); err != nil {
		t.Fatal(err)
	}

	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), "digraph") {
		t.Errorf("dot output:\n%s", dot)
	}
	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	var view struct {
		Nodes []graph.Node `json:"nodes"`
	}
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Nodes) == 0 {
		t.Error("json output has no nodes")
	}
}

func TestRenderCommand_InvalidFormat(t *testing.T) {
	captureStdout(t)
	err := execute(t, "render", "-f", writeBert(t), "-F", "pdf", "--no-cache")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestInspectCommand(t *testing.T) {
	buf := captureStdout(t)
	if err := execute(t, "inspect", "-f", writeBert(t), "--view", "full", "--json", "--no-cache"); err != nil {
		t.Fatal(err)
	}
	var s tree.TreeSummary
	if err := json.Unmarshal(buf.Bytes(), &s); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if s.Modules != 7 || s.Leaves != 5 || s.MaxDepth != 2 {
		t.Errorf("summary = %+v", s)
	}
}

func TestModelsCommand(t *testing.T) {
	buf := captureStdout(t)
	root := t.TempDir()
	idx := `{"count":2,"models":[
		{"id":"google/bert","path":"google__bert/model.json","status":"ok"},
		{"id":"broken/model","path":"broken__model/model.json","status":"error","error":"oom"}
	]}`
	if err := os.WriteFile(filepath.Join(root, source.IndexFile), []byte(idx), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "models", "--origin", root, "--json", "--no-cache"); err != nil {
		t.Fatal(err)
	}
	var entries []source.IndexEntry
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "google/bert" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestExploreModel(t *testing.T) {
	quiet := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, cache.NewNullCache(), nil, quiet)
	adapter, err := pipeline.NewAdapter(pipeline.EngineLayered, 0)
	if err != nil {
		t.Fatal(err)
	}
	opts := pipeline.Options{AutoDepth: pipeline.Depth(1), Logger: quiet}
	if err := opts.ValidateForBuild(); err != nil {
		t.Fatal(err)
	}
	m := newExploreModel(context.Background(), runner, prepareBert(t), opts, layout.NewScheduler(adapter, quiet))

	// run delivers the outcome of a layout command to the model.
	run := func(cmd tea.Cmd) {
		t.Helper()
		if cmd == nil {
			t.Fatal("expected a layout command")
		}
		m.Update(cmd())
	}

	run(m.Init())
	if m.pending || m.err != nil {
		t.Fatalf("pending = %v, err = %v", m.pending, m.err)
	}
	ids := rowIDs(m.rows)
	if diff := cmp.Diff([]string{"BertModel", "BertModel.embeddings", "BertModel.layer", "BertModel.pooler"}, ids); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := m.selectedID(); got != "BertModel.layer" {
		t.Fatalf("selected %q", got)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(cmd)

	if got := m.selectedID(); got != "BertModel.layer" {
		t.Errorf("cursor moved to %q", got)
	}
	if !contains(rowIDs(m.rows), "BertModel.layer::stack:0..2") {
		t.Errorf("stack row missing: %v", rowIDs(m.rows))
	}
	if !strings.Contains(m.status, "layout #2") {
		t.Errorf("status = %q", m.status)
	}
	if g := m.scheduler.Latest(); g == nil || len(g.Nodes) != len(m.rows) {
		t.Errorf("latest layout does not match rows")
	}
	if !strings.Contains(m.View(), "BertModel") {
		t.Error("view is missing the root label")
	}

	// Leaves do not toggle.
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("toggling a leaf should not rebuild")
	}

	m.output = filepath.Join(t.TempDir(), "bert.layout.json")
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if _, err := os.Stat(m.output); err != nil {
		t.Errorf("save: %v", err)
	}
}

func rowIDs(rows []exploreRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.id
	}
	return ids
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
