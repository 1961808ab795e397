package flow

import (
	"testing"

	"github.com/matzehuels/unformer/pkg/tree"
)

func node(name string, tags ...string) *tree.Node {
	return &tree.Node{Name: name, Path: "m/" + name, Tags: tags, Kind: tree.KindLeaf}
}

func indexed(name string, idx int) *tree.Node {
	n := node(name)
	n.Index = tree.Int(idx)
	return n
}

func names(nodes []*tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveFlowMode(t *testing.T) {
	root := &tree.Node{Name: "m", Path: "m"}
	moe := &tree.Node{Name: "experts", Path: "m/layers/0/mlp/experts", ClassName: "ModuleList"}

	tests := []struct {
		name     string
		parent   *tree.Node
		children []*tree.Node
		mode     Mode
		order    []string
	}{
		{
			name:     "single child",
			parent:   root,
			children: []*tree.Node{node("vision", "vision")},
			mode:     ModeIndexed,
			order:    []string{"vision"},
		},
		{
			name:     "mixture of experts",
			parent:   moe,
			children: []*tree.Node{indexed("0", 0), indexed("1", 1)},
			mode:     ModeParallel,
			order:    []string{"0", "1"},
		},
		{
			name:     "vision and text",
			parent:   root,
			children: []*tree.Node{node("tower_a", "vision"), node("tower_b", "text")},
			mode:     ModeParallel,
			order:    []string{"tower_a", "tower_b"},
		},
		{
			name:     "projector joins branches",
			parent:   root,
			children: []*tree.Node{node("tower_a", "vision"), node("tower_b", "text"), node("proj", "projector")},
			mode:     ModeIndexed,
			order:    []string{"tower_a", "tower_b", "proj"},
		},
		{
			name:     "substring branches",
			parent:   root,
			children: []*tree.Node{node("vision_model"), node("language_model"), node("lm_head")},
			mode:     ModeParallel,
			order:    []string{"vision_model", "language_model", "lm_head"},
		},
		{
			name:     "single branch",
			parent:   root,
			children: []*tree.Node{node("vision_encoder"), node("vision_pooler")},
			mode:     ModeIndexed,
			order:    []string{"vision_encoder", "vision_pooler"},
		},
		{
			name:     "sorted by index",
			parent:   root,
			children: []*tree.Node{indexed("c", 2), indexed("a", 0), indexed("b", 1)},
			mode:     ModeIndexed,
			order:    []string{"a", "b", "c"},
		},
		{
			name:     "stable on ties",
			parent:   root,
			children: []*tree.Node{indexed("x", 1), indexed("y", 0), indexed("z", 1)},
			mode:     ModeIndexed,
			order:    []string{"y", "x", "z"},
		},
		{
			name:     "partial index keeps order",
			parent:   root,
			children: []*tree.Node{indexed("c", 2), node("embed"), indexed("a", 0)},
			mode:     ModeIndexed,
			order:    []string{"c", "embed", "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFlowMode(tt.parent, tt.children)
			if got.Mode != tt.mode {
				t.Errorf("Mode = %v, want %v", got.Mode, tt.mode)
			}
			if !equal(names(got.Order), tt.order) {
				t.Errorf("Order = %v, want %v", names(got.Order), tt.order)
			}
		})
	}
}

func TestResolveFlowMode_RangeOrder(t *testing.T) {
	a := &tree.Node{Name: "8..15", Path: "m/b", IndexStart: tree.Int(8), IndexEnd: tree.Int(15)}
	b := &tree.Node{Name: "0..7", Path: "m/a", IndexStart: tree.Int(0), IndexEnd: tree.Int(7)}
	got := ResolveFlowMode(nil, []*tree.Node{a, b})
	if !equal(names(got.Order), []string{"0..7", "8..15"}) {
		t.Errorf("Order = %v", names(got.Order))
	}
}

func TestResolveFlowMode_Deterministic(t *testing.T) {
	children := []*tree.Node{indexed("b", 1), node("vision", "vision"), indexed("a", 0), node("text", "text")}
	first := ResolveFlowMode(nil, children)
	for i := 0; i < 20; i++ {
		got := ResolveFlowMode(nil, children)
		if got.Mode != first.Mode || !equal(names(got.Order), names(first.Order)) {
			t.Fatalf("call %d = %v %v, want %v %v", i, got.Mode, names(got.Order), first.Mode, names(first.Order))
		}
	}
	if !equal(names(children), []string{"b", "vision", "a", "text"}) {
		t.Errorf("input reordered: %v", names(children))
	}
}

func TestBranchKey(t *testing.T) {
	tests := []struct {
		node *tree.Node
		want string
	}{
		{node("x", "text"), "text"},
		{node("image_encoder"), "vision"},
		{node("whisper_encoder"), "audio"},
		{node("video_text", "text"), "text"},
		{node("decoder"), ""},
	}
	for _, tt := range tests {
		if got := BranchKey(tt.node); got != tt.want {
			t.Errorf("BranchKey(%s) = %q, want %q", tt.node.Name, got, tt.want)
		}
	}
}

func TestClassifier_Stage(t *testing.T) {
	heavy := &tree.Node{Name: "layers", Path: "m/layers", ClassName: "ModuleList", Kind: tree.KindContainer,
		Parameters: &tree.Summary{Total: &tree.Stats{Count: 900}},
		Children: []*tree.Node{
			{Name: "0", Path: "m/layers/0", ClassName: "LlamaDecoderLayer", Parameters: &tree.Summary{Total: &tree.Stats{Count: 900}}},
		}}
	light := &tree.Node{Name: "rotary", Path: "m/rotary", Parameters: &tree.Summary{Self: &tree.Stats{Count: 1}}}
	root := &tree.Node{Name: "model", Path: "m", ClassName: "Wrapper", Kind: tree.KindContainer,
		Children: []*tree.Node{light, heavy}}

	tests := []struct {
		name string
		node *tree.Node
		want Stage
	}{
		{"head beats embedding", &tree.Node{Name: "lm_head", Path: "m/embed/lm_head"}, StageHead},
		{"embedding", &tree.Node{Name: "embed_tokens", Path: "m/embed_tokens"}, StageInput},
		{"decoder beats attention", &tree.Node{Name: "self_attn", ClassName: "DecoderAttention", Path: "m/x"}, StageDecoder},
		{"norm", &tree.Node{Name: "final", ClassName: "RMSNorm", Path: "m/final"}, StageNorm},
		{"block by tag", &tree.Node{Name: "x", Path: "m/x", Tags: []string{"mlp"}}, StageBlock},
		{"leaf without match", light, StageAuxiliary},
		{"container inherits heaviest", root, StageDecoder},
	}
	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Stage(tt.node); got != tt.want {
				t.Errorf("Stage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifier_TieKeepsFirst(t *testing.T) {
	enc := &tree.Node{Name: "a", Path: "w/a", ClassName: "Encoder", Parameters: &tree.Summary{Total: &tree.Stats{Count: 5}}}
	dec := &tree.Node{Name: "b", Path: "w/b", ClassName: "Decoder", Parameters: &tree.Summary{Total: &tree.Stats{Count: 5}}}
	root := &tree.Node{Name: "w", Path: "w", Children: []*tree.Node{enc, dec}}
	if got := NewClassifier().Stage(root); got != StageEncoder {
		t.Errorf("Stage() = %v, want %v", got, StageEncoder)
	}
}
