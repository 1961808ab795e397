package flow

import "github.com/matzehuels/unformer/pkg/tree"

// Stage is a coarse pipeline role used to hint lane placement in layouts.
type Stage string

const (
	StageHead      Stage = "head"
	StageInput     Stage = "input"
	StageDecoder   Stage = "decoder"
	StageEncoder   Stage = "encoder"
	StageNorm      Stage = "norm"
	StageBlock     Stage = "block"
	StageAuxiliary Stage = "auxiliary"
)

// stageKeywords is ordered by priority.
var stageKeywords = []struct {
	stage Stage
	words []string
}{
	{StageHead, []string{"head"}},
	{StageInput, []string{"input", "embed"}},
	{StageDecoder, []string{"decoder"}},
	{StageEncoder, []string{"encoder"}},
	{StageNorm, []string{"norm"}},
	{StageBlock, []string{"attention", "attn", "mlp", "block"}},
}

// Classifier assigns stages and memoizes them by node path. A Classifier is
// not safe for concurrent use.
type Classifier struct {
	memo map[string]Stage
}

// NewClassifier returns an empty classifier.
func NewClassifier() *Classifier {
	return &Classifier{memo: make(map[string]Stage)}
}

// Stage returns the stage of n. Keywords are matched against the node's name,
// class, path and tags; a container with no match inherits the stage of its
// child with the largest parameter count, the first such child on ties. Nodes
// with neither a match nor children are auxiliary.
func (c *Classifier) Stage(n *tree.Node) Stage {
	if s, ok := c.memo[n.Path]; ok {
		return s
	}
	s := c.classify(n)
	c.memo[n.Path] = s
	return s
}

func (c *Classifier) classify(n *tree.Node) Stage {
	if s, ok := keywordStage(n); ok {
		return s
	}
	if !n.HasChildren() {
		return StageAuxiliary
	}
	heaviest := n.Children[0]
	for _, ch := range n.Children[1:] {
		if ch.TotalParams() > heaviest.TotalParams() {
			heaviest = ch
		}
	}
	return c.Stage(heaviest)
}

func keywordStage(n *tree.Node) (Stage, bool) {
	hay := haystack(n)
	for _, k := range stageKeywords {
		if tagMatches(n, k.words) || textMatches(hay, k.words) {
			return k.stage, true
		}
	}
	return "", false
}
