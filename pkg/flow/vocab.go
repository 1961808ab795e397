package flow

import (
	"strings"

	"github.com/matzehuels/unformer/pkg/tree"
)

var (
	moeWords = []string{"experts", "expert", "router", "moe", "mixture"}

	connectorWords = []string{
		"connector", "fusion", "adapter", "bridge", "projector", "alignment", "merge",
		"multimodal", "multi_modal", "multi-modal",
		"cross_attention", "crossattention", "cross-attention", "cross_attn", "crossattn",
		"qformer", "q_former", "q-former",
	}
)

// branchVocab lists modality branches in match priority order.
var branchVocab = []struct {
	key   string
	words []string
}{
	{"vision", []string{"vision", "visual", "image", "video"}},
	{"text", []string{"text", "language"}},
	{"audio", []string{"audio", "speech", "whisper"}},
}

// haystack is the lower-cased text a node is matched against.
func haystack(n *tree.Node) string {
	parts := make([]string, 0, 3+len(n.Tags))
	parts = append(parts, n.Name, n.ClassName, n.Path)
	parts = append(parts, n.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

func tagMatches(n *tree.Node, words []string) bool {
	for _, t := range n.Tags {
		t = strings.ToLower(t)
		for _, w := range words {
			if t == w {
				return true
			}
		}
	}
	return false
}

func textMatches(hay string, words []string) bool {
	for _, w := range words {
		if strings.Contains(hay, w) {
			return true
		}
	}
	return false
}

// matches checks tags first, then substrings of name, class, path and tags.
func matches(n *tree.Node, words []string) bool {
	return tagMatches(n, words) || textMatches(haystack(n), words)
}

// BranchKey returns the modality branch a node belongs to, or "" if none.
// Tags take precedence over substring matches.
func BranchKey(n *tree.Node) string {
	for _, b := range branchVocab {
		if tagMatches(n, b.words) {
			return b.key
		}
	}
	hay := haystack(n)
	for _, b := range branchVocab {
		if textMatches(hay, b.words) {
			return b.key
		}
	}
	return ""
}

// IsConnector reports whether a node looks like a module that joins branches.
func IsConnector(n *tree.Node) bool { return matches(n, connectorWords) }

// IsMixture reports whether a node looks like a mixture-of-experts or router.
func IsMixture(n *tree.Node) bool { return matches(n, moeWords) }
