// Package transform provides structural rewrites of module trees.
//
// # Repeat Collapsing
//
// Transformer models are dominated by runs of identical blocks: 32 decoder
// layers, 24 vision blocks and so on. [CollapseRepeats] scans one sibling list
// left to right and replaces every run of two or more collapse-compatible
// siblings with a single synthetic node of kind "collapsed". [CollapseTree]
// applies it at every level of a tree, bottom-up, without modifying the input.
//
// Two siblings are compatible when their shallow signatures match (class name
// or name, sorted tag set, parameters per repetition), both expose an index or
// index range, and, when both have children, the (class, kind) pairs of their
// immediate children match too.
//
// The synthetic node is labeled with its index range ("0..31") when the run's
// ranges are contiguous; otherwise it takes the first member's name and has no
// range. Its statistics are the element-wise sums of the members' statistics.
//
// # Splitting
//
// [SplitCollapsed] is the lazy inverse used when a collapsed node is expanded:
// a span of at most splitSize elements explodes into one leaf per index, a
// longer span into contiguous segments of splitSize elements. Nodes without a
// resolvable range cannot be split and yield no children.
package transform
