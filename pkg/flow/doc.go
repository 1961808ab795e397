// Package flow infers execution structure from module names and tags.
//
// # Flow Modes
//
// [ResolveFlowMode] decides whether a set of sibling modules runs as a
// sequential chain ([ModeIndexed]) or as parallel branches ([ModeParallel]).
// The decision is lexical: mixture-of-experts parents always fan out, and a
// sibling set spanning at least two modality branches (vision, text, audio)
// fans out unless a connector module (projector, adapter, fusion, ...) ties
// the branches together. Sequential sets are ordered by their index when every
// sibling has one.
//
// # Stages
//
// A [Classifier] assigns each module a coarse pipeline [Stage] (input, encoder,
// decoder, head, ...) used as a layout hint. Containers without a matching
// keyword inherit the stage of their heaviest child. A classifier memoizes its
// results and is meant to live for one graph build.
package flow
