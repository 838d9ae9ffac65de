// Package suggest runs the classifier-backed suggestion pipeline: scan a
// tree, batch the files, classify each batch, and filter the resulting
// proposals on a confidence threshold.
//
// The pipeline is deliberately forgiving about classifier trouble. A batch
// that times out or fails costs only its own files; the rest of the tree
// still gets suggestions. Only configuration problems abort a run.
package suggest
