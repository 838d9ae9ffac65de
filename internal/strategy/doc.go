// Package strategy defines how move proposals are generated: by file
// extension taxonomy, by pattern rules from a YAML file, or by the
// classifier-backed suggestion pipeline.
package strategy
