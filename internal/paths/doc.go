// Package paths normalizes and validates filesystem paths for planning.
//
// Every path entering the planner goes through Normalize (absolute + cleaned +
// Unicode NFC) so descendant checks and deduplication compare like with like.
// ResolveWithinRoot additionally rejects paths that escape the organization
// root, which keeps a malicious or confused strategy from proposing moves
// outside the tree the user pointed Curator at.
package paths
