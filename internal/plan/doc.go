// Package plan models filesystem move operations and turns raw strategy
// proposals into executable plans.
//
// The planner enforces the ordering and safety invariants the executor relies
// on: every source exists when planning starts, duplicate sources collapse to
// the highest-confidence proposal, folder moves precede the file moves aimed
// inside them, and no operation ever targets a descendant of its own source.
// Conflicts with the existing tree are resolved up front — folder-into-folder
// becomes a merge (or a rename, by policy) and occupied file destinations get
// a counter suffix rather than being overwritten.
package plan
