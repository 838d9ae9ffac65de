// Package organize is the top-level orchestrator: it wires a strategy's
// proposals through the confidence filter, the planner, and the transaction
// executor, and exposes rollback over past runs.
package organize
