// Package main hosts the Curator CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the full organization lifecycle:
// previewing and applying plans, classifier suggestions, rollback over
// transaction logs, suggestion cache maintenance, and configuration
// scaffolding. Configuration resolution and logger setup are centralized in
// the command context so subcommands stay declarative.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
