// Package driving declares what galassia offers to its front ends.
//
// WorkflowService answers one question, BatchService answers a question set
// and records the formatted dish ids, ImportService loads menus, manuals and
// the dish graph, and SettingsService edits the configuration. The cli,
// httpapi, mcp and tui adapters call these ports; internal/core/services
// implements them.
package driving
