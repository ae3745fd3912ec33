// Package file keeps user state on the local filesystem: config.toml
// behind ConfigStore, and the prompt templates behind PromptStore, which
// reloads them when they change on disk.
package file
