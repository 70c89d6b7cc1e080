// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging and per-command timeouts via ShellExecutor,
// exposes OSCommandRunner for default process execution, and defines the
// abstractions used throughout repofleet to run the GitHub CLI in a testable
// manner.
package execshell
