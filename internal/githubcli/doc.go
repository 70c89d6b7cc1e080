// Package githubcli wraps the GitHub CLI for repofleet workflows.
//
// It layers typed request and response structures over gh subcommands
// (repository listing, workflow runs, issues, pull request search, merge,
// comment, and rate-limit introspection), exposes interfaces consumed by the
// feature packages, and integrates with execshell so interactions with GitHub
// can be mocked during testing.
package githubcli
