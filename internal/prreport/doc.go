// Package prreport implements the open pull request reporting workflow.
//
// Pull requests are collected over two independent paths, the GraphQL search
// API and per-repository listing through the GitHub CLI, deduplicated by
// repository and number, and rendered as a Markdown report. A request
// estimator and rate-limit gate run before any fetching starts.
package prreport
