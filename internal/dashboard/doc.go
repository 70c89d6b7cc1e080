// Package dashboard implements the repository CI and issue dashboard workflow.
//
// It exposes CommandBuilder for wiring the dashboard cobra command, Service
// for collecting and enriching repository records through the GitHub CLI, and
// ReportRenderer for producing the self-contained HTML report.
package dashboard
