package dashboard

import (
	"time"

	"github.com/jon-the-dev/repofleet/internal/githubcli"
)

// WorkflowState classifies the latest CI activity observed for a repository.
type WorkflowState string

// Workflow state enumerations.
const (
	WorkflowStateSuccess     WorkflowState = WorkflowState("success")
	WorkflowStateFailure     WorkflowState = WorkflowState("failure")
	WorkflowStateCancelled   WorkflowState = WorkflowState("cancelled")
	WorkflowStateRunning     WorkflowState = WorkflowState("running")
	WorkflowStateNoRuns      WorkflowState = WorkflowState("no_runs")
	WorkflowStateNoWorkflows WorkflowState = WorkflowState("no_workflows")
	WorkflowStateSkipped     WorkflowState = WorkflowState("skipped")
	WorkflowStateUnknown     WorkflowState = WorkflowState("unknown")
)

// CIStatus summarizes workflow configuration and the latest run for a repository.
type CIStatus struct {
	HasWorkflows  bool
	WorkflowCount int
	State         WorkflowState
	LatestRunURL  string
}

// IssueSummary captures the open issues surfaced on the dashboard.
type IssueSummary struct {
	Count  int
	Issues []githubcli.Issue
}

// RepositoryRecord is one dashboard row, created by the collector and enriched
// in place by the CI and issue lookups.
type RepositoryRecord struct {
	Organization string
	Summary      githubcli.RepositorySummary
	CI           CIStatus
	Issues       IssueSummary
}

// Statistics aggregates the dashboard stat cards.
type Statistics struct {
	TotalRepositories  int
	OrganizationCount  int
	RepositoriesWithCI int
	TotalOpenIssues    int
	FailedLookups      int
}

// Clock abstracts time retrieval for deterministic report timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock with the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
