package safemerge

import "github.com/jon-the-dev/repofleet/internal/githubcli"

// MergeDecision classifies the outcome of evaluating one pull request.
type MergeDecision string

// Merge decision enumerations.
const (
	DecisionMerged            MergeDecision = MergeDecision("merged")
	DecisionWouldMerge        MergeDecision = MergeDecision("would_merge")
	DecisionAutoMergeQueued   MergeDecision = MergeDecision("auto_merge_queued")
	DecisionRecreateRequested MergeDecision = MergeDecision("recreate_requested")
	DecisionNotMergeable      MergeDecision = MergeDecision("not_mergeable")
	DecisionFailedChecks      MergeDecision = MergeDecision("failed_checks")
	DecisionPendingChecks     MergeDecision = MergeDecision("pending_checks")
	DecisionError             MergeDecision = MergeDecision("error")
)

// PullRequestOutcome pairs a pull request with its evaluated decision.
type PullRequestOutcome struct {
	PullRequest       githubcli.PullRequestSummary
	Decision          MergeDecision
	FailedCheckNames  []string
	PendingCheckNames []string
	Failure           error
}

// RunSummary accumulates decision counts for one run and is returned to the
// caller rather than shared as mutable state.
type RunSummary struct {
	Total             int
	Merged            int
	WouldMerge        int
	AutoMergeQueued   int
	RecreateRequested int
	NotMergeable      int
	FailedChecks      int
	PendingChecks     int
	Errors            int
}

func (summary *RunSummary) record(decision MergeDecision) {
	summary.Total++
	switch decision {
	case DecisionMerged:
		summary.Merged++
	case DecisionWouldMerge:
		summary.WouldMerge++
	case DecisionAutoMergeQueued:
		summary.AutoMergeQueued++
	case DecisionRecreateRequested:
		summary.RecreateRequested++
	case DecisionNotMergeable:
		summary.NotMergeable++
	case DecisionFailedChecks:
		summary.FailedChecks++
	case DecisionPendingChecks:
		summary.PendingChecks++
	case DecisionError:
		summary.Errors++
	}
}
