package safemerge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/execshell"
	"github.com/jon-the-dev/repofleet/internal/githubcli"
)

const (
	gatewayNotConfiguredMessageConstant   = "merge service requires a pull request gateway"
	loggerNotConfiguredMessageConstant    = "merge service requires a logger"
	ownersMissingMessageConstant          = "at least one owner must be provided"
	searchFailedMessageConstant           = "pull request search failed"
	mergeFailedMessageConstant            = "pull request merge failed"
	commentFailedMessageConstant          = "recreate comment failed"
	ownerFieldNameConstant                = "owner"
	pullRequestFieldNameConstant          = "pull_request"
	mergeableValueConstant                = "MERGEABLE"
	dirtyMergeStateValueConstant          = "DIRTY"
	dependabotLoginFragmentConstant       = "dependabot"
	recreateCommentBodyConstant           = "@dependabot recreate"
	branchPolicyStderrFragmentConstant    = "base branch policy prohibits the merge"
	checkStatusInProgressConstant         = "IN_PROGRESS"
	checkStatusQueuedConstant             = "QUEUED"
	checkStatusPendingConstant            = "PENDING"
	checkStateExpectedConstant            = "EXPECTED"
	checkConclusionFailureConstant        = "FAILURE"
	checkConclusionCancelledConstant      = "CANCELLED"
	checkConclusionTimedOutConstant       = "TIMED_OUT"
	checkStateErrorConstant               = "ERROR"
	progressLineTemplateConstant          = "[%d/%d] %s#%d: %s\n"
	summaryHeaderLineConstant             = "\nMerge summary:\n"
	summaryLineTemplateConstant           = "  %-18s %d\n"
	summaryMergedLabelConstant            = "merged"
	summaryWouldMergeLabelConstant        = "would merge"
	summaryAutoQueuedLabelConstant        = "auto-merge queued"
	summaryRecreateLabelConstant          = "recreate requested"
	summaryNotMergeableLabelConstant      = "not mergeable"
	summaryFailedChecksLabelConstant      = "failed checks"
	summaryPendingChecksLabelConstant     = "pending checks"
	summaryErrorsLabelConstant            = "errors"
)

var (
	// ErrGatewayNotConfigured indicates the service was constructed without a gateway.
	ErrGatewayNotConfigured = errors.New(gatewayNotConfiguredMessageConstant)
	// ErrLoggerNotConfigured indicates the service was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrOwnersMissing indicates no target owners were supplied.
	ErrOwnersMissing = errors.New(ownersMissingMessageConstant)
)

// PullRequestGateway exposes the GitHub operations required by the merge workflow.
type PullRequestGateway interface {
	SearchOpenPullRequests(executionContext context.Context, owner string, limit int) ([]githubcli.PullRequestSummary, error)
	ViewPullRequestMergeStatus(executionContext context.Context, repository string, pullRequestNumber int) (githubcli.PullRequestMergeStatus, error)
	MergePullRequest(executionContext context.Context, repository string, pullRequestNumber int, options githubcli.MergeOptions) error
	CommentOnPullRequest(executionContext context.Context, repository string, pullRequestNumber int, commentBody string) error
}

// CommandOptions carries the resolved inputs for one merge run.
type CommandOptions struct {
	Owners      []string
	SearchLimit int
	DryRun      bool
}

// Service evaluates open pull requests against the merge policy and acts on
// the safe ones.
type Service struct {
	gateway      PullRequestGateway
	logger       *zap.Logger
	outputWriter io.Writer
}

// NewService validates dependencies and constructs a merge Service.
func NewService(gateway PullRequestGateway, logger *zap.Logger, outputWriter io.Writer) (*Service, error) {
	if gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	return &Service{gateway: gateway, logger: logger, outputWriter: outputWriter}, nil
}

// Run searches open pull requests across the configured owners, applies the
// merge policy to each, and returns the accumulated summary. Per-item
// failures are recorded and never abort the run.
func (service *Service) Run(executionContext context.Context, options CommandOptions) (RunSummary, error) {
	if len(options.Owners) == 0 {
		return RunSummary{}, ErrOwnersMissing
	}

	var pullRequests []githubcli.PullRequestSummary
	summary := RunSummary{}
	for _, owner := range options.Owners {
		ownerPullRequests, searchError := service.gateway.SearchOpenPullRequests(executionContext, owner, options.SearchLimit)
		if searchError != nil {
			summary.record(DecisionError)
			service.logger.Warn(
				searchFailedMessageConstant,
				zap.String(ownerFieldNameConstant, owner),
				zap.Error(searchError),
			)
			continue
		}
		pullRequests = append(pullRequests, ownerPullRequests...)
	}

	for pullRequestIndex, pullRequest := range pullRequests {
		outcome := service.evaluateAndAct(executionContext, pullRequest, options.DryRun)
		summary.record(outcome.Decision)
		fmt.Fprintf(
			service.outputWriter,
			progressLineTemplateConstant,
			pullRequestIndex+1,
			len(pullRequests),
			pullRequest.Repository,
			pullRequest.Number,
			outcome.Decision,
		)
	}

	service.writeSummary(summary)
	return summary, nil
}

// evaluateAndAct applies the merge decision table to one pull request.
func (service *Service) evaluateAndAct(executionContext context.Context, pullRequest githubcli.PullRequestSummary, dryRun bool) PullRequestOutcome {
	outcome := PullRequestOutcome{PullRequest: pullRequest}

	mergeStatus, statusError := service.gateway.ViewPullRequestMergeStatus(executionContext, pullRequest.Repository, pullRequest.Number)
	if statusError != nil {
		outcome.Decision = DecisionError
		outcome.Failure = statusError
		return outcome
	}

	if mergeStatus.Mergeable != mergeableValueConstant {
		if isDependabotAuthor(pullRequest.Author) && mergeStatus.MergeStateStatus == dirtyMergeStateValueConstant {
			if dryRun {
				outcome.Decision = DecisionRecreateRequested
				return outcome
			}
			commentError := service.gateway.CommentOnPullRequest(executionContext, pullRequest.Repository, pullRequest.Number, recreateCommentBodyConstant)
			if commentError != nil {
				outcome.Decision = DecisionError
				outcome.Failure = commentError
				service.logger.Warn(
					commentFailedMessageConstant,
					zap.String(pullRequestFieldNameConstant, formatPullRequestReference(pullRequest)),
					zap.Error(commentError),
				)
				return outcome
			}
			outcome.Decision = DecisionRecreateRequested
			return outcome
		}
		outcome.Decision = DecisionNotMergeable
		return outcome
	}

	failedCheckNames, pendingCheckNames := EvaluateChecks(mergeStatus.Checks)
	outcome.FailedCheckNames = failedCheckNames
	outcome.PendingCheckNames = pendingCheckNames
	if len(failedCheckNames) > 0 {
		outcome.Decision = DecisionFailedChecks
		return outcome
	}
	if len(pendingCheckNames) > 0 {
		outcome.Decision = DecisionPendingChecks
		return outcome
	}

	if dryRun {
		outcome.Decision = DecisionWouldMerge
		return outcome
	}

	mergeError := service.gateway.MergePullRequest(executionContext, pullRequest.Repository, pullRequest.Number, githubcli.MergeOptions{Squash: true, DeleteBranch: true})
	if mergeError == nil {
		outcome.Decision = DecisionMerged
		return outcome
	}

	// Branch protection rejections are an expected alternate path; queue an
	// auto-merge instead of recording a failure.
	if isBranchPolicyRejection(mergeError) {
		autoMergeError := service.gateway.MergePullRequest(executionContext, pullRequest.Repository, pullRequest.Number, githubcli.MergeOptions{Squash: true, DeleteBranch: true, Auto: true})
		if autoMergeError != nil {
			outcome.Decision = DecisionError
			outcome.Failure = autoMergeError
			return outcome
		}
		outcome.Decision = DecisionAutoMergeQueued
		return outcome
	}

	outcome.Decision = DecisionError
	outcome.Failure = mergeError
	service.logger.Warn(
		mergeFailedMessageConstant,
		zap.String(pullRequestFieldNameConstant, formatPullRequestReference(pullRequest)),
		zap.Error(mergeError),
	)
	return outcome
}

// EvaluateChecks splits a status-check rollup into failed and pending check names.
func EvaluateChecks(checks []githubcli.CheckResult) ([]string, []string) {
	var failedCheckNames []string
	var pendingCheckNames []string
	for _, check := range checks {
		switch {
		case isFailedCheck(check):
			failedCheckNames = append(failedCheckNames, check.DisplayName())
		case isPendingCheck(check):
			pendingCheckNames = append(pendingCheckNames, check.DisplayName())
		}
	}
	return failedCheckNames, pendingCheckNames
}

func isFailedCheck(check githubcli.CheckResult) bool {
	switch check.Conclusion {
	case checkConclusionFailureConstant, checkConclusionCancelledConstant, checkConclusionTimedOutConstant:
		return true
	}
	switch check.State {
	case checkConclusionFailureConstant, checkStateErrorConstant:
		return true
	}
	return false
}

func isPendingCheck(check githubcli.CheckResult) bool {
	switch check.Status {
	case checkStatusInProgressConstant, checkStatusQueuedConstant, checkStatusPendingConstant:
		return true
	}
	switch check.State {
	case checkStatusPendingConstant, checkStateExpectedConstant:
		return true
	}
	return false
}

func isDependabotAuthor(author githubcli.PullRequestAuthor) bool {
	return strings.Contains(strings.ToLower(author.Login), dependabotLoginFragmentConstant)
}

func isBranchPolicyRejection(mergeError error) bool {
	commandFailure := execshell.CommandFailedError{}
	if !errors.As(mergeError, &commandFailure) {
		return false
	}
	return strings.Contains(commandFailure.Result.StandardError, branchPolicyStderrFragmentConstant)
}

func formatPullRequestReference(pullRequest githubcli.PullRequestSummary) string {
	return fmt.Sprintf("%s#%d", pullRequest.Repository, pullRequest.Number)
}

func (service *Service) writeSummary(summary RunSummary) {
	fmt.Fprint(service.outputWriter, summaryHeaderLineConstant)
	fmt.Fprintf(service.outputWriter, summaryLineTemplateConstant, summaryMergedLabelConstant, summary.Merged)
	fmt.Fprintf(service.outputWriter, summaryLineTemplateConstant, summaryWouldMergeLabelConstant, summary.WouldMerge)
	fmt.Fprintf(service.outputWriter, summaryLineTemplateConstant, summaryAutoQueuedLabelConstant, summary.AutoMergeQueued)
	fmt.Fprintf(service.outputWriter, summaryLineTemplateConstant, summaryRecreateLabelConstant, summary.RecreateRequested)
	fmt.Fprintf(service.outputWriter, summaryLineTemplateConstant, summaryNotMergeableLabelConstant, summary.NotMergeable)
	fmt.Fprintf(service.outputWriter, summaryLineTemplateConstant, summaryFailedChecksLabelConstant, summary.FailedChecks)
	fmt.Fprintf(service.outputWriter, summaryLineTemplateConstant, summaryPendingChecksLabelConstant, summary.PendingChecks)
	fmt.Fprintf(service.outputWriter, summaryLineTemplateConstant, summaryErrorsLabelConstant, summary.Errors)
}
