package safemerge_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/execshell"
	"github.com/jon-the-dev/repofleet/internal/githubcli"
	"github.com/jon-the-dev/repofleet/internal/safemerge"
)

const (
	testRepositoryConstant        = "example/service"
	testPullRequestNumberConstant = 42
)

type mergeCall struct {
	repository        string
	pullRequestNumber int
	options           githubcli.MergeOptions
}

type stubPullRequestGateway struct {
	pullRequests    []githubcli.PullRequestSummary
	searchError     error
	statusesByRef   map[string]githubcli.PullRequestMergeStatus
	statusErrors    map[string]error
	mergeErrors     []error
	mergeCalls      []mergeCall
	commentedBodies []string
	commentError    error
}

func pullRequestReference(repository string, pullRequestNumber int) string {
	return fmt.Sprintf("%s#%d", repository, pullRequestNumber)
}

func (gateway *stubPullRequestGateway) SearchOpenPullRequests(executionContext context.Context, owner string, limit int) ([]githubcli.PullRequestSummary, error) {
	if gateway.searchError != nil {
		return nil, gateway.searchError
	}
	return gateway.pullRequests, nil
}

func (gateway *stubPullRequestGateway) ViewPullRequestMergeStatus(executionContext context.Context, repository string, pullRequestNumber int) (githubcli.PullRequestMergeStatus, error) {
	reference := pullRequestReference(repository, pullRequestNumber)
	if statusError, hasError := gateway.statusErrors[reference]; hasError {
		return githubcli.PullRequestMergeStatus{}, statusError
	}
	return gateway.statusesByRef[reference], nil
}

func (gateway *stubPullRequestGateway) MergePullRequest(executionContext context.Context, repository string, pullRequestNumber int, options githubcli.MergeOptions) error {
	gateway.mergeCalls = append(gateway.mergeCalls, mergeCall{repository: repository, pullRequestNumber: pullRequestNumber, options: options})
	if len(gateway.mergeErrors) == 0 {
		return nil
	}
	nextError := gateway.mergeErrors[0]
	gateway.mergeErrors = gateway.mergeErrors[1:]
	return nextError
}

func (gateway *stubPullRequestGateway) CommentOnPullRequest(executionContext context.Context, repository string, pullRequestNumber int, commentBody string) error {
	gateway.commentedBodies = append(gateway.commentedBodies, commentBody)
	return gateway.commentError
}

func buildGatewayForStatus(status githubcli.PullRequestMergeStatus, authorLogin string) *stubPullRequestGateway {
	return &stubPullRequestGateway{
		pullRequests: []githubcli.PullRequestSummary{
			{Repository: testRepositoryConstant, Number: testPullRequestNumberConstant, Title: "Update dependencies", Author: githubcli.PullRequestAuthor{Login: authorLogin}},
		},
		statusesByRef: map[string]githubcli.PullRequestMergeStatus{
			pullRequestReference(testRepositoryConstant, testPullRequestNumberConstant): status,
		},
	}
}

func TestNewServiceValidation(testInstance *testing.T) {
	_, missingGatewayError := safemerge.NewService(nil, zap.NewNop(), nil)
	require.ErrorIs(testInstance, missingGatewayError, safemerge.ErrGatewayNotConfigured)

	_, missingLoggerError := safemerge.NewService(&stubPullRequestGateway{}, nil, nil)
	require.ErrorIs(testInstance, missingLoggerError, safemerge.ErrLoggerNotConfigured)
}

func TestRunRequiresOwners(testInstance *testing.T) {
	service, creationError := safemerge.NewService(&stubPullRequestGateway{}, zap.NewNop(), nil)
	require.NoError(testInstance, creationError)

	_, runError := service.Run(context.Background(), safemerge.CommandOptions{})
	require.ErrorIs(testInstance, runError, safemerge.ErrOwnersMissing)
}

func TestRunDecisionTable(testInstance *testing.T) {
	passingChecks := []githubcli.CheckResult{{Name: "build", Status: "COMPLETED", Conclusion: "SUCCESS"}}
	failingChecks := []githubcli.CheckResult{{Name: "build", Status: "COMPLETED", Conclusion: "FAILURE"}}
	pendingChecks := []githubcli.CheckResult{{Name: "build", Status: "IN_PROGRESS"}}

	testCases := []struct {
		name             string
		status           githubcli.PullRequestMergeStatus
		authorLogin      string
		dryRun           bool
		expectedSummary  func(summary safemerge.RunSummary) int
		expectedMerges   int
		expectedComments int
	}{
		{
			name:            "mergeable_with_passing_checks_merges",
			status:          githubcli.PullRequestMergeStatus{Mergeable: "MERGEABLE", Checks: passingChecks},
			authorLogin:     "octocat",
			expectedSummary: func(summary safemerge.RunSummary) int { return summary.Merged },
			expectedMerges:  1,
		},
		{
			name:            "mergeable_in_dry_run_reports_would_merge",
			status:          githubcli.PullRequestMergeStatus{Mergeable: "MERGEABLE", Checks: passingChecks},
			authorLogin:     "octocat",
			dryRun:          true,
			expectedSummary: func(summary safemerge.RunSummary) int { return summary.WouldMerge },
		},
		{
			name:            "failing_check_blocks_merge",
			status:          githubcli.PullRequestMergeStatus{Mergeable: "MERGEABLE", Checks: failingChecks},
			authorLogin:     "octocat",
			expectedSummary: func(summary safemerge.RunSummary) int { return summary.FailedChecks },
		},
		{
			name:            "pending_check_defers_merge",
			status:          githubcli.PullRequestMergeStatus{Mergeable: "MERGEABLE", Checks: pendingChecks},
			authorLogin:     "octocat",
			expectedSummary: func(summary safemerge.RunSummary) int { return summary.PendingChecks },
		},
		{
			name:            "conflicting_pull_request_is_not_mergeable",
			status:          githubcli.PullRequestMergeStatus{Mergeable: "CONFLICTING", MergeStateStatus: "DIRTY"},
			authorLogin:     "octocat",
			expectedSummary: func(summary safemerge.RunSummary) int { return summary.NotMergeable },
		},
		{
			name:             "dirty_dependabot_pull_request_requests_recreate",
			status:           githubcli.PullRequestMergeStatus{Mergeable: "CONFLICTING", MergeStateStatus: "DIRTY"},
			authorLogin:      "app/dependabot",
			expectedSummary:  func(summary safemerge.RunSummary) int { return summary.RecreateRequested },
			expectedComments: 1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			gateway := buildGatewayForStatus(testCase.status, testCase.authorLogin)
			outputBuffer := &bytes.Buffer{}
			service, creationError := safemerge.NewService(gateway, zap.NewNop(), outputBuffer)
			require.NoError(testInstance, creationError)

			summary, runError := service.Run(context.Background(), safemerge.CommandOptions{
				Owners: []string{"example"},
				DryRun: testCase.dryRun,
			})
			require.NoError(testInstance, runError)

			require.Equal(testInstance, 1, summary.Total)
			require.Equal(testInstance, 1, testCase.expectedSummary(summary))
			require.Len(testInstance, gateway.mergeCalls, testCase.expectedMerges)
			require.Len(testInstance, gateway.commentedBodies, testCase.expectedComments)
			require.Contains(testInstance, outputBuffer.String(), "Merge summary:")
		})
	}
}

func TestRunQueuesAutoMergeWhenBranchPolicyRejects(testInstance *testing.T) {
	gateway := buildGatewayForStatus(githubcli.PullRequestMergeStatus{Mergeable: "MERGEABLE"}, "octocat")
	gateway.mergeErrors = []error{
		execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGitHub},
			Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "base branch policy prohibits the merge"},
		},
		nil,
	}

	service, creationError := safemerge.NewService(gateway, zap.NewNop(), nil)
	require.NoError(testInstance, creationError)

	summary, runError := service.Run(context.Background(), safemerge.CommandOptions{Owners: []string{"example"}})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, 1, summary.AutoMergeQueued)
	require.Len(testInstance, gateway.mergeCalls, 2)
	require.False(testInstance, gateway.mergeCalls[0].options.Auto)
	require.True(testInstance, gateway.mergeCalls[1].options.Auto)
	require.True(testInstance, gateway.mergeCalls[1].options.Squash)
}

func TestRunRecordsErrorWhenMergeFails(testInstance *testing.T) {
	gateway := buildGatewayForStatus(githubcli.PullRequestMergeStatus{Mergeable: "MERGEABLE"}, "octocat")
	gateway.mergeErrors = []error{errors.New("merge rejected")}

	service, creationError := safemerge.NewService(gateway, zap.NewNop(), nil)
	require.NoError(testInstance, creationError)

	summary, runError := service.Run(context.Background(), safemerge.CommandOptions{Owners: []string{"example"}})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, 1, summary.Errors)
	require.Len(testInstance, gateway.mergeCalls, 1)
}

func TestRunIsolatesStatusLookupFailures(testInstance *testing.T) {
	gateway := &stubPullRequestGateway{
		pullRequests: []githubcli.PullRequestSummary{
			{Repository: testRepositoryConstant, Number: 1, Author: githubcli.PullRequestAuthor{Login: "octocat"}},
			{Repository: testRepositoryConstant, Number: 2, Author: githubcli.PullRequestAuthor{Login: "octocat"}},
		},
		statusesByRef: map[string]githubcli.PullRequestMergeStatus{
			pullRequestReference(testRepositoryConstant, 2): {Mergeable: "MERGEABLE"},
		},
		statusErrors: map[string]error{
			pullRequestReference(testRepositoryConstant, 1): errors.New("status lookup failed"),
		},
	}

	service, creationError := safemerge.NewService(gateway, zap.NewNop(), nil)
	require.NoError(testInstance, creationError)

	summary, runError := service.Run(context.Background(), safemerge.CommandOptions{Owners: []string{"example"}})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, 2, summary.Total)
	require.Equal(testInstance, 1, summary.Errors)
	require.Equal(testInstance, 1, summary.Merged)
}
