package githubcli_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jon-the-dev/repofleet/internal/execshell"
	"github.com/jon-the-dev/repofleet/internal/githubcli"
)

const (
	testRepositoryConstant              = "example/widgets"
	testOrganizationConstant            = "example"
	testMergeArgumentsCaseNameConstant  = "merge_arguments"
	testAutoMergeArgumentsCaseConstant  = "auto_merge_arguments"
	testRepositoryListingCaseConstant   = "repository_listing"
	testMalformedPayloadCaseConstant    = "malformed_payload"
	testRateLimitDecodingCaseConstant   = "rate_limit_decoding"
	testOwnerClassificationOrgCase      = "owner_classified_as_organization"
	testOwnerClassificationUserCase     = "owner_classified_as_user"
	testLatestRunPresentCaseConstant    = "latest_run_present"
	testLatestRunAbsentCaseConstant     = "latest_run_absent"
	testRepositoryListPayloadConstant   = `[{"name":"widgets","nameWithOwner":"example/widgets","description":"widget factory","url":"https://github.com/example/widgets","updatedAt":"2026-05-01T10:00:00Z","isPrivate":false}]`
	testRateLimitPayloadConstant        = `{"resources":{"core":{"limit":5000,"remaining":4200,"used":800,"reset":1767225600},"search":{"limit":30,"remaining":18,"used":12,"reset":1767225600}}}`
	testLatestRunPayloadConstant        = `{"workflow_runs":[{"name":"ci","status":"completed","conclusion":"success","html_url":"https://github.com/example/widgets/actions/runs/1","updated_at":"2026-05-01T10:00:00Z"}]}`
	testEmptyRunsPayloadConstant        = `{"workflow_runs":[]}`
	testMalformedJSONPayloadConstant    = `{"workflow_runs":`
)

type scriptedCommandExecutor struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.CommandDetails
}

func (executor *scriptedCommandExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	return executor.executionResult, executor.executionError
}

func TestNewClientRequiresExecutor(testInstance *testing.T) {
	client, creationError := githubcli.NewClient(nil)
	require.Nil(testInstance, client)
	require.ErrorIs(testInstance, creationError, githubcli.ErrExecutorNotConfigured)
}

func TestListOrganizationRepositoriesDecoding(testInstance *testing.T) {
	testCases := []struct {
		name           string
		payload        string
		expectDecoding bool
	}{
		{name: testRepositoryListingCaseConstant, payload: testRepositoryListPayloadConstant, expectDecoding: true},
		{name: testMalformedPayloadCaseConstant, payload: testMalformedJSONPayloadConstant, expectDecoding: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			scriptedExecutor := &scriptedCommandExecutor{executionResult: execshell.ExecutionResult{StandardOutput: testCase.payload}}
			client, creationError := githubcli.NewClient(scriptedExecutor)
			require.NoError(testInstance, creationError)

			repositories, listError := client.ListOrganizationRepositories(context.Background(), testOrganizationConstant, 0)
			if !testCase.expectDecoding {
				require.Error(testInstance, listError)
				require.IsType(testInstance, githubcli.ResponseDecodingError{}, listError)
				return
			}

			require.NoError(testInstance, listError)
			require.Len(testInstance, repositories, 1)
			require.Equal(testInstance, testRepositoryConstant, repositories[0].NameWithOwner)
			require.False(testInstance, repositories[0].IsPrivate)
		})
	}
}

func TestGetLatestWorkflowRun(testInstance *testing.T) {
	testCases := []struct {
		name      string
		payload   string
		expectRun bool
	}{
		{name: testLatestRunPresentCaseConstant, payload: testLatestRunPayloadConstant, expectRun: true},
		{name: testLatestRunAbsentCaseConstant, payload: testEmptyRunsPayloadConstant, expectRun: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			scriptedExecutor := &scriptedCommandExecutor{executionResult: execshell.ExecutionResult{StandardOutput: testCase.payload}}
			client, creationError := githubcli.NewClient(scriptedExecutor)
			require.NoError(testInstance, creationError)

			latestRun, lookupError := client.GetLatestWorkflowRun(context.Background(), testRepositoryConstant)
			require.NoError(testInstance, lookupError)
			if testCase.expectRun {
				require.NotNil(testInstance, latestRun)
				require.Equal(testInstance, "success", latestRun.Conclusion)
			} else {
				require.Nil(testInstance, latestRun)
			}
		})
	}
}

func TestCheckRateLimitDecoding(testInstance *testing.T) {
	scriptedExecutor := &scriptedCommandExecutor{executionResult: execshell.ExecutionResult{StandardOutput: testRateLimitPayloadConstant}}
	client, creationError := githubcli.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	snapshot, checkError := client.CheckRateLimit(context.Background())
	require.NoError(testInstance, checkError)
	require.Equal(testInstance, 4200, snapshot.Core.Remaining)
	require.Equal(testInstance, 5000, snapshot.Core.Limit)
	require.Equal(testInstance, 18, snapshot.Search.Remaining)
	require.Len(testInstance, scriptedExecutor.recordedCommands, 1)
	require.Equal(testInstance, []string{"api", "rate_limit"}, scriptedExecutor.recordedCommands[0].Arguments)
}

func TestClassifyOwner(testInstance *testing.T) {
	testCases := []struct {
		name              string
		probeError        error
		expectedOwnerType githubcli.OwnerType
	}{
		{
			name:              testOwnerClassificationOrgCase,
			probeError:        nil,
			expectedOwnerType: githubcli.OrganizationOwnerType,
		},
		{
			name: testOwnerClassificationUserCase,
			probeError: execshell.CommandFailedError{
				Result: execshell.ExecutionResult{ExitCode: 1, StandardError: "HTTP 404"},
			},
			expectedOwnerType: githubcli.UserOwnerType,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			scriptedExecutor := &scriptedCommandExecutor{executionError: testCase.probeError}
			client, creationError := githubcli.NewClient(scriptedExecutor)
			require.NoError(testInstance, creationError)

			ownerType, classificationError := client.ClassifyOwner(context.Background(), testOrganizationConstant)
			require.NoError(testInstance, classificationError)
			require.Equal(testInstance, testCase.expectedOwnerType, ownerType)
		})
	}
}

func TestMergePullRequestArguments(testInstance *testing.T) {
	testCases := []struct {
		name              string
		options           githubcli.MergeOptions
		expectedArguments []string
	}{
		{
			name:              testMergeArgumentsCaseNameConstant,
			options:           githubcli.MergeOptions{Squash: true, DeleteBranch: true},
			expectedArguments: []string{"pr", "merge", "7", "--repo", testRepositoryConstant, "--squash", "--delete-branch"},
		},
		{
			name:              testAutoMergeArgumentsCaseConstant,
			options:           githubcli.MergeOptions{Squash: true, DeleteBranch: true, Auto: true},
			expectedArguments: []string{"pr", "merge", "7", "--repo", testRepositoryConstant, "--squash", "--delete-branch", "--auto"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			scriptedExecutor := &scriptedCommandExecutor{}
			client, creationError := githubcli.NewClient(scriptedExecutor)
			require.NoError(testInstance, creationError)

			mergeError := client.MergePullRequest(context.Background(), testRepositoryConstant, 7, testCase.options)
			require.NoError(testInstance, mergeError)
			require.Len(testInstance, scriptedExecutor.recordedCommands, 1)
			require.Equal(testInstance, testCase.expectedArguments, scriptedExecutor.recordedCommands[0].Arguments)
		})
	}
}

func TestListOpenPullRequestsUsesRepositoryFallback(testInstance *testing.T) {
	scriptedExecutor := &scriptedCommandExecutor{executionResult: execshell.ExecutionResult{
		StandardOutput: `[{"number":3,"title":"Bump deps","url":"https://github.com/example/widgets/pull/3","author":{"login":"app/dependabot","is_bot":true},"isDraft":false,"createdAt":"2026-05-01T10:00:00Z","updatedAt":"2026-05-02T10:00:00Z"}]`,
	}}
	client, creationError := githubcli.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	pullRequests, listError := client.ListOpenPullRequests(context.Background(), testRepositoryConstant, 0)
	require.NoError(testInstance, listError)
	require.Len(testInstance, pullRequests, 1)
	require.Equal(testInstance, testRepositoryConstant, pullRequests[0].Repository)
	require.True(testInstance, pullRequests[0].Author.IsBot)
	require.True(testInstance, strings.Contains(pullRequests[0].URL, testRepositoryConstant))
}

func TestListOwnerRepositoryPageValidation(testInstance *testing.T) {
	scriptedExecutor := &scriptedCommandExecutor{executionResult: execshell.ExecutionResult{StandardOutput: `[{"full_name":"example/widgets"}]`}}
	client, creationError := githubcli.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	_, pageError := client.ListOwnerRepositoryPage(context.Background(), githubcli.OrganizationOwnerType, testOrganizationConstant, 0)
	require.Error(testInstance, pageError)
	require.IsType(testInstance, githubcli.InvalidInputError{}, pageError)

	repositoryNames, listError := client.ListOwnerRepositoryPage(context.Background(), githubcli.OrganizationOwnerType, testOrganizationConstant, 1)
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []string{testRepositoryConstant}, repositoryNames)
	require.Len(testInstance, scriptedExecutor.recordedCommands, 1)
	require.Equal(testInstance, []string{"api", "orgs/example/repos?per_page=100&page=1"}, scriptedExecutor.recordedCommands[0].Arguments)
}
