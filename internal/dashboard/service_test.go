package dashboard_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/dashboard"
	"github.com/jon-the-dev/repofleet/internal/githubcli"
)

const (
	testOrganizationConstant        = "example"
	testHealthyRepositoryConstant   = "example/healthy"
	testBrokenRepositoryConstant    = "example/broken"
	testQuietRepositoryConstant     = "example/quiet"
	testReportFileNameConstant      = "report.html"
	testIssueTitleConstant          = "Crash on <startup>"
)

type fixedClock struct {
	currentTime time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.currentTime
}

type stubGitHubGateway struct {
	repositories     []githubcli.RepositorySummary
	listError        error
	workflowCounts   map[string]int
	workflowErrors   map[string]error
	latestRuns       map[string]*githubcli.WorkflowRun
	issuesByRepo     map[string][]githubcli.Issue
	issueErrors      map[string]error
}

func (gateway *stubGitHubGateway) ListOrganizationRepositories(executionContext context.Context, organization string, limit int) ([]githubcli.RepositorySummary, error) {
	if gateway.listError != nil {
		return nil, gateway.listError
	}
	return gateway.repositories, nil
}

func (gateway *stubGitHubGateway) CountWorkflows(executionContext context.Context, repository string) (int, error) {
	if workflowError, hasError := gateway.workflowErrors[repository]; hasError {
		return 0, workflowError
	}
	return gateway.workflowCounts[repository], nil
}

func (gateway *stubGitHubGateway) GetLatestWorkflowRun(executionContext context.Context, repository string) (*githubcli.WorkflowRun, error) {
	return gateway.latestRuns[repository], nil
}

func (gateway *stubGitHubGateway) ListOpenIssues(executionContext context.Context, repository string, limit int) ([]githubcli.Issue, error) {
	if issueError, hasError := gateway.issueErrors[repository]; hasError {
		return nil, issueError
	}
	return gateway.issuesByRepo[repository], nil
}

func buildStubGateway() *stubGitHubGateway {
	return &stubGitHubGateway{
		repositories: []githubcli.RepositorySummary{
			{Name: "healthy", NameWithOwner: testHealthyRepositoryConstant, URL: "https://github.com/example/healthy", UpdatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
			{Name: "broken", NameWithOwner: testBrokenRepositoryConstant, URL: "https://github.com/example/broken"},
			{Name: "quiet", NameWithOwner: testQuietRepositoryConstant, URL: "https://github.com/example/quiet", IsPrivate: true},
		},
		workflowCounts: map[string]int{testHealthyRepositoryConstant: 2, testQuietRepositoryConstant: 0},
		workflowErrors: map[string]error{testBrokenRepositoryConstant: errors.New("workflow lookup failed")},
		latestRuns: map[string]*githubcli.WorkflowRun{
			testHealthyRepositoryConstant: {Status: "completed", Conclusion: "success", URL: "https://github.com/example/healthy/actions/runs/9"},
		},
		issuesByRepo: map[string][]githubcli.Issue{
			testHealthyRepositoryConstant: {
				{Number: 12, Title: testIssueTitleConstant, Author: "octocat", CreatedAt: time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), Labels: []string{"bug"}},
			},
		},
	}
}

func TestNewServiceValidation(testInstance *testing.T) {
	_, missingGatewayError := dashboard.NewService(nil, zap.NewNop(), nil)
	require.ErrorIs(testInstance, missingGatewayError, dashboard.ErrGatewayNotConfigured)

	_, missingLoggerError := dashboard.NewService(&stubGitHubGateway{}, nil, nil)
	require.ErrorIs(testInstance, missingLoggerError, dashboard.ErrLoggerNotConfigured)
}

func TestRunRequiresOrganizations(testInstance *testing.T) {
	service, creationError := dashboard.NewService(buildStubGateway(), zap.NewNop(), nil)
	require.NoError(testInstance, creationError)

	runError := service.Run(context.Background(), dashboard.CommandOptions{})
	require.ErrorIs(testInstance, runError, dashboard.ErrOrganizationsMissing)
}

func TestRunWritesReportAndIsolatesFailures(testInstance *testing.T) {
	reportPath := filepath.Join(testInstance.TempDir(), testReportFileNameConstant)
	clock := fixedClock{currentTime: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)}

	service, creationError := dashboard.NewService(buildStubGateway(), zap.NewNop(), clock)
	require.NoError(testInstance, creationError)

	runError := service.Run(context.Background(), dashboard.CommandOptions{
		Organizations: []string{testOrganizationConstant},
		OutputPath:    reportPath,
		WorkerCount:   4,
	})
	require.NoError(testInstance, runError)

	reportBytes, readError := os.ReadFile(reportPath)
	require.NoError(testInstance, readError)
	reportContent := string(reportBytes)

	require.Contains(testInstance, reportContent, testHealthyRepositoryConstant)
	require.Contains(testInstance, reportContent, testBrokenRepositoryConstant)
	require.Contains(testInstance, reportContent, testQuietRepositoryConstant)
	require.Contains(testInstance, reportContent, "passing")
	require.Contains(testInstance, reportContent, "no CI")
	require.Contains(testInstance, reportContent, "Crash on &lt;startup&gt;")
	require.NotContains(testInstance, reportContent, testIssueTitleConstant)
	require.Contains(testInstance, reportContent, "Generated at 2026-05-10")
}

func TestRunSkipsLookupsWhenDisabled(testInstance *testing.T) {
	reportPath := filepath.Join(testInstance.TempDir(), testReportFileNameConstant)
	gateway := buildStubGateway()
	gateway.workflowErrors = map[string]error{
		testHealthyRepositoryConstant: errors.New("should not be called"),
		testBrokenRepositoryConstant:  errors.New("should not be called"),
		testQuietRepositoryConstant:   errors.New("should not be called"),
	}

	service, creationError := dashboard.NewService(gateway, zap.NewNop(), nil)
	require.NoError(testInstance, creationError)

	runError := service.Run(context.Background(), dashboard.CommandOptions{
		Organizations: []string{testOrganizationConstant},
		OutputPath:    reportPath,
		SkipCIChecks:  true,
		SkipIssues:    true,
	})
	require.NoError(testInstance, runError)

	reportBytes, readError := os.ReadFile(reportPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(reportBytes), "skipped")
}
