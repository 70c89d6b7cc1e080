package prreport_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/githubcli"
	"github.com/jon-the-dev/repofleet/internal/prreport"
)

const (
	testOwnerConstant           = "example"
	testAlphaRepositoryConstant = "example/alpha"
	testBetaRepositoryConstant  = "example/beta"
	testReportFileNameConstant  = "report.md"
)

type fixedClock struct {
	currentTime time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.currentTime
}

type stubSearcher struct {
	pullRequests []githubcli.PullRequestSummary
	searchError  error
	callCount    int
}

func (searcher *stubSearcher) SearchOpenPullRequests(executionContext context.Context, owner string, ownerType githubcli.OwnerType) ([]githubcli.PullRequestSummary, error) {
	searcher.callCount++
	if searcher.searchError != nil {
		return nil, searcher.searchError
	}
	return searcher.pullRequests, nil
}

type stubRepositoryLister struct {
	repositories       []string
	pullRequestsByRepo map[string][]githubcli.PullRequestSummary
	snapshot           githubcli.RateLimitSnapshot
	listCallCount      int
}

func (lister *stubRepositoryLister) ClassifyOwner(executionContext context.Context, owner string) (githubcli.OwnerType, error) {
	return githubcli.OrganizationOwnerType, nil
}

func (lister *stubRepositoryLister) ListOwnerRepositoryPage(executionContext context.Context, ownerType githubcli.OwnerType, owner string, pageNumber int) ([]string, error) {
	if pageNumber > 1 {
		return nil, nil
	}
	return lister.repositories, nil
}

func (lister *stubRepositoryLister) ListOpenPullRequests(executionContext context.Context, repository string, limit int) ([]githubcli.PullRequestSummary, error) {
	lister.listCallCount++
	return lister.pullRequestsByRepo[repository], nil
}

func (lister *stubRepositoryLister) CheckRateLimit(executionContext context.Context) (githubcli.RateLimitSnapshot, error) {
	return lister.snapshot, nil
}

func generousSnapshot() githubcli.RateLimitSnapshot {
	return githubcli.RateLimitSnapshot{
		Core:   githubcli.QuotaWindow{Limit: 5000, Remaining: 5000},
		Search: githubcli.QuotaWindow{Limit: 30, Remaining: 30},
	}
}

func exhaustedSnapshot() githubcli.RateLimitSnapshot {
	return githubcli.RateLimitSnapshot{
		Core:   githubcli.QuotaWindow{Limit: 5000, Remaining: 0, ResetAt: time.Date(2026, 5, 10, 13, 0, 0, 0, time.UTC)},
		Search: githubcli.QuotaWindow{Limit: 30, Remaining: 30},
	}
}

func TestCollectionKeepsLastRecordPerKey(testInstance *testing.T) {
	collection := prreport.NewCollection()
	collection.Add(githubcli.PullRequestSummary{Repository: testAlphaRepositoryConstant, Number: 1, Title: "from search"})
	collection.Add(githubcli.PullRequestSummary{Repository: testAlphaRepositoryConstant, Number: 1, Title: "from listing"})
	collection.Add(githubcli.PullRequestSummary{Repository: testBetaRepositoryConstant, Number: 2, Title: "unrelated"})

	require.Equal(testInstance, 2, collection.Size())
	records := collection.Records()
	require.Equal(testInstance, testAlphaRepositoryConstant, records[0].Repository)
	require.Equal(testInstance, "from listing", records[0].Title)
	require.Equal(testInstance, testBetaRepositoryConstant, records[1].Repository)
}

func TestNewServiceValidation(testInstance *testing.T) {
	_, missingSearcherError := prreport.NewService(nil, &stubRepositoryLister{}, zap.NewNop(), nil, nil)
	require.ErrorIs(testInstance, missingSearcherError, prreport.ErrSearcherNotConfigured)

	_, missingListerError := prreport.NewService(&stubSearcher{}, nil, zap.NewNop(), nil, nil)
	require.ErrorIs(testInstance, missingListerError, prreport.ErrRepositoriesNotConfigured)

	_, missingLoggerError := prreport.NewService(&stubSearcher{}, &stubRepositoryLister{}, nil, nil, nil)
	require.ErrorIs(testInstance, missingLoggerError, prreport.ErrLoggerNotConfigured)
}

func TestRunRequiresOwners(testInstance *testing.T) {
	service, creationError := prreport.NewService(&stubSearcher{}, &stubRepositoryLister{}, zap.NewNop(), nil, nil)
	require.NoError(testInstance, creationError)

	runError := service.Run(context.Background(), prreport.CommandOptions{})
	require.ErrorIs(testInstance, runError, prreport.ErrOwnersMissing)
}

func TestRunMergesBothFetchPathsWithListingPrecedence(testInstance *testing.T) {
	reportPath := filepath.Join(testInstance.TempDir(), testReportFileNameConstant)
	createdAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	searcher := &stubSearcher{
		pullRequests: []githubcli.PullRequestSummary{
			{Repository: testAlphaRepositoryConstant, Number: 1, Title: "stale search title", Author: githubcli.PullRequestAuthor{Login: "octocat"}, CreatedAt: createdAt},
		},
	}
	lister := &stubRepositoryLister{
		repositories: []string{testAlphaRepositoryConstant, testBetaRepositoryConstant},
		pullRequestsByRepo: map[string][]githubcli.PullRequestSummary{
			testAlphaRepositoryConstant: {
				{Repository: testAlphaRepositoryConstant, Number: 1, Title: "fresh listing title", Author: githubcli.PullRequestAuthor{Login: "octocat"}, CreatedAt: createdAt},
			},
			testBetaRepositoryConstant: {
				{Repository: testBetaRepositoryConstant, Number: 2, Title: "Bump library to v2", Author: githubcli.PullRequestAuthor{Login: "dependabot[bot]", IsBot: true}, CreatedAt: createdAt},
			},
		},
		snapshot: generousSnapshot(),
	}

	outputBuffer := &bytes.Buffer{}
	clock := fixedClock{currentTime: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)}
	service, creationError := prreport.NewService(searcher, lister, zap.NewNop(), clock, outputBuffer)
	require.NoError(testInstance, creationError)

	runError := service.Run(context.Background(), prreport.CommandOptions{
		Owners:      []string{testOwnerConstant},
		OutputPath:  reportPath,
		WorkerCount: 2,
	})
	require.NoError(testInstance, runError)

	reportBytes, readError := os.ReadFile(reportPath)
	require.NoError(testInstance, readError)
	reportContent := string(reportBytes)

	require.Contains(testInstance, reportContent, "fresh listing title")
	require.NotContains(testInstance, reportContent, "stale search title")
	require.Contains(testInstance, reportContent, "Bump library to v2")
	require.Contains(testInstance, reportContent, "Total open pull requests: 2")
	require.Contains(testInstance, outputBuffer.String(), "Collected 2 unique open pull requests")
}

func TestRunBlocksWhenQuotaInsufficient(testInstance *testing.T) {
	searcher := &stubSearcher{}
	lister := &stubRepositoryLister{
		repositories: []string{testAlphaRepositoryConstant},
		snapshot:     exhaustedSnapshot(),
	}

	service, creationError := prreport.NewService(searcher, lister, zap.NewNop(), nil, nil)
	require.NoError(testInstance, creationError)

	runError := service.Run(context.Background(), prreport.CommandOptions{
		Owners:     []string{testOwnerConstant},
		OutputPath: filepath.Join(testInstance.TempDir(), testReportFileNameConstant),
	})
	require.ErrorIs(testInstance, runError, prreport.ErrGateBlocked)
	require.Zero(testInstance, searcher.callCount)
	require.Zero(testInstance, lister.listCallCount)
}

func TestRunContinuesPastBlockedGateWhenForced(testInstance *testing.T) {
	reportPath := filepath.Join(testInstance.TempDir(), testReportFileNameConstant)
	searcher := &stubSearcher{}
	lister := &stubRepositoryLister{
		repositories:       []string{testAlphaRepositoryConstant},
		pullRequestsByRepo: map[string][]githubcli.PullRequestSummary{},
		snapshot:           exhaustedSnapshot(),
	}

	service, creationError := prreport.NewService(searcher, lister, zap.NewNop(), nil, nil)
	require.NoError(testInstance, creationError)

	runError := service.Run(context.Background(), prreport.CommandOptions{
		Owners:     []string{testOwnerConstant},
		OutputPath: reportPath,
		Force:      true,
	})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, searcher.callCount)
	require.FileExists(testInstance, reportPath)
}

func TestRunBlocksWhenRequestCapExceeded(testInstance *testing.T) {
	searcher := &stubSearcher{}
	lister := &stubRepositoryLister{
		repositories: []string{testAlphaRepositoryConstant, testBetaRepositoryConstant},
		snapshot:     generousSnapshot(),
	}

	service, creationError := prreport.NewService(searcher, lister, zap.NewNop(), nil, nil)
	require.NoError(testInstance, creationError)

	runError := service.Run(context.Background(), prreport.CommandOptions{
		Owners:      []string{testOwnerConstant},
		OutputPath:  filepath.Join(testInstance.TempDir(), testReportFileNameConstant),
		MaxRequests: 1,
	})
	require.ErrorIs(testInstance, runError, prreport.ErrGateBlocked)
	require.Zero(testInstance, searcher.callCount)
}

func TestRunDryRunSkipsFetchingAndWriting(testInstance *testing.T) {
	reportPath := filepath.Join(testInstance.TempDir(), testReportFileNameConstant)
	searcher := &stubSearcher{}
	lister := &stubRepositoryLister{
		repositories: []string{testAlphaRepositoryConstant},
		snapshot:     generousSnapshot(),
	}

	outputBuffer := &bytes.Buffer{}
	service, creationError := prreport.NewService(searcher, lister, zap.NewNop(), nil, outputBuffer)
	require.NoError(testInstance, creationError)

	runError := service.Run(context.Background(), prreport.CommandOptions{
		Owners:     []string{testOwnerConstant},
		OutputPath: reportPath,
		DryRun:     true,
	})
	require.NoError(testInstance, runError)
	require.Zero(testInstance, searcher.callCount)
	require.Zero(testInstance, lister.listCallCount)
	require.NoFileExists(testInstance, reportPath)
	require.Contains(testInstance, outputBuffer.String(), "Estimated requests:")
	require.Contains(testInstance, outputBuffer.String(), "Rate limit gate: allowed")
}
