package prreport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/dispatch"
	"github.com/jon-the-dev/repofleet/internal/githubcli"
	"github.com/jon-the-dev/repofleet/internal/ratelimit"
)

const (
	searcherNotConfiguredMessageConstant     = "report service requires a pull request searcher"
	repositoriesNotConfiguredMessageConstant = "report service requires a repository lister"
	serviceLoggerMissingMessageConstant      = "report service requires a logger"
	ownersMissingMessageConstant             = "at least one owner must be provided"
	gateBlockedMessageConstant               = "estimated request volume exceeds the remaining quota"
	requestCapExceededTemplateConstant       = "estimated request volume %d exceeds the configured cap of %d"
	quotaCheckFailedMessageConstant          = "rate limit check failed"
	searchPathFailedMessageConstant          = "search fetch path failed"
	repositoryListingFailedMessageConstant   = "repository listing failed"
	estimateFailedMessageConstant            = "owner estimate failed"
	ownerFieldNameConstant                   = "owner"
	repositoryFieldNameConstant              = "repository"
	estimateLineTemplateConstant             = "Estimated requests: %d core + %d search across ~%d repositories\n"
	quotaLineTemplateConstant                = "Remaining quota: %d core, %d search\n"
	gateAllowedLineConstant                  = "Rate limit gate: allowed\n"
	gateBlockedLineTemplateConstant          = "Rate limit gate: blocked\n%s%s\n"
	gateOverriddenLineConstant               = "Rate limit gate: blocked, continuing because the override flag is set\n"
	progressLineTemplateConstant             = "[%d/%d] %s\n"
	fetchSummaryTemplateConstant             = "Collected %d unique open pull requests (%d via search, %d via repository listing)\n"
	reportWrittenTemplateConstant            = "Report written to %s\n"
	reportFilePermissionsConstant            = 0o644
	perRepositoryListLimitConstant           = 100
)

var (
	// ErrSearcherNotConfigured indicates the service was constructed without a searcher.
	ErrSearcherNotConfigured = errors.New(searcherNotConfiguredMessageConstant)
	// ErrRepositoriesNotConfigured indicates the service was constructed without a repository lister.
	ErrRepositoriesNotConfigured = errors.New(repositoriesNotConfiguredMessageConstant)
	// ErrLoggerNotConfigured indicates the service was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(serviceLoggerMissingMessageConstant)
	// ErrOwnersMissing indicates no target owners were supplied.
	ErrOwnersMissing = errors.New(ownersMissingMessageConstant)
	// ErrGateBlocked indicates the projected request volume exceeds the remaining quota.
	ErrGateBlocked = errors.New(gateBlockedMessageConstant)
)

// Clock supplies the current time so report output stays testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// PullRequestSearcher fetches open pull requests for one owner through the
// search API.
type PullRequestSearcher interface {
	SearchOpenPullRequests(executionContext context.Context, owner string, ownerType githubcli.OwnerType) ([]githubcli.PullRequestSummary, error)
}

// RepositoryLister exposes the repository-oriented operations the second
// fetch path and the request estimator need.
type RepositoryLister interface {
	ClassifyOwner(executionContext context.Context, owner string) (githubcli.OwnerType, error)
	ListOwnerRepositoryPage(executionContext context.Context, ownerType githubcli.OwnerType, owner string, pageNumber int) ([]string, error)
	ListOpenPullRequests(executionContext context.Context, repository string, limit int) ([]githubcli.PullRequestSummary, error)
	CheckRateLimit(executionContext context.Context) (githubcli.RateLimitSnapshot, error)
}

// CommandOptions carries the resolved inputs for one report run.
type CommandOptions struct {
	Owners      []string
	OutputPath  string
	WorkerCount int
	MaxRequests int
	Force       bool
	DryRun      bool
}

// Service collects open pull requests over two independent fetch paths,
// deduplicates them, and writes the Markdown report.
type Service struct {
	searcher     PullRequestSearcher
	repositories RepositoryLister
	logger       *zap.Logger
	clock        Clock
	outputWriter io.Writer
}

// NewService validates dependencies and constructs a report Service.
func NewService(searcher PullRequestSearcher, repositories RepositoryLister, logger *zap.Logger, clock Clock, outputWriter io.Writer) (*Service, error) {
	if searcher == nil {
		return nil, ErrSearcherNotConfigured
	}
	if repositories == nil {
		return nil, ErrRepositoriesNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	return &Service{searcher: searcher, repositories: repositories, logger: logger, clock: clock, outputWriter: outputWriter}, nil
}

// Run estimates request volume, applies the rate-limit gate, fetches pull
// requests over both paths, and writes the report. Per-owner and per-repo
// failures are logged and skipped.
func (service *Service) Run(executionContext context.Context, options CommandOptions) error {
	if len(options.Owners) == 0 {
		return ErrOwnersMissing
	}

	ownerEstimates, aggregateEstimate := service.estimateOwners(executionContext, options.Owners)

	gateError := service.applyGate(executionContext, aggregateEstimate, options)
	if gateError != nil {
		return gateError
	}
	if options.DryRun {
		return nil
	}

	collection := NewCollection()
	searchCount := service.runSearchPath(executionContext, ownerEstimates, collection)
	listingCount := service.runListingPath(executionContext, ownerEstimates, options.WorkerCount, collection)

	fmt.Fprintf(service.outputWriter, fetchSummaryTemplateConstant, collection.Size(), searchCount, listingCount)

	renderer := NewReportRenderer(service.clock)
	reportContent := renderer.Render(collection.Records(), options.Owners)
	writeError := os.WriteFile(options.OutputPath, []byte(reportContent), reportFilePermissionsConstant)
	if writeError != nil {
		return writeError
	}

	fmt.Fprintf(service.outputWriter, reportWrittenTemplateConstant, options.OutputPath)
	return nil
}

// estimateOwners projects request volume per owner. Failed owners are logged
// and excluded from both fetch paths.
func (service *Service) estimateOwners(executionContext context.Context, owners []string) ([]ratelimit.OwnerEstimate, ratelimit.RequestEstimate) {
	estimator, estimatorError := ratelimit.NewEstimator(service.repositories, service.logger)
	if estimatorError != nil {
		return nil, ratelimit.RequestEstimate{}
	}

	var ownerEstimates []ratelimit.OwnerEstimate
	var aggregateEstimate ratelimit.RequestEstimate
	for _, owner := range owners {
		ownerEstimate, estimateError := estimator.EstimateOwner(executionContext, owner)
		if estimateError != nil {
			service.logger.Warn(
				estimateFailedMessageConstant,
				zap.String(ownerFieldNameConstant, owner),
				zap.Error(estimateError),
			)
			continue
		}
		ownerEstimates = append(ownerEstimates, ownerEstimate)
		aggregateEstimate = aggregateEstimate.Add(ownerEstimate.Estimate)
	}
	return ownerEstimates, aggregateEstimate
}

func (service *Service) applyGate(executionContext context.Context, estimate ratelimit.RequestEstimate, options CommandOptions) error {
	fmt.Fprintf(
		service.outputWriter,
		estimateLineTemplateConstant,
		estimate.CoreRequests(),
		estimate.SearchRequests,
		estimate.EstimatedRepositories,
	)

	if options.MaxRequests > 0 && estimate.TotalRequests() > options.MaxRequests {
		if !options.Force {
			return fmt.Errorf(requestCapExceededTemplateConstant+": %w", estimate.TotalRequests(), options.MaxRequests, ErrGateBlocked)
		}
	}

	snapshot, quotaError := service.repositories.CheckRateLimit(executionContext)
	if quotaError != nil {
		if options.Force {
			service.logger.Warn(quotaCheckFailedMessageConstant, zap.Error(quotaError))
			return nil
		}
		return fmt.Errorf(quotaCheckFailedMessageConstant+": %w", quotaError)
	}
	fmt.Fprintf(service.outputWriter, quotaLineTemplateConstant, snapshot.Core.Remaining, snapshot.Search.Remaining)

	decision := ratelimit.EvaluateGate(snapshot, estimate)
	if decision.Allowed {
		fmt.Fprint(service.outputWriter, gateAllowedLineConstant)
		return nil
	}
	if options.Force {
		fmt.Fprint(service.outputWriter, gateOverriddenLineConstant)
		return nil
	}
	fmt.Fprintf(service.outputWriter, gateBlockedLineTemplateConstant, decision.DescribeShortfalls(), decision.Advice())
	return ErrGateBlocked
}

// runSearchPath fetches pull requests through the search API, one owner at a
// time, and returns the number of records it contributed.
func (service *Service) runSearchPath(executionContext context.Context, ownerEstimates []ratelimit.OwnerEstimate, collection *Collection) int {
	fetchedCount := 0
	for _, ownerEstimate := range ownerEstimates {
		pullRequests, searchError := service.searcher.SearchOpenPullRequests(executionContext, ownerEstimate.Owner, ownerEstimate.OwnerType)
		if searchError != nil {
			service.logger.Warn(
				searchPathFailedMessageConstant,
				zap.String(ownerFieldNameConstant, ownerEstimate.Owner),
				zap.Error(searchError),
			)
			continue
		}
		collection.AddAll(pullRequests)
		fetchedCount += len(pullRequests)
	}
	return fetchedCount
}

// runListingPath enumerates every repository of every owner and fans out
// per-repo pull request listings through the dispatcher. Listing results are
// added after the search results, so they win the dedup on overlap.
func (service *Service) runListingPath(executionContext context.Context, ownerEstimates []ratelimit.OwnerEstimate, workerCount int, collection *Collection) int {
	var repositories []string
	for _, ownerEstimate := range ownerEstimates {
		ownerRepositories, listingError := service.collectOwnerRepositories(executionContext, ownerEstimate)
		if listingError != nil {
			service.logger.Warn(
				repositoryListingFailedMessageConstant,
				zap.String(ownerFieldNameConstant, ownerEstimate.Owner),
				zap.Error(listingError),
			)
			continue
		}
		repositories = append(repositories, ownerRepositories...)
	}

	worker := func(workerContext context.Context, repository string) ([]githubcli.PullRequestSummary, error) {
		return service.repositories.ListOpenPullRequests(workerContext, repository, perRepositoryListLimitConstant)
	}
	results, report := dispatch.Run(executionContext, repositories, workerCount, worker, progressWriterPublisher{writer: service.outputWriter})

	fetchedCount := 0
	for _, repository := range repositories {
		isFailed := false
		for _, failedKey := range report.FailedKeys {
			if failedKey == repository {
				isFailed = true
				break
			}
		}
		if isFailed {
			continue
		}
		collection.AddAll(results[repository])
		fetchedCount += len(results[repository])
	}
	return fetchedCount
}

// collectOwnerRepositories pages through an owner's repositories until a
// short page signals the end.
func (service *Service) collectOwnerRepositories(executionContext context.Context, ownerEstimate ratelimit.OwnerEstimate) ([]string, error) {
	var repositories []string
	for pageNumber := 1; ; pageNumber++ {
		pageRepositories, pageError := service.repositories.ListOwnerRepositoryPage(executionContext, ownerEstimate.OwnerType, ownerEstimate.Owner, pageNumber)
		if pageError != nil {
			return nil, pageError
		}
		repositories = append(repositories, pageRepositories...)
		if len(pageRepositories) < perRepositoryListLimitConstant {
			return repositories, nil
		}
	}
}

// progressWriterPublisher echoes dispatcher progress to the report output.
type progressWriterPublisher struct {
	writer io.Writer
}

func (publisher progressWriterPublisher) Publish(key string, completed int, total int, failure error) {
	line := fmt.Sprintf(progressLineTemplateConstant, completed, total, key)
	if failure != nil {
		line = fmt.Sprintf("[%d/%d] %s (fetch failed)\n", completed, total, key)
	}
	fmt.Fprint(publisher.writer, line)
}
