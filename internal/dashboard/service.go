package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/dispatch"
	"github.com/jon-the-dev/repofleet/internal/githubcli"
)

const (
	gatewayNotConfiguredMessageConstant     = "dashboard service requires a github gateway"
	loggerNotConfiguredMessageConstant      = "dashboard service requires a logger"
	organizationsMissingMessageConstant     = "at least one organization must be provided"
	organizationListFailedMessageConstant   = "organization repository listing failed"
	issueListingFailedMessageConstant       = "issue listing failed"
	reportWrittenMessageConstant            = "dashboard report written"
	workerLimitWarningMessageConstant       = "worker count exceeds the recommended limit; external rate limits may throttle the batch"
	progressLineTemplateConstant            = "[%d/%d] %s"
	progressFailureSuffixConstant           = " (lookup failed)"
	organizationFieldNameConstant           = "organization"
	repositoryFieldNameConstant             = "repository"
	outputPathFieldNameConstant             = "output_path"
	repositoryCountFieldNameConstant        = "repository_count"
	failedLookupCountFieldNameConstant      = "failed_lookups"
	workerCountFieldNameConstant            = "worker_count"
	reportFilePermissionsConstant           = 0o644
	latestRunStatusInProgressConstant       = "in_progress"
	latestRunStatusQueuedConstant           = "queued"
	latestRunStatusPendingConstant          = "pending"
	latestRunConclusionSuccessConstant      = "success"
	latestRunConclusionCancelledConstant    = "cancelled"
)

var (
	// ErrGatewayNotConfigured indicates the service was constructed without a gateway.
	ErrGatewayNotConfigured = errors.New(gatewayNotConfiguredMessageConstant)
	// ErrLoggerNotConfigured indicates the service was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrOrganizationsMissing indicates no target organizations were supplied.
	ErrOrganizationsMissing = errors.New(organizationsMissingMessageConstant)
)

// GitHubGateway exposes the GitHub lookups required by the dashboard workflow.
type GitHubGateway interface {
	ListOrganizationRepositories(executionContext context.Context, organization string, limit int) ([]githubcli.RepositorySummary, error)
	CountWorkflows(executionContext context.Context, repository string) (int, error)
	GetLatestWorkflowRun(executionContext context.Context, repository string) (*githubcli.WorkflowRun, error)
	ListOpenIssues(executionContext context.Context, repository string, limit int) ([]githubcli.Issue, error)
}

// CommandOptions carries the resolved inputs for one dashboard run.
type CommandOptions struct {
	Organizations   []string
	RepositoryLimit int
	OutputPath      string
	WorkerCount     int
	SkipIssues      bool
	SkipCIChecks    bool
}

// Service drives repository collection, enrichment, and report rendering.
type Service struct {
	gateway GitHubGateway
	logger  *zap.Logger
	clock   Clock
}

// NewService validates dependencies and constructs a dashboard Service.
func NewService(gateway GitHubGateway, logger *zap.Logger, clock Clock) (*Service, error) {
	if gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{gateway: gateway, logger: logger, clock: clock}, nil
}

type repositoryEnrichment struct {
	ci     CIStatus
	issues IssueSummary
}

type progressLogPublisher struct {
	logger *zap.Logger
}

func (publisher progressLogPublisher) Publish(key string, completedCount int, totalCount int, failure error) {
	progressLine := fmt.Sprintf(progressLineTemplateConstant, completedCount, totalCount, key)
	if failure != nil {
		progressLine += progressFailureSuffixConstant
	}
	publisher.logger.Info(progressLine)
}

// Run collects repositories across the configured organizations, enriches them
// with CI and issue data, and writes the HTML report.
func (service *Service) Run(executionContext context.Context, options CommandOptions) error {
	if len(options.Organizations) == 0 {
		return ErrOrganizationsMissing
	}
	if options.WorkerCount > dispatch.SoftWorkerLimitThreshold {
		service.logger.Warn(workerLimitWarningMessageConstant, zap.Int(workerCountFieldNameConstant, options.WorkerCount))
	}

	records, failedLookups := service.collectRepositories(executionContext, options)
	enrichmentReport := service.enrichRepositories(executionContext, records, options)
	failedLookups += enrichmentReport.FailureCount()

	statistics := computeStatistics(records, failedLookups)
	renderer := NewReportRenderer(service.clock)
	reportContent, renderError := renderer.Render(records, statistics)
	if renderError != nil {
		return renderError
	}

	writeError := os.WriteFile(options.OutputPath, []byte(reportContent), reportFilePermissionsConstant)
	if writeError != nil {
		return writeError
	}

	service.logger.Info(
		reportWrittenMessageConstant,
		zap.String(outputPathFieldNameConstant, options.OutputPath),
		zap.Int(repositoryCountFieldNameConstant, len(records)),
		zap.Int(failedLookupCountFieldNameConstant, failedLookups),
	)
	return nil
}

func (service *Service) collectRepositories(executionContext context.Context, options CommandOptions) ([]*RepositoryRecord, int) {
	var records []*RepositoryRecord
	failedLookups := 0
	for _, organization := range options.Organizations {
		repositories, listError := service.gateway.ListOrganizationRepositories(executionContext, organization, options.RepositoryLimit)
		if listError != nil {
			failedLookups++
			service.logger.Warn(
				organizationListFailedMessageConstant,
				zap.String(organizationFieldNameConstant, organization),
				zap.Error(listError),
			)
			continue
		}
		for _, repositorySummary := range repositories {
			records = append(records, &RepositoryRecord{Organization: organization, Summary: repositorySummary})
		}
	}

	sort.Slice(records, func(firstIndex int, secondIndex int) bool {
		if records[firstIndex].Organization != records[secondIndex].Organization {
			return records[firstIndex].Organization < records[secondIndex].Organization
		}
		return records[firstIndex].Summary.NameWithOwner < records[secondIndex].Summary.NameWithOwner
	})
	return records, failedLookups
}

func (service *Service) enrichRepositories(executionContext context.Context, records []*RepositoryRecord, options CommandOptions) dispatch.BatchReport {
	recordsByName := make(map[string]*RepositoryRecord, len(records))
	batchKeys := make([]string, 0, len(records))
	for _, record := range records {
		recordsByName[record.Summary.NameWithOwner] = record
		batchKeys = append(batchKeys, record.Summary.NameWithOwner)
	}

	enrichments, batchReport := dispatch.Run(
		executionContext,
		batchKeys,
		options.WorkerCount,
		func(workerContext context.Context, repositoryName string) (repositoryEnrichment, error) {
			return service.enrichOneRepository(workerContext, repositoryName, options)
		},
		progressLogPublisher{logger: service.logger},
	)

	for repositoryName, enrichment := range enrichments {
		record, recordExists := recordsByName[repositoryName]
		if !recordExists {
			continue
		}
		record.CI = enrichment.ci
		record.Issues = enrichment.issues
	}
	return batchReport
}

// enrichOneRepository resolves CI and issue details for a single repository.
// Partial data is returned alongside the failure so a broken lookup still
// yields a usable row.
func (service *Service) enrichOneRepository(executionContext context.Context, repositoryName string, options CommandOptions) (repositoryEnrichment, error) {
	enrichment := repositoryEnrichment{ci: CIStatus{State: WorkflowStateSkipped}}

	if !options.SkipCIChecks {
		workflowCount, countError := service.gateway.CountWorkflows(executionContext, repositoryName)
		if countError != nil {
			enrichment.ci = CIStatus{State: WorkflowStateUnknown}
			return enrichment, countError
		}
		if workflowCount == 0 {
			enrichment.ci = CIStatus{HasWorkflows: false, State: WorkflowStateNoWorkflows}
		} else {
			latestRun, runError := service.gateway.GetLatestWorkflowRun(executionContext, repositoryName)
			if runError != nil {
				enrichment.ci = CIStatus{HasWorkflows: true, WorkflowCount: workflowCount, State: WorkflowStateUnknown}
				return enrichment, runError
			}
			enrichment.ci = CIStatus{
				HasWorkflows:  true,
				WorkflowCount: workflowCount,
				State:         classifyWorkflowRun(latestRun),
			}
			if latestRun != nil {
				enrichment.ci.LatestRunURL = latestRun.URL
			}
		}
	}

	if !options.SkipIssues {
		openIssues, issueError := service.gateway.ListOpenIssues(executionContext, repositoryName, 0)
		if issueError != nil {
			service.logger.Warn(
				issueListingFailedMessageConstant,
				zap.String(repositoryFieldNameConstant, repositoryName),
				zap.Error(issueError),
			)
			return enrichment, issueError
		}
		enrichment.issues = IssueSummary{Count: len(openIssues), Issues: openIssues}
	}

	return enrichment, nil
}

func classifyWorkflowRun(latestRun *githubcli.WorkflowRun) WorkflowState {
	if latestRun == nil {
		return WorkflowStateNoRuns
	}
	switch latestRun.Status {
	case latestRunStatusInProgressConstant, latestRunStatusQueuedConstant, latestRunStatusPendingConstant:
		return WorkflowStateRunning
	}
	switch latestRun.Conclusion {
	case latestRunConclusionSuccessConstant:
		return WorkflowStateSuccess
	case latestRunConclusionCancelledConstant:
		return WorkflowStateCancelled
	case "":
		return WorkflowStateUnknown
	default:
		return WorkflowStateFailure
	}
}

func computeStatistics(records []*RepositoryRecord, failedLookups int) Statistics {
	organizations := make(map[string]struct{})
	statistics := Statistics{FailedLookups: failedLookups}
	for _, record := range records {
		statistics.TotalRepositories++
		organizations[record.Organization] = struct{}{}
		if record.CI.HasWorkflows {
			statistics.RepositoriesWithCI++
		}
		statistics.TotalOpenIssues += record.Issues.Count
	}
	statistics.OrganizationCount = len(organizations)
	return statistics
}
