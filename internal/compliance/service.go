package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
)

const (
	gatewayNotConfiguredMessageConstant    = "audit service requires a repository gateway"
	loggerNotConfiguredMessageConstant     = "audit service requires a logger"
	organizationDiscoveryFailedMessage     = "organization discovery failed"
	noOrganizationsMessageConstant         = "no organizations available to audit"
	repositoryListingFailedMessageConstant = "repository listing failed"
	filesProbeFailedMessageConstant        = "file probe failed"
	labelListingFailedMessageConstant      = "label listing failed"
	labelCreationFailedMessageConstant     = "label creation failed"
	issueRemediationFailedMessageConstant  = "issue remediation failed"
	organizationFieldNameConstant          = "organization"
	repositoryFieldNameConstant            = "repository"
	filePathFieldNameConstant              = "path"
	labelFieldNameConstant                 = "label"
	generatedAtTimeLayoutConstant          = time.RFC3339
	missingFileItemTemplateConstant        = "file:%s"
	missingLabelItemTemplateConstant       = "label:%s"
	complianceIssueTitleConstant           = "Repository compliance gaps"
	issueActionCreatedConstant             = "created"
	issueActionReopenedConstant            = "reopened"
	issueActionExistingConstant            = "existing"
	topMissingItemLimitConstant            = 10
	fullComplianceScoreConstant            = 100.0
	recommendationScoreThresholdConstant   = 70.0
	progressLineTemplateConstant           = "[%d/%d] %s: %.1f\n"
	reportWrittenTemplateConstant          = "Audit report written to %s\n"
	reportFilePermissionsConstant          = 0o644
	filesRecommendationConstant            = "Add the missing required files; CODEOWNERS, README, and LICENSE carry most of the file score."
	labelsRecommendationConstant           = "Create the standard label set, or run the audit with label remediation enabled."
	archivedRecommendationConstant         = "Archived repositories were skipped; rerun with archived repositories included to audit them."
)

// complianceIssueLabels tags tracking issues filed for compliance gaps.
var complianceIssueLabels = []string{"triage", "documentation"}

var (
	// ErrGatewayNotConfigured indicates the service was constructed without a gateway.
	ErrGatewayNotConfigured = errors.New(gatewayNotConfiguredMessageConstant)
	// ErrLoggerNotConfigured indicates the service was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrNoOrganizations indicates neither an explicit organization nor any discovered memberships.
	ErrNoOrganizations = errors.New(noOrganizationsMessageConstant)
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

// CommandOptions carries the resolved inputs for one audit run.
type CommandOptions struct {
	Organization    string
	OutputPath      string
	FixLabels       bool
	CreateIssues    bool
	IncludeArchived bool
}

// Service audits repositories against the file and label standards and
// optionally remediates the gaps it finds.
type Service struct {
	gateway      RepositoryGateway
	logger       *zap.Logger
	clock        Clock
	outputWriter io.Writer
}

// NewService validates dependencies and constructs an audit Service.
func NewService(gateway RepositoryGateway, logger *zap.Logger, clock Clock, outputWriter io.Writer) (*Service, error) {
	if gateway == nil {
		return nil, ErrGatewayNotConfigured
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
	return &Service{gateway: gateway, logger: logger, clock: clock, outputWriter: outputWriter}, nil
}

// Run audits every repository of the target organizations, applies the
// requested remediations, and writes the JSON report. Per-repository
// failures are recorded in the report and never abort the run.
func (service *Service) Run(executionContext context.Context, options CommandOptions) error {
	organizations, organizationsError := service.resolveOrganizations(executionContext, options)
	if organizationsError != nil {
		return organizationsError
	}

	report := Report{GeneratedAt: service.clock.Now().UTC().Format(generatedAtTimeLayoutConstant)}
	skippedArchived := false

	for _, organization := range organizations {
		repositories, listingError := service.gateway.ListRepositories(executionContext, organization)
		if listingError != nil {
			service.logger.Warn(
				repositoryListingFailedMessageConstant,
				zap.String(organizationFieldNameConstant, organization),
				zap.Error(listingError),
			)
			report.Summary.FailedAudits++
			continue
		}

		organizationReport := OrganizationReport{Organization: organization}
		for _, repository := range repositories {
			if repository.Archived && !options.IncludeArchived {
				skippedArchived = true
				continue
			}
			auditResult := service.auditRepository(executionContext, organization, repository, options)
			organizationReport.Repositories = append(organizationReport.Repositories, auditResult)
		}
		organizationReport.RepositoryCount = len(organizationReport.Repositories)
		organizationReport.AverageOverallScore = averageOverallScore(organizationReport.Repositories)
		report.Organizations = append(report.Organizations, organizationReport)

		for resultIndex, auditResult := range organizationReport.Repositories {
			fmt.Fprintf(
				service.outputWriter,
				progressLineTemplateConstant,
				resultIndex+1,
				len(organizationReport.Repositories),
				auditResult.Repository,
				auditResult.OverallScore,
			)
		}
	}

	service.summarize(&report, skippedArchived)

	reportBytes, encodeError := json.MarshalIndent(report, "", "  ")
	if encodeError != nil {
		return encodeError
	}
	writeError := os.WriteFile(options.OutputPath, reportBytes, reportFilePermissionsConstant)
	if writeError != nil {
		return writeError
	}

	fmt.Fprintf(service.outputWriter, reportWrittenTemplateConstant, options.OutputPath)
	return nil
}

// resolveOrganizations returns the explicit organization or discovers every
// organization the token belongs to.
func (service *Service) resolveOrganizations(executionContext context.Context, options CommandOptions) ([]string, error) {
	trimmedOrganization := strings.TrimSpace(options.Organization)
	if len(trimmedOrganization) > 0 {
		return []string{trimmedOrganization}, nil
	}

	organizations, discoveryError := service.gateway.ListOrganizations(executionContext)
	if discoveryError != nil {
		return nil, fmt.Errorf(organizationDiscoveryFailedMessage+": %w", discoveryError)
	}
	if len(organizations) == 0 {
		return nil, ErrNoOrganizations
	}
	sort.Strings(organizations)
	return organizations, nil
}

// auditRepository probes the file and label standards on one repository and
// applies remediation when requested.
func (service *Service) auditRepository(executionContext context.Context, organization string, repository Repository, options CommandOptions) RepositoryAuditResult {
	auditResult := RepositoryAuditResult{
		Repository:   repository.FullName,
		Organization: organization,
		Private:      repository.Private,
	}

	fileResults, missingFiles, filesError := service.checkFiles(executionContext, organization, repository.Name)
	if filesError != nil {
		appendAuditError(&auditResult, filesError)
		service.logger.Warn(
			filesProbeFailedMessageConstant,
			zap.String(repositoryFieldNameConstant, repository.FullName),
			zap.Error(filesError),
		)
	}
	auditResult.Files = fileResults
	auditResult.MissingFiles = missingFiles
	auditResult.FilesScore = ScoreFiles(auditResult.Files)

	presentLabels, missingLabels, labelsError := service.checkLabels(executionContext, organization, repository.Name)
	if labelsError != nil {
		appendAuditError(&auditResult, labelsError)
		service.logger.Warn(
			labelListingFailedMessageConstant,
			zap.String(repositoryFieldNameConstant, repository.FullName),
			zap.Error(labelsError),
		)
	}
	auditResult.PresentLabels = presentLabels
	auditResult.MissingLabels = missingLabels
	auditResult.LabelsScore = ScoreLabels(len(presentLabels), len(LabelStandards))

	if options.FixLabels && len(auditResult.MissingLabels) > 0 {
		service.fixLabels(executionContext, organization, repository.Name, &auditResult)
	}
	auditResult.OverallScore = OverallScore(auditResult.FilesScore, auditResult.LabelsScore)

	if options.CreateIssues {
		service.remediateWithIssue(executionContext, organization, repository.Name, &auditResult)
	}

	return auditResult
}

// checkFiles probes each file standard's candidate paths in order; the first
// match satisfies the standard. A failed probe leaves the standard
// undetermined: it is excluded from scoring and surfaced as an error rather
// than counted missing.
func (service *Service) checkFiles(executionContext context.Context, organization string, repositoryName string) ([]FileCheckResult, []string, error) {
	results := make([]FileCheckResult, 0, len(FileStandards))
	var missingFiles []string
	var probeFailures []error
	for _, standard := range FileStandards {
		result := FileCheckResult{Key: standard.Key, Required: standard.Required}
		probeFailed := false
		for _, candidatePath := range standard.CandidatePaths {
			exists, probeError := service.gateway.FileExists(executionContext, organization, repositoryName, candidatePath)
			if probeError != nil {
				service.logger.Debug(
					filesProbeFailedMessageConstant,
					zap.String(repositoryFieldNameConstant, repositoryName),
					zap.String(filePathFieldNameConstant, candidatePath),
					zap.Error(probeError),
				)
				probeFailures = append(probeFailures, fmt.Errorf("%s: %w", standard.Key, probeError))
				probeFailed = true
				break
			}
			if exists {
				result.Found = true
				result.MatchedPath = candidatePath
				break
			}
		}
		if probeFailed {
			continue
		}
		if !result.Found {
			missingFiles = append(missingFiles, standard.Key)
		}
		results = append(results, result)
	}
	return results, missingFiles, errors.Join(probeFailures...)
}

// appendAuditError accumulates gateway failures on the audit result so a
// transient outage stays distinguishable from non-compliance.
func appendAuditError(auditResult *RepositoryAuditResult, failure error) {
	if failure == nil {
		return
	}
	if len(auditResult.AuditError) > 0 {
		auditResult.AuditError += "; " + failure.Error()
		return
	}
	auditResult.AuditError = failure.Error()
}

// checkLabels compares the repository's labels against the standard set.
// Comparison is case-insensitive.
func (service *Service) checkLabels(executionContext context.Context, organization string, repositoryName string) ([]string, []string, error) {
	labelNames, listError := service.gateway.ListLabelNames(executionContext, organization, repositoryName)
	if listError != nil {
		missingLabels := make([]string, 0, len(LabelStandards))
		for _, standard := range LabelStandards {
			missingLabels = append(missingLabels, standard.Name)
		}
		return nil, missingLabels, listError
	}

	existingLabels := make(map[string]struct{}, len(labelNames))
	for _, labelName := range labelNames {
		existingLabels[strings.ToLower(labelName)] = struct{}{}
	}

	var presentLabels []string
	var missingLabels []string
	for _, standard := range LabelStandards {
		if _, found := existingLabels[strings.ToLower(standard.Name)]; found {
			presentLabels = append(presentLabels, standard.Name)
		} else {
			missingLabels = append(missingLabels, standard.Name)
		}
	}
	return presentLabels, missingLabels, nil
}

// fixLabels creates the missing standard labels and re-audits the label set
// so the recorded score reflects the remediated state.
func (service *Service) fixLabels(executionContext context.Context, organization string, repositoryName string, auditResult *RepositoryAuditResult) {
	standardsByName := make(map[string]LabelStandard, len(LabelStandards))
	for _, standard := range LabelStandards {
		standardsByName[standard.Name] = standard
	}

	for _, missingLabel := range auditResult.MissingLabels {
		created, createError := service.gateway.CreateLabel(executionContext, organization, repositoryName, standardsByName[missingLabel])
		if createError != nil {
			service.logger.Warn(
				labelCreationFailedMessageConstant,
				zap.String(repositoryFieldNameConstant, repositoryName),
				zap.String(labelFieldNameConstant, missingLabel),
				zap.Error(createError),
			)
			continue
		}
		if created {
			auditResult.CreatedLabels = append(auditResult.CreatedLabels, missingLabel)
		}
	}

	presentLabels, missingLabels, reauditError := service.checkLabels(executionContext, organization, repositoryName)
	if reauditError != nil {
		return
	}
	auditResult.PresentLabels = presentLabels
	auditResult.MissingLabels = missingLabels
	auditResult.LabelsScore = ScoreLabels(len(presentLabels), len(LabelStandards))
}

// remediateWithIssue files a tracking issue listing the repository's gaps.
// An open issue with the same title is reused; a closed one is reopened.
func (service *Service) remediateWithIssue(executionContext context.Context, organization string, repositoryName string, auditResult *RepositoryAuditResult) {
	if len(auditResult.MissingFiles) == 0 && len(auditResult.MissingLabels) == 0 {
		return
	}

	existingIssue, findError := service.gateway.FindIssueByTitle(executionContext, organization, repositoryName, complianceIssueTitleConstant)
	if findError != nil {
		service.logger.Warn(
			issueRemediationFailedMessageConstant,
			zap.String(repositoryFieldNameConstant, repositoryName),
			zap.Error(findError),
		)
		return
	}

	if existingIssue != nil {
		if existingIssue.State == issueStateOpenConstant {
			auditResult.IssueAction = issueActionExistingConstant
			return
		}
		reopenError := service.gateway.ReopenIssue(executionContext, organization, repositoryName, existingIssue.Number)
		if reopenError != nil {
			service.logger.Warn(
				issueRemediationFailedMessageConstant,
				zap.String(repositoryFieldNameConstant, repositoryName),
				zap.Error(reopenError),
			)
			return
		}
		auditResult.IssueAction = issueActionReopenedConstant
		return
	}

	createError := service.gateway.CreateIssue(
		executionContext,
		organization,
		repositoryName,
		complianceIssueTitleConstant,
		buildIssueBody(auditResult),
		complianceIssueLabels,
	)
	if createError != nil {
		service.logger.Warn(
			issueRemediationFailedMessageConstant,
			zap.String(repositoryFieldNameConstant, repositoryName),
			zap.Error(createError),
		)
		return
	}
	auditResult.IssueAction = issueActionCreatedConstant
}

func buildIssueBody(auditResult *RepositoryAuditResult) string {
	bodyBuilder := &strings.Builder{}
	bodyBuilder.WriteString("This repository is missing standard files or labels.\n")
	if len(auditResult.MissingFiles) > 0 {
		bodyBuilder.WriteString("\nMissing files:\n")
		for _, missingFile := range auditResult.MissingFiles {
			fmt.Fprintf(bodyBuilder, "- %s\n", missingFile)
		}
	}
	if len(auditResult.MissingLabels) > 0 {
		bodyBuilder.WriteString("\nMissing labels:\n")
		for _, missingLabel := range auditResult.MissingLabels {
			fmt.Fprintf(bodyBuilder, "- %s\n", missingLabel)
		}
	}
	return bodyBuilder.String()
}

// summarize computes the global summary, the most common missing items, and
// the recommendation list.
func (service *Service) summarize(report *Report, skippedArchived bool) {
	var filesScores []float64
	var labelsScores []float64
	var overallScores []float64
	missingItemCounts := map[string]int{}

	for _, organizationReport := range report.Organizations {
		for _, auditResult := range organizationReport.Repositories {
			report.Summary.TotalRepositories++
			if len(auditResult.AuditError) > 0 {
				report.Summary.FailedAudits++
			}
			if auditResult.OverallScore >= fullComplianceScoreConstant {
				report.Summary.FullyCompliantCount++
			}
			filesScores = append(filesScores, auditResult.FilesScore)
			labelsScores = append(labelsScores, auditResult.LabelsScore)
			overallScores = append(overallScores, auditResult.OverallScore)
			for _, missingFile := range auditResult.MissingFiles {
				missingItemCounts[fmt.Sprintf(missingFileItemTemplateConstant, missingFile)]++
			}
			for _, missingLabel := range auditResult.MissingLabels {
				missingItemCounts[fmt.Sprintf(missingLabelItemTemplateConstant, missingLabel)]++
			}
		}
	}

	report.Summary.AverageFilesScore = meanOrZero(filesScores)
	report.Summary.AverageLabelsScore = meanOrZero(labelsScores)
	report.Summary.AverageOverallScore = meanOrZero(overallScores)
	report.TopMissingItems = topMissingItems(missingItemCounts)

	if report.Summary.AverageFilesScore < recommendationScoreThresholdConstant {
		report.Recommendations = append(report.Recommendations, filesRecommendationConstant)
	}
	if report.Summary.AverageLabelsScore < recommendationScoreThresholdConstant {
		report.Recommendations = append(report.Recommendations, labelsRecommendationConstant)
	}
	if skippedArchived {
		report.Recommendations = append(report.Recommendations, archivedRecommendationConstant)
	}
}

func averageOverallScore(results []RepositoryAuditResult) float64 {
	scores := make([]float64, 0, len(results))
	for _, result := range results {
		scores = append(scores, result.OverallScore)
	}
	return meanOrZero(scores)
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	meanValue, meanError := stats.Mean(values)
	if meanError != nil {
		return 0
	}
	return meanValue
}

func topMissingItems(missingItemCounts map[string]int) []MissingItemCount {
	items := make([]MissingItemCount, 0, len(missingItemCounts))
	for item, count := range missingItemCounts {
		items = append(items, MissingItemCount{Item: item, Count: count})
	}
	sort.Slice(items, func(firstIndex int, secondIndex int) bool {
		if items[firstIndex].Count != items[secondIndex].Count {
			return items[firstIndex].Count > items[secondIndex].Count
		}
		return items[firstIndex].Item < items[secondIndex].Item
	})
	if len(items) > topMissingItemLimitConstant {
		items = items[:topMissingItemLimitConstant]
	}
	return items
}
