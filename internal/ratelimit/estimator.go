package ratelimit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/githubcli"
)

const (
	repositoryPageSizeConstant              = 100
	fullFirstPageMultiplierConstant         = 3
	classifierNotConfiguredMessageConstant  = "rate limit estimator requires an owner classifier"
	loggerNotConfiguredMessageConstant      = "rate limit estimator requires a logger"
	ownerEstimatedMessageConstant           = "estimated owner request volume"
	ownerFieldNameConstant                  = "owner"
	ownerTypeFieldNameConstant              = "owner_type"
	estimatedRepositoriesFieldNameConstant  = "estimated_repositories"
	estimatedCoreRequestsFieldNameConstant  = "estimated_core_requests"
)

var (
	// ErrClassifierNotConfigured indicates the estimator was constructed without a classifier.
	ErrClassifierNotConfigured = errors.New(classifierNotConfiguredMessageConstant)
	// ErrLoggerNotConfigured indicates the estimator was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
)

// OwnerClassifier resolves owner types and repository pages for estimation.
type OwnerClassifier interface {
	ClassifyOwner(executionContext context.Context, owner string) (githubcli.OwnerType, error)
	ListOwnerRepositoryPage(executionContext context.Context, ownerType githubcli.OwnerType, owner string, pageNumber int) ([]string, error)
}

// RequestEstimate is a best-effort projection of the API calls a fetch will need.
type RequestEstimate struct {
	SearchRequests         int
	ClassificationRequests int
	RepositoryPageRequests int
	PullRequestRequests    int
	EstimatedRepositories  int
}

// CoreRequests totals the requests charged against the core quota window.
func (estimate RequestEstimate) CoreRequests() int {
	return estimate.ClassificationRequests + estimate.RepositoryPageRequests + estimate.PullRequestRequests
}

// TotalRequests totals every projected request across both quota windows.
func (estimate RequestEstimate) TotalRequests() int {
	return estimate.CoreRequests() + estimate.SearchRequests
}

// Add merges another estimate into this one and returns the combined value.
func (estimate RequestEstimate) Add(other RequestEstimate) RequestEstimate {
	return RequestEstimate{
		SearchRequests:         estimate.SearchRequests + other.SearchRequests,
		ClassificationRequests: estimate.ClassificationRequests + other.ClassificationRequests,
		RepositoryPageRequests: estimate.RepositoryPageRequests + other.RepositoryPageRequests,
		PullRequestRequests:    estimate.PullRequestRequests + other.PullRequestRequests,
		EstimatedRepositories:  estimate.EstimatedRepositories + other.EstimatedRepositories,
	}
}

// OwnerEstimate pairs an owner with its classification and projected request volume.
type OwnerEstimate struct {
	Owner     string
	OwnerType githubcli.OwnerType
	Estimate  RequestEstimate
}

// Estimator projects request volume per owner ahead of a high-volume fetch.
type Estimator struct {
	classifier OwnerClassifier
	logger     *zap.Logger
}

// NewEstimator validates dependencies and constructs an Estimator.
func NewEstimator(classifier OwnerClassifier, logger *zap.Logger) (*Estimator, error) {
	if classifier == nil {
		return nil, ErrClassifierNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &Estimator{classifier: classifier, logger: logger}, nil
}

// EstimateOwner projects request volume for one owner. The repository count is
// taken from the first listing page; a full first page triples the estimate to
// cover unknown pagination depth. This is a heuristic, not an accounting.
func (estimator *Estimator) EstimateOwner(executionContext context.Context, owner string) (OwnerEstimate, error) {
	ownerType, classificationError := estimator.classifier.ClassifyOwner(executionContext, owner)
	if classificationError != nil {
		return OwnerEstimate{}, classificationError
	}

	firstPageRepositories, listingError := estimator.classifier.ListOwnerRepositoryPage(executionContext, ownerType, owner, 1)
	if listingError != nil {
		return OwnerEstimate{}, listingError
	}

	estimatedRepositories := len(firstPageRepositories)
	if estimatedRepositories == repositoryPageSizeConstant {
		estimatedRepositories *= fullFirstPageMultiplierConstant
	}

	ownerEstimate := OwnerEstimate{
		Owner:     owner,
		OwnerType: ownerType,
		Estimate: RequestEstimate{
			SearchRequests:         1,
			ClassificationRequests: 1,
			RepositoryPageRequests: pageCount(estimatedRepositories),
			PullRequestRequests:    estimatedRepositories,
			EstimatedRepositories:  estimatedRepositories,
		},
	}

	estimator.logger.Debug(
		ownerEstimatedMessageConstant,
		zap.String(ownerFieldNameConstant, owner),
		zap.String(ownerTypeFieldNameConstant, string(ownerType)),
		zap.Int(estimatedRepositoriesFieldNameConstant, estimatedRepositories),
		zap.Int(estimatedCoreRequestsFieldNameConstant, ownerEstimate.Estimate.CoreRequests()),
	)

	return ownerEstimate, nil
}

// EstimateOwners projects and combines request volume across owners. An owner
// whose estimate fails contributes nothing; the failure is returned alongside
// the partial aggregate.
func (estimator *Estimator) EstimateOwners(executionContext context.Context, owners []string) (RequestEstimate, []error) {
	var aggregateEstimate RequestEstimate
	var estimationFailures []error
	for _, owner := range owners {
		ownerEstimate, estimationError := estimator.EstimateOwner(executionContext, owner)
		if estimationError != nil {
			estimationFailures = append(estimationFailures, estimationError)
			continue
		}
		aggregateEstimate = aggregateEstimate.Add(ownerEstimate.Estimate)
	}
	return aggregateEstimate, estimationFailures
}

func pageCount(repositoryCount int) int {
	if repositoryCount == 0 {
		return 1
	}
	return (repositoryCount + repositoryPageSizeConstant - 1) / repositoryPageSizeConstant
}
