package githubcli

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jon-the-dev/repofleet/internal/execshell"
)

const (
	pullRequestSubcommandConstant            = "pr"
	searchSubcommandConstant                 = "search"
	pullRequestsSearchTargetConstant         = "prs"
	viewSubcommandConstant                   = "view"
	mergeSubcommandConstant                  = "merge"
	commentSubcommandConstant                = "comment"
	repoFlagConstant                         = "--repo"
	stateFlagConstant                        = "--state"
	ownerFlagConstant                        = "--owner"
	bodyFlagConstant                         = "--body"
	squashFlagConstant                       = "--squash"
	deleteBranchFlagConstant                 = "--delete-branch"
	autoFlagConstant                         = "--auto"
	openStateValueConstant                   = "open"
	pullRequestNumberFieldNameConstant       = "pull_request_number"
	commentBodyFieldNameConstant             = "comment_body"
	positiveValueMessageConstant             = "positive value required"
	searchPullRequestsJSONFieldsConstant     = "number,title,url,author,repository,createdAt,updatedAt,isDraft"
	listPullRequestsJSONFieldsConstant       = "number,title,url,author,createdAt,updatedAt,isDraft"
	mergeStatusJSONFieldsConstant            = "mergeable,mergeStateStatus,statusCheckRollup"
	pullRequestSearchDefaultLimitConstant    = 100
	searchPullRequestsOperationNameConstant  = OperationName("SearchOpenPullRequests")
	listPullRequestsOperationNameConstant    = OperationName("ListOpenPullRequests")
	mergeStatusOperationNameConstant         = OperationName("ViewPullRequestMergeStatus")
	mergePullRequestOperationNameConstant    = OperationName("MergePullRequest")
	commentPullRequestOperationNameConstant  = OperationName("CommentOnPullRequest")
)

type pullRequestListEntry struct {
	Number    int               `json:"number"`
	Title     string            `json:"title"`
	URL       string            `json:"url"`
	Author    PullRequestAuthor `json:"author"`
	IsDraft   bool              `json:"isDraft"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Repository struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
}

func (entry pullRequestListEntry) toSummary(fallbackRepository string) PullRequestSummary {
	repositoryName := entry.Repository.NameWithOwner
	if len(repositoryName) == 0 {
		repositoryName = fallbackRepository
	}
	return PullRequestSummary{
		Repository: repositoryName,
		Number:     entry.Number,
		Title:      entry.Title,
		URL:        entry.URL,
		Author:     entry.Author,
		IsDraft:    entry.IsDraft,
		CreatedAt:  entry.CreatedAt,
		UpdatedAt:  entry.UpdatedAt,
	}
}

// SearchOpenPullRequests enumerates open pull requests across an owner using gh search prs.
func (client *Client) SearchOpenPullRequests(executionContext context.Context, owner string, limit int) ([]PullRequestSummary, error) {
	ownerName := strings.TrimSpace(owner)
	if len(ownerName) == 0 {
		return nil, InvalidInputError{FieldName: ownerFieldNameConstant, Message: requiredValueMessageConstant}
	}

	resultLimit := limit
	if resultLimit <= 0 {
		resultLimit = pullRequestSearchDefaultLimitConstant
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			searchSubcommandConstant,
			pullRequestsSearchTargetConstant,
			ownerFlagConstant,
			ownerName,
			stateFlagConstant,
			openStateValueConstant,
			limitFlagConstant,
			strconv.Itoa(resultLimit),
			jsonFlagConstant,
			searchPullRequestsJSONFieldsConstant,
		},
		Timeout: listingCallTimeoutDurationConstant,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: searchPullRequestsOperationNameConstant, Cause: executionError}
	}

	var entries []pullRequestListEntry
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &entries)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: searchPullRequestsOperationNameConstant, Cause: decodingError}
	}

	summaries := make([]PullRequestSummary, 0, len(entries))
	for _, entry := range entries {
		summaries = append(summaries, entry.toSummary(""))
	}
	return summaries, nil
}

// ListOpenPullRequests enumerates open pull requests for one repository using gh pr list.
func (client *Client) ListOpenPullRequests(executionContext context.Context, repository string, limit int) ([]PullRequestSummary, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	resultLimit := limit
	if resultLimit <= 0 {
		resultLimit = pullRequestSearchDefaultLimitConstant
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			pullRequestSubcommandConstant,
			listSubcommandConstant,
			repoFlagConstant,
			repositoryIdentifier,
			stateFlagConstant,
			openStateValueConstant,
			limitFlagConstant,
			strconv.Itoa(resultLimit),
			jsonFlagConstant,
			listPullRequestsJSONFieldsConstant,
		},
		Timeout: listingCallTimeoutDurationConstant,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listPullRequestsOperationNameConstant, Cause: executionError}
	}

	var entries []pullRequestListEntry
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &entries)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listPullRequestsOperationNameConstant, Cause: decodingError}
	}

	summaries := make([]PullRequestSummary, 0, len(entries))
	for _, entry := range entries {
		summaries = append(summaries, entry.toSummary(repositoryIdentifier))
	}
	return summaries, nil
}

// ViewPullRequestMergeStatus fetches mergeability and the status-check rollup for one pull request.
func (client *Client) ViewPullRequestMergeStatus(executionContext context.Context, repository string, pullRequestNumber int) (PullRequestMergeStatus, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return PullRequestMergeStatus{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if pullRequestNumber <= 0 {
		return PullRequestMergeStatus{}, InvalidInputError{FieldName: pullRequestNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			pullRequestSubcommandConstant,
			viewSubcommandConstant,
			strconv.Itoa(pullRequestNumber),
			repoFlagConstant,
			repositoryIdentifier,
			jsonFlagConstant,
			mergeStatusJSONFieldsConstant,
		},
		Timeout: shortCallTimeoutDurationConstant,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return PullRequestMergeStatus{}, OperationError{Operation: mergeStatusOperationNameConstant, Cause: executionError}
	}

	var mergeStatus PullRequestMergeStatus
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &mergeStatus)
	if decodingError != nil {
		return PullRequestMergeStatus{}, ResponseDecodingError{Operation: mergeStatusOperationNameConstant, Cause: decodingError}
	}

	return mergeStatus, nil
}

// MergePullRequest merges one pull request using gh pr merge.
func (client *Client) MergePullRequest(executionContext context.Context, repository string, pullRequestNumber int, options MergeOptions) error {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if pullRequestNumber <= 0 {
		return InvalidInputError{FieldName: pullRequestNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}

	commandArguments := []string{
		pullRequestSubcommandConstant,
		mergeSubcommandConstant,
		strconv.Itoa(pullRequestNumber),
		repoFlagConstant,
		repositoryIdentifier,
	}
	if options.Squash {
		commandArguments = append(commandArguments, squashFlagConstant)
	}
	if options.DeleteBranch {
		commandArguments = append(commandArguments, deleteBranchFlagConstant)
	}
	if options.Auto {
		commandArguments = append(commandArguments, autoFlagConstant)
	}

	commandDetails := execshell.CommandDetails{
		Arguments: commandArguments,
		Timeout:   mutatingCallTimeoutDurationConstant,
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: mergePullRequestOperationNameConstant, Cause: executionError}
	}
	return nil
}

// CommentOnPullRequest posts a comment on one pull request using gh pr comment.
func (client *Client) CommentOnPullRequest(executionContext context.Context, repository string, pullRequestNumber int, commentBody string) error {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if pullRequestNumber <= 0 {
		return InvalidInputError{FieldName: pullRequestNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}
	if len(strings.TrimSpace(commentBody)) == 0 {
		return InvalidInputError{FieldName: commentBodyFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			pullRequestSubcommandConstant,
			commentSubcommandConstant,
			strconv.Itoa(pullRequestNumber),
			repoFlagConstant,
			repositoryIdentifier,
			bodyFlagConstant,
			commentBody,
		},
		Timeout: mutatingCallTimeoutDurationConstant,
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: commentPullRequestOperationNameConstant, Cause: executionError}
	}
	return nil
}
