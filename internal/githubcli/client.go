package githubcli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jon-the-dev/repofleet/internal/execshell"
)

const (
	repoSubcommandConstant                    = "repo"
	listSubcommandConstant                    = "list"
	apiSubcommandConstant                     = "api"
	jsonFlagConstant                          = "--json"
	limitFlagConstant                         = "--limit"
	organizationFieldNameConstant             = "organization"
	repositoryFieldNameConstant               = "repository"
	ownerFieldNameConstant                    = "owner"
	requiredValueMessageConstant              = "value required"
	repositoryListJSONFieldsConstant          = "name,nameWithOwner,description,url,updatedAt,isPrivate"
	repositoryListDefaultLimitConstant        = 100
	workflowsEndpointTemplateConstant         = "repos/%s/actions/workflows"
	latestRunEndpointTemplateConstant         = "repos/%s/actions/runs?per_page=1"
	openIssuesEndpointTemplateConstant        = "repos/%s/issues?state=open&per_page=%d"
	openIssuesDefaultLimitConstant            = 50
	listRepositoriesOperationNameConstant     = OperationName("ListOrganizationRepositories")
	countWorkflowsOperationNameConstant       = OperationName("CountWorkflows")
	latestWorkflowRunOperationNameConstant    = OperationName("GetLatestWorkflowRun")
	listOpenIssuesOperationNameConstant       = OperationName("ListOpenIssues")
	shortCallTimeoutDurationConstant          = 10 * time.Second
	listingCallTimeoutDurationConstant        = 30 * time.Second
	mutatingCallTimeoutDurationConstant       = 60 * time.Second
)

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// ListOrganizationRepositories enumerates repositories of an organization using gh repo list.
func (client *Client) ListOrganizationRepositories(executionContext context.Context, organization string, limit int) ([]RepositorySummary, error) {
	organizationName := strings.TrimSpace(organization)
	if len(organizationName) == 0 {
		return nil, InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}

	resultLimit := limit
	if resultLimit <= 0 {
		resultLimit = repositoryListDefaultLimitConstant
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			listSubcommandConstant,
			organizationName,
			limitFlagConstant,
			strconv.Itoa(resultLimit),
			jsonFlagConstant,
			repositoryListJSONFieldsConstant,
		},
		Timeout: listingCallTimeoutDurationConstant,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listRepositoriesOperationNameConstant, Cause: executionError}
	}

	var repositories []RepositorySummary
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &repositories)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listRepositoriesOperationNameConstant, Cause: decodingError}
	}

	return repositories, nil
}

// CountWorkflows returns the number of workflow definitions configured for a repository.
func (client *Client) CountWorkflows(executionContext context.Context, repository string) (int, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return 0, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(workflowsEndpointTemplateConstant, repositoryIdentifier),
		},
		Timeout: shortCallTimeoutDurationConstant,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return 0, OperationError{Operation: countWorkflowsOperationNameConstant, Cause: executionError}
	}

	var response struct {
		TotalCount int `json:"total_count"`
	}
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return 0, ResponseDecodingError{Operation: countWorkflowsOperationNameConstant, Cause: decodingError}
	}

	return response.TotalCount, nil
}

// GetLatestWorkflowRun resolves the most recent workflow run for a repository.
// A nil run with a nil error means the repository has no recorded runs.
func (client *Client) GetLatestWorkflowRun(executionContext context.Context, repository string) (*WorkflowRun, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(latestRunEndpointTemplateConstant, repositoryIdentifier),
		},
		Timeout: shortCallTimeoutDurationConstant,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: latestWorkflowRunOperationNameConstant, Cause: executionError}
	}

	var response struct {
		WorkflowRuns []struct {
			Name       string    `json:"name"`
			Status     string    `json:"status"`
			Conclusion string    `json:"conclusion"`
			HTMLURL    string    `json:"html_url"`
			UpdatedAt  time.Time `json:"updated_at"`
		} `json:"workflow_runs"`
	}
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: latestWorkflowRunOperationNameConstant, Cause: decodingError}
	}

	if len(response.WorkflowRuns) == 0 {
		return nil, nil
	}

	latestRun := response.WorkflowRuns[0]
	return &WorkflowRun{
		Name:       latestRun.Name,
		Status:     latestRun.Status,
		Conclusion: latestRun.Conclusion,
		URL:        latestRun.HTMLURL,
		UpdatedAt:  latestRun.UpdatedAt,
	}, nil
}

// ListOpenIssues enumerates open issues for a repository. The underlying
// endpoint also returns pull requests, matching the counts surfaced upstream.
func (client *Client) ListOpenIssues(executionContext context.Context, repository string, limit int) ([]Issue, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	resultLimit := limit
	if resultLimit <= 0 {
		resultLimit = openIssuesDefaultLimitConstant
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(openIssuesEndpointTemplateConstant, repositoryIdentifier, resultLimit),
		},
		Timeout: listingCallTimeoutDurationConstant,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listOpenIssuesOperationNameConstant, Cause: executionError}
	}

	var response []struct {
		Number    int          `json:"number"`
		Title     string       `json:"title"`
		Body      string       `json:"body"`
		HTMLURL   string       `json:"html_url"`
		CreatedAt time.Time    `json:"created_at"`
		User      struct {
			Login string `json:"login"`
		} `json:"user"`
		Labels []IssueLabel `json:"labels"`
	}
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listOpenIssuesOperationNameConstant, Cause: decodingError}
	}

	issues := make([]Issue, 0, len(response))
	for _, issueEntry := range response {
		labelNames := make([]string, 0, len(issueEntry.Labels))
		for _, label := range issueEntry.Labels {
			labelNames = append(labelNames, label.Name)
		}
		issues = append(issues, Issue{
			Number:    issueEntry.Number,
			Title:     issueEntry.Title,
			Body:      issueEntry.Body,
			URL:       issueEntry.HTMLURL,
			Author:    issueEntry.User.Login,
			CreatedAt: issueEntry.CreatedAt,
			Labels:    labelNames,
		})
	}

	return issues, nil
}
