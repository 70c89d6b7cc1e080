package compliance

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

const (
	issueSearchQueryTemplateConstant = "repo:%s/%s in:title %q type:issue"
	issueStateOpenConstant           = "open"
	listPageSizeConstant             = 100
)

// Repository carries the repository attributes the audit needs.
type Repository struct {
	Name     string
	FullName string
	Archived bool
	Private  bool
}

// IssueReference identifies an existing issue and its state.
type IssueReference struct {
	Number int
	State  string
}

// RepositoryGateway exposes the GitHub REST operations the audit workflow
// depends on.
type RepositoryGateway interface {
	ListOrganizations(executionContext context.Context) ([]string, error)
	ListRepositories(executionContext context.Context, organization string) ([]Repository, error)
	FileExists(executionContext context.Context, owner string, repository string, filePath string) (bool, error)
	ListLabelNames(executionContext context.Context, owner string, repository string) ([]string, error)
	CreateLabel(executionContext context.Context, owner string, repository string, label LabelStandard) (bool, error)
	FindIssueByTitle(executionContext context.Context, owner string, repository string, title string) (*IssueReference, error)
	CreateIssue(executionContext context.Context, owner string, repository string, title string, body string, labels []string) error
	ReopenIssue(executionContext context.Context, owner string, repository string, issueNumber int) error
}

// RESTGateway implements RepositoryGateway on the GitHub REST API with a
// rate-limit aware transport.
type RESTGateway struct {
	client *github.Client
}

// NewRESTGateway builds a gateway authenticated with the provided token. The
// HTTP transport waits out secondary rate limits instead of failing.
func NewRESTGateway(executionContext context.Context, token string) (*RESTGateway, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	oauthClient := oauth2.NewClient(executionContext, tokenSource)

	rateLimitedClient, transportError := github_ratelimit.NewRateLimitWaiterClient(oauthClient.Transport)
	if transportError != nil {
		return nil, transportError
	}

	return &RESTGateway{client: github.NewClient(rateLimitedClient)}, nil
}

// ListOrganizations returns the login of every organization the token can see.
func (gateway *RESTGateway) ListOrganizations(executionContext context.Context) ([]string, error) {
	var organizations []string
	listOptions := &github.ListOptions{PerPage: listPageSizeConstant}
	for {
		pageOrganizations, response, listError := gateway.client.Organizations.List(executionContext, "", listOptions)
		if listError != nil {
			return nil, listError
		}
		for _, organization := range pageOrganizations {
			organizations = append(organizations, organization.GetLogin())
		}
		if response.NextPage == 0 {
			return organizations, nil
		}
		listOptions.Page = response.NextPage
	}
}

// ListRepositories returns every repository of the organization.
func (gateway *RESTGateway) ListRepositories(executionContext context.Context, organization string) ([]Repository, error) {
	var repositories []Repository
	listOptions := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: listPageSizeConstant}}
	for {
		pageRepositories, response, listError := gateway.client.Repositories.ListByOrg(executionContext, organization, listOptions)
		if listError != nil {
			return nil, listError
		}
		for _, repository := range pageRepositories {
			repositories = append(repositories, Repository{
				Name:     repository.GetName(),
				FullName: repository.GetFullName(),
				Archived: repository.GetArchived(),
				Private:  repository.GetPrivate(),
			})
		}
		if response.NextPage == 0 {
			return repositories, nil
		}
		listOptions.Page = response.NextPage
	}
}

// FileExists probes one path on the default branch. A 404 is a clean miss.
func (gateway *RESTGateway) FileExists(executionContext context.Context, owner string, repository string, filePath string) (bool, error) {
	_, _, response, contentsError := gateway.client.Repositories.GetContents(executionContext, owner, repository, filePath, nil)
	if contentsError == nil {
		return true, nil
	}
	if response != nil && response.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, contentsError
}

// ListLabelNames returns the names of every label defined on the repository.
func (gateway *RESTGateway) ListLabelNames(executionContext context.Context, owner string, repository string) ([]string, error) {
	var labelNames []string
	listOptions := &github.ListOptions{PerPage: listPageSizeConstant}
	for {
		pageLabels, response, listError := gateway.client.Issues.ListLabels(executionContext, owner, repository, listOptions)
		if listError != nil {
			return nil, listError
		}
		for _, label := range pageLabels {
			labelNames = append(labelNames, label.GetName())
		}
		if response.NextPage == 0 {
			return labelNames, nil
		}
		listOptions.Page = response.NextPage
	}
}

// CreateLabel creates one standard label. A 422 means the label already
// exists, which satisfies the standard without counting as a creation.
func (gateway *RESTGateway) CreateLabel(executionContext context.Context, owner string, repository string, label LabelStandard) (bool, error) {
	_, response, createError := gateway.client.Issues.CreateLabel(executionContext, owner, repository, &github.Label{
		Name:        github.String(label.Name),
		Color:       github.String(label.Color),
		Description: github.String(label.Description),
	})
	if createError == nil {
		return true, nil
	}
	if response != nil && response.StatusCode == http.StatusUnprocessableEntity {
		return false, nil
	}
	return false, createError
}

// FindIssueByTitle searches the repository for an issue whose title matches
// exactly. Open issues are preferred over closed ones.
func (gateway *RESTGateway) FindIssueByTitle(executionContext context.Context, owner string, repository string, title string) (*IssueReference, error) {
	searchQuery := fmt.Sprintf(issueSearchQueryTemplateConstant, owner, repository, title)
	searchResult, _, searchError := gateway.client.Search.Issues(executionContext, searchQuery, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: listPageSizeConstant},
	})
	if searchError != nil {
		return nil, searchError
	}

	var closedMatch *IssueReference
	for _, issue := range searchResult.Issues {
		if !strings.EqualFold(issue.GetTitle(), title) {
			continue
		}
		reference := &IssueReference{Number: issue.GetNumber(), State: issue.GetState()}
		if reference.State == issueStateOpenConstant {
			return reference, nil
		}
		if closedMatch == nil {
			closedMatch = reference
		}
	}
	return closedMatch, nil
}

// CreateIssue opens a new issue with the provided title, body, and labels.
func (gateway *RESTGateway) CreateIssue(executionContext context.Context, owner string, repository string, title string, body string, labels []string) error {
	_, _, createError := gateway.client.Issues.Create(executionContext, owner, repository, &github.IssueRequest{
		Title:  github.String(title),
		Body:   github.String(body),
		Labels: &labels,
	})
	return createError
}

// ReopenIssue flips a closed issue back to open.
func (gateway *RESTGateway) ReopenIssue(executionContext context.Context, owner string, repository string, issueNumber int) error {
	openState := issueStateOpenConstant
	_, _, editError := gateway.client.Issues.Edit(executionContext, owner, repository, issueNumber, &github.IssueRequest{
		State: &openState,
	})
	return editError
}
