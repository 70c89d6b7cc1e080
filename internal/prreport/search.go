package prreport

import (
	"context"
	"errors"
	"fmt"

	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/jon-the-dev/repofleet/internal/githubcli"
)

const (
	graphQLExecutorNotConfiguredMessageConstant = "search client requires a GraphQL executor"
	searchQueryTemplateConstant                 = "type:pr state:open %s:%s"
	organizationSearchQualifierConstant         = "org"
	userSearchQualifierConstant                 = "user"
	searchQueryVariableNameConstant             = "searchQuery"
	pageSizeVariableNameConstant                = "pageSize"
	cursorVariableNameConstant                  = "cursor"
	searchPageSizeConstant                      = 100
	botAuthorTypeNameConstant                   = "Bot"
)

// ErrGraphQLExecutorNotConfigured indicates the search client was constructed
// without a GraphQL executor.
var ErrGraphQLExecutorNotConfigured = errors.New(graphQLExecutorNotConfiguredMessageConstant)

// GraphQLExecutor runs one GraphQL query against the GitHub v4 API.
type GraphQLExecutor interface {
	Query(executionContext context.Context, query any, variables map[string]any) error
}

// NewGitHubGraphQLExecutor builds a githubv4 client authenticated with the
// provided token.
func NewGitHubGraphQLExecutor(executionContext context.Context, token string) *githubv4.Client {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(executionContext, tokenSource)
	return githubv4.NewClient(httpClient)
}

// SearchClient fetches open pull requests through the GraphQL search API.
type SearchClient struct {
	executor GraphQLExecutor
}

// NewSearchClient validates dependencies and constructs a SearchClient.
func NewSearchClient(executor GraphQLExecutor) (*SearchClient, error) {
	if executor == nil {
		return nil, ErrGraphQLExecutorNotConfigured
	}
	return &SearchClient{executor: executor}, nil
}

type searchPullRequestNode struct {
	Number    githubv4.Int
	Title     githubv4.String
	URL       githubv4.String
	IsDraft   githubv4.Boolean
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	Author    struct {
		Login    githubv4.String
		TypeName githubv4.String `graphql:"__typename"`
	}
	Repository struct {
		NameWithOwner githubv4.String
	}
}

type openPullRequestSearchQuery struct {
	Search struct {
		IssueCount githubv4.Int
		PageInfo   struct {
			EndCursor   githubv4.String
			HasNextPage githubv4.Boolean
		}
		Nodes []struct {
			PullRequest searchPullRequestNode `graphql:"... on PullRequest"`
		}
	} `graphql:"search(query: $searchQuery, type: ISSUE, first: $pageSize, after: $cursor)"`
}

// SearchOpenPullRequests pages through the search results for one owner and
// returns every open pull request it finds.
func (client *SearchClient) SearchOpenPullRequests(executionContext context.Context, owner string, ownerType githubcli.OwnerType) ([]githubcli.PullRequestSummary, error) {
	searchQualifier := organizationSearchQualifierConstant
	if ownerType == githubcli.UserOwnerType {
		searchQualifier = userSearchQualifierConstant
	}

	variables := map[string]any{
		searchQueryVariableNameConstant: githubv4.String(fmt.Sprintf(searchQueryTemplateConstant, searchQualifier, owner)),
		pageSizeVariableNameConstant:    githubv4.Int(searchPageSizeConstant),
		cursorVariableNameConstant:      (*githubv4.String)(nil),
	}

	var pullRequests []githubcli.PullRequestSummary
	for {
		var query openPullRequestSearchQuery
		queryError := client.executor.Query(executionContext, &query, variables)
		if queryError != nil {
			return nil, queryError
		}

		for _, node := range query.Search.Nodes {
			pullRequests = append(pullRequests, toSummary(node.PullRequest))
		}

		if !bool(query.Search.PageInfo.HasNextPage) {
			break
		}
		variables[cursorVariableNameConstant] = githubv4.NewString(query.Search.PageInfo.EndCursor)
	}

	return pullRequests, nil
}

func toSummary(node searchPullRequestNode) githubcli.PullRequestSummary {
	return githubcli.PullRequestSummary{
		Repository: string(node.Repository.NameWithOwner),
		Number:     int(node.Number),
		Title:      string(node.Title),
		URL:        string(node.URL),
		Author: githubcli.PullRequestAuthor{
			Login: string(node.Author.Login),
			IsBot: string(node.Author.TypeName) == botAuthorTypeNameConstant,
		},
		IsDraft:   bool(node.IsDraft),
		CreatedAt: node.CreatedAt.Time,
		UpdatedAt: node.UpdatedAt.Time,
	}
}
