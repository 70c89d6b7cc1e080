package githubcli

import "time"

// RepositorySummary contains the repository fields surfaced by gh repo list.
type RepositorySummary struct {
	Name          string    `json:"name"`
	NameWithOwner string    `json:"nameWithOwner"`
	Description   string    `json:"description"`
	URL           string    `json:"url"`
	UpdatedAt     time.Time `json:"updatedAt"`
	IsPrivate     bool      `json:"isPrivate"`
}

// WorkflowRun captures the latest workflow run recorded for a repository.
type WorkflowRun struct {
	Name       string
	Status     string
	Conclusion string
	URL        string
	UpdatedAt  time.Time
}

// IssueLabel names a label attached to an issue.
type IssueLabel struct {
	Name string `json:"name"`
}

// Issue captures an open issue returned by the repository issues endpoint.
type Issue struct {
	Number    int
	Title     string
	Body      string
	URL       string
	Author    string
	CreatedAt time.Time
	Labels    []string
}

// PullRequestAuthor identifies the login that opened a pull request.
type PullRequestAuthor struct {
	Login string `json:"login"`
	IsBot bool   `json:"is_bot"`
}

// PullRequestSummary contains the pull request fields shared by search and per-repo listings.
type PullRequestSummary struct {
	Repository string
	Number     int
	Title      string
	URL        string
	Author     PullRequestAuthor
	IsDraft    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CheckResult captures one entry of a pull request status-check rollup.
type CheckResult struct {
	Name       string `json:"name"`
	Context    string `json:"context"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	State      string `json:"state"`
}

// DisplayName resolves the human-facing identifier of a rollup entry.
func (check CheckResult) DisplayName() string {
	if len(check.Name) > 0 {
		return check.Name
	}
	return check.Context
}

// PullRequestMergeStatus aggregates mergeability details for one pull request.
type PullRequestMergeStatus struct {
	Mergeable        string        `json:"mergeable"`
	MergeStateStatus string        `json:"mergeStateStatus"`
	Checks           []CheckResult `json:"statusCheckRollup"`
}

// MergeOptions configures MergePullRequest invocations.
type MergeOptions struct {
	Squash       bool
	DeleteBranch bool
	Auto         bool
}

// QuotaWindow describes the state of one rate-limited API class.
type QuotaWindow struct {
	Limit     int
	Remaining int
	Used      int
	ResetAt   time.Time
}

// RateLimitSnapshot captures the core and search quota windows.
type RateLimitSnapshot struct {
	Core   QuotaWindow
	Search QuotaWindow
}
