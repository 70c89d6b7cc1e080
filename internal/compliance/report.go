package compliance

// RepositoryAuditResult captures the audit outcome for one repository.
type RepositoryAuditResult struct {
	Repository    string            `json:"repository"`
	Organization  string            `json:"organization"`
	Private       bool              `json:"private"`
	Files         []FileCheckResult `json:"files"`
	MissingFiles  []string          `json:"missing_files"`
	PresentLabels []string          `json:"present_labels"`
	MissingLabels []string          `json:"missing_labels"`
	CreatedLabels []string          `json:"created_labels,omitempty"`
	IssueAction   string            `json:"issue_action,omitempty"`
	FilesScore    float64           `json:"files_score"`
	LabelsScore   float64           `json:"labels_score"`
	OverallScore  float64           `json:"overall_score"`
	AuditError    string            `json:"audit_error,omitempty"`
}

// OrganizationReport groups audit results per organization.
type OrganizationReport struct {
	Organization        string                  `json:"organization"`
	RepositoryCount     int                     `json:"repository_count"`
	AverageOverallScore float64                 `json:"average_overall_score"`
	Repositories        []RepositoryAuditResult `json:"repositories"`
}

// GlobalSummary aggregates scores across every audited repository.
type GlobalSummary struct {
	TotalRepositories   int     `json:"total_repositories"`
	FailedAudits        int     `json:"failed_audits"`
	FullyCompliantCount int     `json:"fully_compliant_count"`
	AverageFilesScore   float64 `json:"average_files_score"`
	AverageLabelsScore  float64 `json:"average_labels_score"`
	AverageOverallScore float64 `json:"average_overall_score"`
}

// MissingItemCount pairs a missing standard item with its occurrence count.
type MissingItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// Report is the JSON document the audit writes.
type Report struct {
	GeneratedAt     string               `json:"generated_at"`
	Organizations   []OrganizationReport `json:"organizations"`
	Summary         GlobalSummary        `json:"summary"`
	TopMissingItems []MissingItemCount   `json:"top_missing_items"`
	Recommendations []string             `json:"recommendations"`
}
