package dashboard

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"
)

const (
	organizationPaletteSizeConstant  = 8
	issueBodyPreviewLimitConstant    = 300
	issuePreviewCountLimitConstant   = 10
	reportTimestampLayoutConstant    = "2006-01-02 15:04 MST"
	unknownAgeLabelConstant          = "unknown"
	todayAgeLabelConstant            = "today"
	dayAgeTemplateConstant           = "%dd ago"
	monthAgeTemplateConstant         = "%dmo ago"
	yearAgeTemplateConstant          = "%dy ago"
	daysPerMonthApproximationConstant = 30
	daysPerYearApproximationConstant  = 365
	privateVisibilityLabelConstant   = "private"
	publicVisibilityLabelConstant    = "public"
	truncationSuffixConstant         = "..."
	reportTemplateNameConstant       = "dashboard"
)

var workflowStateLabels = map[WorkflowState]string{
	WorkflowStateSuccess:     "passing",
	WorkflowStateFailure:     "failing",
	WorkflowStateCancelled:   "cancelled",
	WorkflowStateRunning:     "running",
	WorkflowStateNoRuns:      "no runs",
	WorkflowStateNoWorkflows: "no CI",
	WorkflowStateSkipped:     "skipped",
	WorkflowStateUnknown:     "unknown",
}

// ReportRenderer transforms repository records into the self-contained HTML report.
type ReportRenderer struct {
	clock    Clock
	template *template.Template
}

// NewReportRenderer constructs a renderer bound to the provided clock.
func NewReportRenderer(clock Clock) *ReportRenderer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReportRenderer{
		clock:    clock,
		template: template.Must(template.New(reportTemplateNameConstant).Parse(reportTemplateText)),
	}
}

type reportIssue struct {
	Number      int
	Title       string
	URL         string
	Author      string
	Age         string
	Labels      []string
	BodyPreview string
}

type reportRow struct {
	Organization  string
	PaletteIndex  int
	NameWithOwner string
	Description   string
	URL           string
	Visibility    string
	UpdatedAge    string
	CIState       string
	CILabel       string
	CIURL         string
	WorkflowCount int
	IssueCount    int
	Issues        []reportIssue
}

type reportData struct {
	GeneratedAt   string
	Statistics    Statistics
	Organizations []string
	Rows          []reportRow
}

// Render produces the HTML document for the provided records and statistics.
func (renderer *ReportRenderer) Render(records []*RepositoryRecord, statistics Statistics) (string, error) {
	generationTime := renderer.clock.Now()

	organizationNames := collectOrganizationNames(records)
	paletteIndexes := make(map[string]int, len(organizationNames))
	for organizationIndex, organizationName := range organizationNames {
		paletteIndexes[organizationName] = organizationIndex % organizationPaletteSizeConstant
	}

	rows := make([]reportRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, renderer.buildRow(record, paletteIndexes[record.Organization], generationTime))
	}

	data := reportData{
		GeneratedAt:   generationTime.Format(reportTimestampLayoutConstant),
		Statistics:    statistics,
		Organizations: organizationNames,
		Rows:          rows,
	}

	var renderedReport strings.Builder
	executionError := renderer.template.Execute(&renderedReport, data)
	if executionError != nil {
		return "", executionError
	}
	return renderedReport.String(), nil
}

func (renderer *ReportRenderer) buildRow(record *RepositoryRecord, paletteIndex int, generationTime time.Time) reportRow {
	visibility := publicVisibilityLabelConstant
	if record.Summary.IsPrivate {
		visibility = privateVisibilityLabelConstant
	}

	issues := make([]reportIssue, 0, len(record.Issues.Issues))
	for issueIndex, issue := range record.Issues.Issues {
		if issueIndex >= issuePreviewCountLimitConstant {
			break
		}
		issues = append(issues, reportIssue{
			Number:      issue.Number,
			Title:       issue.Title,
			URL:         issue.URL,
			Author:      issue.Author,
			Age:         formatRelativeAge(generationTime, issue.CreatedAt),
			Labels:      issue.Labels,
			BodyPreview: truncateText(issue.Body, issueBodyPreviewLimitConstant),
		})
	}

	return reportRow{
		Organization:  record.Organization,
		PaletteIndex:  paletteIndex,
		NameWithOwner: record.Summary.NameWithOwner,
		Description:   record.Summary.Description,
		URL:           record.Summary.URL,
		Visibility:    visibility,
		UpdatedAge:    formatRelativeAge(generationTime, record.Summary.UpdatedAt),
		CIState:       string(record.CI.State),
		CILabel:       workflowStateLabel(record.CI.State),
		CIURL:         record.CI.LatestRunURL,
		WorkflowCount: record.CI.WorkflowCount,
		IssueCount:    record.Issues.Count,
		Issues:        issues,
	}
}

func collectOrganizationNames(records []*RepositoryRecord) []string {
	seenOrganizations := make(map[string]struct{})
	var organizationNames []string
	for _, record := range records {
		if _, alreadySeen := seenOrganizations[record.Organization]; alreadySeen {
			continue
		}
		seenOrganizations[record.Organization] = struct{}{}
		organizationNames = append(organizationNames, record.Organization)
	}
	sort.Strings(organizationNames)
	return organizationNames
}

func workflowStateLabel(state WorkflowState) string {
	label, labelExists := workflowStateLabels[state]
	if !labelExists {
		return workflowStateLabels[WorkflowStateUnknown]
	}
	return label
}

func formatRelativeAge(referenceTime time.Time, eventTime time.Time) string {
	if eventTime.IsZero() {
		return unknownAgeLabelConstant
	}
	elapsedDays := int(referenceTime.Sub(eventTime).Hours() / 24)
	switch {
	case elapsedDays < 1:
		return todayAgeLabelConstant
	case elapsedDays < daysPerMonthApproximationConstant:
		return fmt.Sprintf(dayAgeTemplateConstant, elapsedDays)
	case elapsedDays < daysPerYearApproximationConstant:
		return fmt.Sprintf(monthAgeTemplateConstant, elapsedDays/daysPerMonthApproximationConstant)
	default:
		return fmt.Sprintf(yearAgeTemplateConstant, elapsedDays/daysPerYearApproximationConstant)
	}
}

func truncateText(text string, limit int) string {
	trimmedText := strings.TrimSpace(text)
	textRunes := []rune(trimmedText)
	if len(textRunes) <= limit {
		return trimmedText
	}
	return string(textRunes[:limit]) + truncationSuffixConstant
}

const reportTemplateText = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Repository Dashboard</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 0; background: #f6f8fa; color: #24292f; }
header { background: #24292f; color: #ffffff; padding: 20px 32px; }
header h1 { margin: 0 0 4px 0; font-size: 22px; }
header p { margin: 0; color: #8b949e; font-size: 13px; }
.cards { display: flex; gap: 16px; padding: 20px 32px; flex-wrap: wrap; }
.card { background: #ffffff; border: 1px solid #d0d7de; border-radius: 8px; padding: 14px 22px; min-width: 140px; }
.card .value { font-size: 26px; font-weight: 600; }
.card .label { font-size: 12px; color: #57606a; text-transform: uppercase; }
.filters { display: flex; gap: 12px; padding: 0 32px 16px 32px; flex-wrap: wrap; align-items: center; }
.filters select, .filters input[type=text] { padding: 6px 10px; border: 1px solid #d0d7de; border-radius: 6px; font-size: 13px; }
table { width: calc(100% - 64px); margin: 0 32px 40px 32px; border-collapse: collapse; background: #ffffff; border: 1px solid #d0d7de; border-radius: 8px; }
th, td { text-align: left; padding: 10px 14px; border-bottom: 1px solid #d8dee4; font-size: 13px; vertical-align: top; }
th { background: #f6f8fa; font-size: 12px; text-transform: uppercase; color: #57606a; }
.org-badge { display: inline-block; padding: 2px 10px; border-radius: 12px; font-size: 12px; font-weight: 600; }
.org-0 { background: #ddf4ff; color: #0969da; } .org-1 { background: #dafbe1; color: #1a7f37; }
.org-2 { background: #fff8c5; color: #9a6700; } .org-3 { background: #ffebe9; color: #cf222e; }
.org-4 { background: #fbefff; color: #8250df; } .org-5 { background: #ffeff7; color: #bf3989; }
.org-6 { background: #d2f4f0; color: #1b7c83; } .org-7 { background: #eaeef2; color: #57606a; }
.ci-badge { display: inline-block; padding: 2px 10px; border-radius: 12px; font-size: 12px; font-weight: 600; }
.ci-success { background: #dafbe1; color: #1a7f37; } .ci-failure { background: #ffebe9; color: #cf222e; }
.ci-cancelled { background: #fff8c5; color: #9a6700; } .ci-running { background: #ddf4ff; color: #0969da; }
.ci-no_runs, .ci-no_workflows, .ci-skipped, .ci-unknown { background: #eaeef2; color: #57606a; }
.issue { position: relative; margin: 2px 0; }
.issue a { color: #0969da; text-decoration: none; }
.issue .preview { display: none; position: absolute; left: 0; top: 100%; z-index: 10; width: 360px; background: #ffffff; border: 1px solid #d0d7de; border-radius: 8px; padding: 10px; box-shadow: 0 4px 12px rgba(31,35,40,0.15); }
.issue:hover .preview { display: block; }
.issue .meta { color: #57606a; font-size: 11px; }
.label-chip { display: inline-block; background: #eaeef2; border-radius: 10px; padding: 1px 8px; font-size: 11px; margin-right: 4px; }
footer { padding: 0 32px 32px 32px; color: #57606a; font-size: 12px; }
</style>
</head>
<body>
<header>
<h1>Repository Dashboard</h1>
<p>CI status and open issues across organizations</p>
</header>
<div class="cards">
<div class="card"><div class="value">{{.Statistics.TotalRepositories}}</div><div class="label">Repositories</div></div>
<div class="card"><div class="value">{{.Statistics.OrganizationCount}}</div><div class="label">Organizations</div></div>
<div class="card"><div class="value">{{.Statistics.RepositoriesWithCI}}</div><div class="label">With CI</div></div>
<div class="card"><div class="value">{{.Statistics.TotalOpenIssues}}</div><div class="label">Open issues</div></div>
<div class="card"><div class="value">{{.Statistics.FailedLookups}}</div><div class="label">Failed lookups</div></div>
</div>
<div class="filters">
<select id="org-filter">
<option value="">All organizations</option>
{{range .Organizations}}<option value="{{.}}">{{.}}</option>
{{end}}</select>
<select id="ci-filter">
<option value="">Any CI status</option>
<option value="success">passing</option>
<option value="failure">failing</option>
<option value="running">running</option>
<option value="no_workflows">no CI</option>
</select>
<label><input type="checkbox" id="issues-filter"> Only with open issues</label>
<input type="text" id="search-filter" placeholder="Filter repositories...">
</div>
<table>
<thead>
<tr><th>Repository</th><th>Organization</th><th>Visibility</th><th>Updated</th><th>CI</th><th>Open issues</th></tr>
</thead>
<tbody id="repo-rows">
{{range .Rows}}<tr data-org="{{.Organization}}" data-ci="{{.CIState}}" data-issues="{{.IssueCount}}" data-name="{{.NameWithOwner}}">
<td><a href="{{.URL}}">{{.NameWithOwner}}</a><div class="meta">{{.Description}}</div></td>
<td><span class="org-badge org-{{.PaletteIndex}}">{{.Organization}}</span></td>
<td>{{.Visibility}}</td>
<td>{{.UpdatedAge}}</td>
<td>{{if .CIURL}}<a href="{{.CIURL}}"><span class="ci-badge ci-{{.CIState}}">{{.CILabel}}</span></a>{{else}}<span class="ci-badge ci-{{.CIState}}">{{.CILabel}}</span>{{end}}</td>
<td>{{.IssueCount}}
{{range .Issues}}<div class="issue"><a href="{{.URL}}">#{{.Number}} {{.Title}}</a>
<div class="preview"><div class="meta">opened {{.Age}} by {{.Author}}</div>
{{range .Labels}}<span class="label-chip">{{.}}</span>{{end}}
<p>{{.BodyPreview}}</p></div></div>
{{end}}</td>
</tr>
{{end}}</tbody>
</table>
<footer>Generated at {{.GeneratedAt}}</footer>
<script>
(function () {
  var orgFilter = document.getElementById("org-filter");
  var ciFilter = document.getElementById("ci-filter");
  var issuesFilter = document.getElementById("issues-filter");
  var searchFilter = document.getElementById("search-filter");
  function applyFilters() {
    var rows = document.querySelectorAll("#repo-rows tr");
    var searchTerm = searchFilter.value.toLowerCase();
    rows.forEach(function (row) {
      var visible = true;
      if (orgFilter.value && row.dataset.org !== orgFilter.value) { visible = false; }
      if (ciFilter.value && row.dataset.ci !== ciFilter.value) { visible = false; }
      if (issuesFilter.checked && row.dataset.issues === "0") { visible = false; }
      if (searchTerm && row.dataset.name.toLowerCase().indexOf(searchTerm) === -1) { visible = false; }
      row.style.display = visible ? "" : "none";
    });
  }
  orgFilter.addEventListener("change", applyFilters);
  ciFilter.addEventListener("change", applyFilters);
  issuesFilter.addEventListener("change", applyFilters);
  searchFilter.addEventListener("input", applyFilters);
})();
</script>
</body>
</html>
`
