package prreport

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/jon-the-dev/repofleet/internal/githubcli"
)

const (
	reportTitleConstant              = "# Open Pull Requests Report"
	generatedAtTemplateConstant      = "Generated at %s"
	generatedAtTimeLayoutConstant    = "2006-01-02 15:04 UTC"
	summaryHeadingConstant           = "## Summary"
	ageDistributionHeadingConstant   = "## Age distribution"
	authorTypesHeadingConstant       = "## Author types"
	titlePatternsHeadingConstant     = "## Title patterns"
	topContributorsHeadingConstant   = "## Top contributors"
	pullRequestsHeadingConstant      = "## Pull requests by owner"
	ownerHeadingTemplateConstant     = "### %s"
	draftMarkerConstant              = " (draft)"
	hoursPerDayConstant              = 24
	topContributorLimitConstant      = 10
	dependabotAuthorCategoryConstant = "dependabot"
	ownerAuthorCategoryConstant      = "repository owner"
	otherBotAuthorCategoryConstant   = "other bots"
	externalAuthorCategoryConstant   = "external contributors"
	otherTitlePatternConstant        = "other"
	repositorySeparatorConstant      = "/"
)

// ageBucket pairs a label with its upper age bound.
type ageBucket struct {
	label    string
	maxHours float64
}

var ageBuckets = []ageBucket{
	{label: "under 1 week", maxHours: 7 * hoursPerDayConstant},
	{label: "under 1 month", maxHours: 30 * hoursPerDayConstant},
	{label: "under 3 months", maxHours: 90 * hoursPerDayConstant},
	{label: "under 6 months", maxHours: 180 * hoursPerDayConstant},
	{label: "under 1 year", maxHours: 365 * hoursPerDayConstant},
	{label: "over 1 year", maxHours: -1},
}

// titlePatternPrefixes maps a conventional title prefix to its pattern label.
var titlePatternPrefixes = []string{"bump", "update", "upgrade", "fix", "feat", "chore", "docs", "refactor", "test"}

// ReportRenderer turns collected pull requests into a Markdown report.
type ReportRenderer struct {
	clock Clock
}

// NewReportRenderer constructs a ReportRenderer around the provided clock.
func NewReportRenderer(clock Clock) *ReportRenderer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReportRenderer{clock: clock}
}

// Render produces the full Markdown report for the collected pull requests.
func (renderer *ReportRenderer) Render(records []githubcli.PullRequestSummary, owners []string) string {
	currentTime := renderer.clock.Now()
	reportBuilder := &strings.Builder{}

	fmt.Fprintf(reportBuilder, "%s\n\n", reportTitleConstant)
	fmt.Fprintf(reportBuilder, generatedAtTemplateConstant+"\n\n", currentTime.UTC().Format(generatedAtTimeLayoutConstant))

	renderer.writeSummary(reportBuilder, records, owners, currentTime)
	renderer.writeAgeDistribution(reportBuilder, records, currentTime)
	renderer.writeAuthorTypes(reportBuilder, records)
	renderer.writeTitlePatterns(reportBuilder, records)
	renderer.writeTopContributors(reportBuilder, records)
	renderer.writePullRequestTables(reportBuilder, records, currentTime)

	return reportBuilder.String()
}

func (renderer *ReportRenderer) writeSummary(reportBuilder *strings.Builder, records []githubcli.PullRequestSummary, owners []string, currentTime time.Time) {
	repositories := make(map[string]struct{})
	draftCount := 0
	ageDays := make([]float64, 0, len(records))
	for _, record := range records {
		repositories[record.Repository] = struct{}{}
		if record.IsDraft {
			draftCount++
		}
		if !record.CreatedAt.IsZero() {
			ageDays = append(ageDays, currentTime.Sub(record.CreatedAt).Hours()/hoursPerDayConstant)
		}
	}

	fmt.Fprintf(reportBuilder, "%s\n\n", summaryHeadingConstant)
	fmt.Fprintf(reportBuilder, "- Total open pull requests: %d\n", len(records))
	fmt.Fprintf(reportBuilder, "- Repositories with open pull requests: %d\n", len(repositories))
	fmt.Fprintf(reportBuilder, "- Owners covered: %d\n", len(owners))
	fmt.Fprintf(reportBuilder, "- Draft pull requests: %d\n", draftCount)

	if len(ageDays) > 0 {
		medianAge, medianError := stats.Median(ageDays)
		meanAge, meanError := stats.Mean(ageDays)
		if medianError == nil && meanError == nil {
			fmt.Fprintf(reportBuilder, "- Median age: %.1f days\n", medianAge)
			fmt.Fprintf(reportBuilder, "- Average age: %.1f days\n", meanAge)
		}

		oldestRecord, newestRecord := findAgeExtremes(records)
		fmt.Fprintf(reportBuilder, "- Oldest: %s#%d %q (opened %s)\n", oldestRecord.Repository, oldestRecord.Number, oldestRecord.Title, oldestRecord.CreatedAt.UTC().Format(time.DateOnly))
		fmt.Fprintf(reportBuilder, "- Newest: %s#%d %q (opened %s)\n", newestRecord.Repository, newestRecord.Number, newestRecord.Title, newestRecord.CreatedAt.UTC().Format(time.DateOnly))
	}
	reportBuilder.WriteString("\n")
}

func findAgeExtremes(records []githubcli.PullRequestSummary) (githubcli.PullRequestSummary, githubcli.PullRequestSummary) {
	oldestRecord := records[0]
	newestRecord := records[0]
	for _, record := range records {
		if record.CreatedAt.IsZero() {
			continue
		}
		if oldestRecord.CreatedAt.IsZero() || record.CreatedAt.Before(oldestRecord.CreatedAt) {
			oldestRecord = record
		}
		if record.CreatedAt.After(newestRecord.CreatedAt) {
			newestRecord = record
		}
	}
	return oldestRecord, newestRecord
}

func (renderer *ReportRenderer) writeAgeDistribution(reportBuilder *strings.Builder, records []githubcli.PullRequestSummary, currentTime time.Time) {
	bucketCounts := make([]int, len(ageBuckets))
	for _, record := range records {
		if record.CreatedAt.IsZero() {
			continue
		}
		ageHours := currentTime.Sub(record.CreatedAt).Hours()
		for bucketIndex, bucket := range ageBuckets {
			if bucket.maxHours < 0 || ageHours < bucket.maxHours {
				bucketCounts[bucketIndex]++
				break
			}
		}
	}

	fmt.Fprintf(reportBuilder, "%s\n\n", ageDistributionHeadingConstant)
	reportBuilder.WriteString("| Age | Count |\n|---|---|\n")
	for bucketIndex, bucket := range ageBuckets {
		fmt.Fprintf(reportBuilder, "| %s | %d |\n", bucket.label, bucketCounts[bucketIndex])
	}
	reportBuilder.WriteString("\n")
}

func (renderer *ReportRenderer) writeAuthorTypes(reportBuilder *strings.Builder, records []githubcli.PullRequestSummary) {
	categoryCounts := map[string]int{}
	for _, record := range records {
		categoryCounts[classifyAuthor(record)]++
	}

	fmt.Fprintf(reportBuilder, "%s\n\n", authorTypesHeadingConstant)
	reportBuilder.WriteString("| Author type | Count |\n|---|---|\n")
	for _, category := range []string{dependabotAuthorCategoryConstant, ownerAuthorCategoryConstant, otherBotAuthorCategoryConstant, externalAuthorCategoryConstant} {
		fmt.Fprintf(reportBuilder, "| %s | %d |\n", category, categoryCounts[category])
	}
	reportBuilder.WriteString("\n")
}

// classifyAuthor buckets an author as dependabot, the repository owner,
// another bot, or an external contributor.
func classifyAuthor(record githubcli.PullRequestSummary) string {
	loginLower := strings.ToLower(record.Author.Login)
	if strings.Contains(loginLower, dependabotAuthorCategoryConstant) {
		return dependabotAuthorCategoryConstant
	}
	ownerSegment, _, found := strings.Cut(record.Repository, repositorySeparatorConstant)
	if found && strings.EqualFold(record.Author.Login, ownerSegment) {
		return ownerAuthorCategoryConstant
	}
	if record.Author.IsBot || strings.HasSuffix(loginLower, "[bot]") {
		return otherBotAuthorCategoryConstant
	}
	return externalAuthorCategoryConstant
}

func (renderer *ReportRenderer) writeTitlePatterns(reportBuilder *strings.Builder, records []githubcli.PullRequestSummary) {
	patternCounts := map[string]int{}
	for _, record := range records {
		patternCounts[classifyTitle(record.Title)]++
	}

	fmt.Fprintf(reportBuilder, "%s\n\n", titlePatternsHeadingConstant)
	reportBuilder.WriteString("| Pattern | Count |\n|---|---|\n")
	for _, pattern := range titlePatternPrefixes {
		if patternCounts[pattern] > 0 {
			fmt.Fprintf(reportBuilder, "| %s | %d |\n", pattern, patternCounts[pattern])
		}
	}
	if patternCounts[otherTitlePatternConstant] > 0 {
		fmt.Fprintf(reportBuilder, "| %s | %d |\n", otherTitlePatternConstant, patternCounts[otherTitlePatternConstant])
	}
	reportBuilder.WriteString("\n")
}

func classifyTitle(title string) string {
	titleLower := strings.ToLower(strings.TrimSpace(title))
	for _, prefix := range titlePatternPrefixes {
		if strings.HasPrefix(titleLower, prefix) {
			return prefix
		}
	}
	return otherTitlePatternConstant
}

func (renderer *ReportRenderer) writeTopContributors(reportBuilder *strings.Builder, records []githubcli.PullRequestSummary) {
	contributionCounts := map[string]int{}
	for _, record := range records {
		if len(record.Author.Login) == 0 {
			continue
		}
		contributionCounts[record.Author.Login]++
	}

	contributors := make([]string, 0, len(contributionCounts))
	for login := range contributionCounts {
		contributors = append(contributors, login)
	}
	sort.Slice(contributors, func(firstIndex int, secondIndex int) bool {
		if contributionCounts[contributors[firstIndex]] != contributionCounts[contributors[secondIndex]] {
			return contributionCounts[contributors[firstIndex]] > contributionCounts[contributors[secondIndex]]
		}
		return contributors[firstIndex] < contributors[secondIndex]
	})
	if len(contributors) > topContributorLimitConstant {
		contributors = contributors[:topContributorLimitConstant]
	}

	fmt.Fprintf(reportBuilder, "%s\n\n", topContributorsHeadingConstant)
	reportBuilder.WriteString("| Author | Open pull requests |\n|---|---|\n")
	for _, login := range contributors {
		fmt.Fprintf(reportBuilder, "| %s | %d |\n", login, contributionCounts[login])
	}
	reportBuilder.WriteString("\n")
}

func (renderer *ReportRenderer) writePullRequestTables(reportBuilder *strings.Builder, records []githubcli.PullRequestSummary, currentTime time.Time) {
	recordsByOwner := map[string][]githubcli.PullRequestSummary{}
	for _, record := range records {
		ownerSegment, _, _ := strings.Cut(record.Repository, repositorySeparatorConstant)
		recordsByOwner[ownerSegment] = append(recordsByOwner[ownerSegment], record)
	}

	owners := make([]string, 0, len(recordsByOwner))
	for owner := range recordsByOwner {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	fmt.Fprintf(reportBuilder, "%s\n\n", pullRequestsHeadingConstant)
	for _, owner := range owners {
		fmt.Fprintf(reportBuilder, ownerHeadingTemplateConstant+"\n\n", owner)
		reportBuilder.WriteString("| Repository | Number | Title | Author | Age |\n|---|---|---|---|---|\n")
		for _, record := range recordsByOwner[owner] {
			titleCell := record.Title
			if record.IsDraft {
				titleCell += draftMarkerConstant
			}
			fmt.Fprintf(
				reportBuilder,
				"| %s | [#%d](%s) | %s | %s | %s |\n",
				record.Repository,
				record.Number,
				record.URL,
				titleCell,
				record.Author.Login,
				formatAge(record.CreatedAt, currentTime),
			)
		}
		reportBuilder.WriteString("\n")
	}
}

func formatAge(createdAt time.Time, currentTime time.Time) string {
	if createdAt.IsZero() {
		return "unknown"
	}
	days := int(currentTime.Sub(createdAt).Hours() / hoursPerDayConstant)
	if days < 1 {
		return "today"
	}
	return fmt.Sprintf("%dd", days)
}
