package compliance

// FileStandard describes one standard repository file. Candidate paths are
// probed in order and the first match satisfies the standard.
type FileStandard struct {
	Key            string
	Required       bool
	CandidatePaths []string
}

// LabelStandard describes one standard issue label.
type LabelStandard struct {
	Name        string
	Color       string
	Description string
}

// FileStandards lists the files every repository is expected to carry.
// CODEOWNERS, README, and LICENSE are required; the rest are recommended.
var FileStandards = []FileStandard{
	{
		Key:            "CODEOWNERS",
		Required:       true,
		CandidatePaths: []string{"CODEOWNERS", ".github/CODEOWNERS", "docs/CODEOWNERS"},
	},
	{
		Key:            "README",
		Required:       true,
		CandidatePaths: []string{"README.md", "README.rst", "README.txt", "README"},
	},
	{
		Key:            "LICENSE",
		Required:       true,
		CandidatePaths: []string{"LICENSE", "LICENSE.md", "LICENSE.txt", "COPYING"},
	},
	{
		Key:            "CONTRIBUTING",
		CandidatePaths: []string{"CONTRIBUTING.md", ".github/CONTRIBUTING.md", "docs/CONTRIBUTING.md"},
	},
	{
		Key:            "CODE_OF_CONDUCT",
		CandidatePaths: []string{"CODE_OF_CONDUCT.md", ".github/CODE_OF_CONDUCT.md"},
	},
	{
		Key:            "SECURITY",
		CandidatePaths: []string{"SECURITY.md", ".github/SECURITY.md"},
	},
	{
		Key:            "CHANGELOG",
		CandidatePaths: []string{"CHANGELOG.md", "CHANGES.md", "HISTORY.md"},
	},
}

// LabelStandards lists the issue labels every repository is expected to carry.
var LabelStandards = []LabelStandard{
	{Name: "frontend", Color: "b60205", Description: "Frontend development work"},
	{Name: "backend", Color: "0052cc", Description: "Backend development work"},
	{Name: "bug", Color: "d73a4a", Description: "Something isn't working"},
	{Name: "feature", Color: "7f4a00", Description: "New feature or enhancement"},
	{Name: "documentation", Color: "0075ca", Description: "Improvements or additions to documentation"},
	{Name: "enhancement", Color: "a2eeef", Description: "Enhancement to existing functionality"},
	{Name: "good first issue", Color: "7057ff", Description: "Good for newcomers"},
	{Name: "help wanted", Color: "008672", Description: "Extra attention is needed"},
	{Name: "wontfix", Color: "ffffff", Description: "This will not be worked on"},
	{Name: "duplicate", Color: "cfd3d7", Description: "This issue or pull request already exists"},
	{Name: "invalid", Color: "e4e669", Description: "This doesn't seem right"},
	{Name: "question", Color: "d876e3", Description: "Further information is requested"},
	{Name: "security", Color: "ff0000", Description: "Security-related issues or fixes"},
	{Name: "performance", Color: "ff6600", Description: "Performance improvements"},
	{Name: "testing", Color: "00ff00", Description: "Testing-related work"},
	{Name: "triage", Color: "00ff00", Description: "Triage-related work"},
	{Name: "planned", Color: "00ff00", Description: "Planned-related work"},
	{Name: "in-review", Color: "00ff00", Description: "In-Review-related work"},
}

// RequiredFileCount returns how many file standards are marked required.
func RequiredFileCount() int {
	requiredCount := 0
	for _, standard := range FileStandards {
		if standard.Required {
			requiredCount++
		}
	}
	return requiredCount
}
