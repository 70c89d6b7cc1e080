package dashboard

import "strings"

const (
	organizationsConfigurationKeyConstant  = "organizations"
	repositoryLimitConfigurationKey        = "repository_limit"
	outputPathConfigurationKeyConstant     = "output"
	workerCountConfigurationKeyConstant    = "workers"
	skipIssuesConfigurationKeyConstant     = "skip_issues"
	skipCIChecksConfigurationKeyConstant   = "skip_ci_checks"
	configurationKeySeparatorConstant      = "."
	defaultOutputPathConstant              = "github_repos_report.html"
	defaultRepositoryLimitConstant         = 100
	defaultWorkerCountConstant             = 8
)

// CommandConfiguration captures persistent settings for the dashboard command.
type CommandConfiguration struct {
	Organizations   []string `mapstructure:"organizations"`
	RepositoryLimit int      `mapstructure:"repository_limit"`
	OutputPath      string   `mapstructure:"output"`
	WorkerCount     int      `mapstructure:"workers"`
	SkipIssues      bool     `mapstructure:"skip_issues"`
	SkipCIChecks    bool     `mapstructure:"skip_ci_checks"`
}

// DefaultCommandConfiguration returns baseline configuration values for the dashboard command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Organizations:   nil,
		RepositoryLimit: defaultRepositoryLimitConstant,
		OutputPath:      defaultOutputPathConstant,
		WorkerCount:     defaultWorkerCountConstant,
		SkipIssues:      false,
		SkipCIChecks:    false,
	}
}

// DefaultConfigurationValues exposes dashboard defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKey(configurationKeyPrefix, organizationsConfigurationKeyConstant): defaults.Organizations,
		configurationKey(configurationKeyPrefix, repositoryLimitConfigurationKey):       defaults.RepositoryLimit,
		configurationKey(configurationKeyPrefix, outputPathConfigurationKeyConstant):    defaults.OutputPath,
		configurationKey(configurationKeyPrefix, workerCountConfigurationKeyConstant):   defaults.WorkerCount,
		configurationKey(configurationKeyPrefix, skipIssuesConfigurationKeyConstant):    defaults.SkipIssues,
		configurationKey(configurationKeyPrefix, skipCIChecksConfigurationKeyConstant):  defaults.SkipCIChecks,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Organizations = sanitizeList(configuration.Organizations)
	if sanitized.RepositoryLimit <= 0 {
		sanitized.RepositoryLimit = defaultRepositoryLimitConstant
	}
	if len(strings.TrimSpace(sanitized.OutputPath)) == 0 {
		sanitized.OutputPath = defaultOutputPathConstant
	}
	if sanitized.WorkerCount <= 0 {
		sanitized.WorkerCount = defaultWorkerCountConstant
	}

	return sanitized
}

func sanitizeList(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for index := range raw {
		trimmed := strings.TrimSpace(raw[index])
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}

func configurationKey(prefix string, key string) string {
	if len(prefix) == 0 {
		return key
	}
	return prefix + configurationKeySeparatorConstant + key
}
