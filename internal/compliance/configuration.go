package compliance

import "strings"

const (
	organizationConfigurationKeyConstant    = "organization"
	outputPathConfigurationKeyConstant      = "output"
	environmentFileConfigurationKeyConstant = "env_file"
	fixLabelsConfigurationKeyConstant       = "fix_labels"
	createIssuesConfigurationKeyConstant    = "create_issues"
	includeArchivedConfigurationKeyConstant = "include_archived"
	configurationKeySeparatorConstant       = "."
	defaultOutputPathConstant               = "audit_report.json"
	defaultEnvironmentFileConstant          = ".env"
)

// CommandConfiguration captures persistent settings for the compliance command.
type CommandConfiguration struct {
	Organization    string `mapstructure:"organization"`
	OutputPath      string `mapstructure:"output"`
	EnvironmentFile string `mapstructure:"env_file"`
	FixLabels       bool   `mapstructure:"fix_labels"`
	CreateIssues    bool   `mapstructure:"create_issues"`
	IncludeArchived bool   `mapstructure:"include_archived"`
}

// DefaultCommandConfiguration returns baseline configuration values for the compliance command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Organization:    "",
		OutputPath:      defaultOutputPathConstant,
		EnvironmentFile: defaultEnvironmentFileConstant,
		FixLabels:       false,
		CreateIssues:    false,
		IncludeArchived: false,
	}
}

// DefaultConfigurationValues exposes compliance defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKey(configurationKeyPrefix, organizationConfigurationKeyConstant):    defaults.Organization,
		configurationKey(configurationKeyPrefix, outputPathConfigurationKeyConstant):      defaults.OutputPath,
		configurationKey(configurationKeyPrefix, environmentFileConfigurationKeyConstant): defaults.EnvironmentFile,
		configurationKey(configurationKeyPrefix, fixLabelsConfigurationKeyConstant):       defaults.FixLabels,
		configurationKey(configurationKeyPrefix, createIssuesConfigurationKeyConstant):    defaults.CreateIssues,
		configurationKey(configurationKeyPrefix, includeArchivedConfigurationKeyConstant): defaults.IncludeArchived,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Organization = strings.TrimSpace(configuration.Organization)
	if len(strings.TrimSpace(sanitized.OutputPath)) == 0 {
		sanitized.OutputPath = defaultOutputPathConstant
	}
	if len(strings.TrimSpace(sanitized.EnvironmentFile)) == 0 {
		sanitized.EnvironmentFile = defaultEnvironmentFileConstant
	}

	return sanitized
}

func configurationKey(prefix string, key string) string {
	if len(prefix) == 0 {
		return key
	}
	return prefix + configurationKeySeparatorConstant + key
}
