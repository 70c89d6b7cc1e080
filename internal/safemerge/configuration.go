package safemerge

import "strings"

const (
	ownersConfigurationKeyConstant      = "owners"
	searchLimitConfigurationKeyConstant = "search_limit"
	dryRunConfigurationKeyConstant      = "dry_run"
	configurationKeySeparatorConstant   = "."
	defaultSearchLimitConstant          = 200
)

// CommandConfiguration captures persistent settings for the merge-safe command.
type CommandConfiguration struct {
	Owners      []string `mapstructure:"owners"`
	SearchLimit int      `mapstructure:"search_limit"`
	DryRun      bool     `mapstructure:"dry_run"`
}

// DefaultCommandConfiguration returns baseline configuration values for the merge-safe command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Owners:      nil,
		SearchLimit: defaultSearchLimitConstant,
		DryRun:      false,
	}
}

// DefaultConfigurationValues exposes merge-safe defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKey(configurationKeyPrefix, ownersConfigurationKeyConstant):      defaults.Owners,
		configurationKey(configurationKeyPrefix, searchLimitConfigurationKeyConstant): defaults.SearchLimit,
		configurationKey(configurationKeyPrefix, dryRunConfigurationKeyConstant):      defaults.DryRun,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Owners = sanitizeOwnerList(configuration.Owners)
	if sanitized.SearchLimit <= 0 {
		sanitized.SearchLimit = defaultSearchLimitConstant
	}

	return sanitized
}

func sanitizeOwnerList(raw []string) []string {
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
