package prreport

import "strings"

const (
	ownersConfigurationKeyConstant      = "owners"
	outputPathConfigurationKeyConstant  = "output"
	workerCountConfigurationKeyConstant = "workers"
	maxRequestsConfigurationKeyConstant = "max_requests"
	configurationKeySeparatorConstant   = "."
	defaultOutputPathConstant           = "open_prs_report.md"
	defaultWorkerCountConstant          = 10
)

// CommandConfiguration captures persistent settings for the pr-report command.
type CommandConfiguration struct {
	Owners      []string `mapstructure:"owners"`
	OutputPath  string   `mapstructure:"output"`
	WorkerCount int      `mapstructure:"workers"`
	MaxRequests int      `mapstructure:"max_requests"`
}

// DefaultCommandConfiguration returns baseline configuration values for the pr-report command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Owners:      nil,
		OutputPath:  defaultOutputPathConstant,
		WorkerCount: defaultWorkerCountConstant,
		MaxRequests: 0,
	}
}

// DefaultConfigurationValues exposes pr-report defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKey(configurationKeyPrefix, ownersConfigurationKeyConstant):      defaults.Owners,
		configurationKey(configurationKeyPrefix, outputPathConfigurationKeyConstant):  defaults.OutputPath,
		configurationKey(configurationKeyPrefix, workerCountConfigurationKeyConstant): defaults.WorkerCount,
		configurationKey(configurationKeyPrefix, maxRequestsConfigurationKeyConstant): defaults.MaxRequests,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Owners = sanitizeOwnerList(configuration.Owners)
	if len(strings.TrimSpace(sanitized.OutputPath)) == 0 {
		sanitized.OutputPath = defaultOutputPathConstant
	}
	if sanitized.WorkerCount <= 0 {
		sanitized.WorkerCount = defaultWorkerCountConstant
	}
	if sanitized.MaxRequests < 0 {
		sanitized.MaxRequests = 0
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
