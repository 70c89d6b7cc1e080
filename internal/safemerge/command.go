package safemerge

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/execshell"
	"github.com/jon-the-dev/repofleet/internal/githubcli"
	"github.com/jon-the-dev/repofleet/internal/ui"
	"github.com/jon-the-dev/repofleet/internal/utils"
	"github.com/jon-the-dev/repofleet/internal/utils/flags"
)

const (
	commandNameConstant             = "merge-safe"
	commandShortDescriptionConstant = "Merge open pull requests whose checks all pass"
	commandLongDescriptionConstant  = "merge-safe searches open pull requests across the configured owners, inspects merge state and status checks for each, squash-merges the clean ones, and queues auto-merge where branch policy blocks a direct merge."
	ownersFlagNameConstant          = "owners"
	ownersFlagUsageConstant         = "Owners whose pull requests are evaluated (repeatable or comma-separated)"
	limitFlagNameConstant           = "limit"
	limitFlagUsageConstant          = "Maximum pull requests fetched per owner"
	dryRunFlagNameConstant          = "dry-run"
	dryRunFlagUsageConstant         = "Report decisions without merging or commenting"
	emptyFlagShorthandConstant      = ""
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the merge-safe cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	Gateway                      PullRequestGateway
}

// Build constructs the cobra command for the merge workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	var dryRunFlagValue bool

	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, dryRunFlagValue)
		},
	}

	command.Flags().StringSlice(ownersFlagNameConstant, nil, ownersFlagUsageConstant)
	command.Flags().Int(limitFlagNameConstant, 0, limitFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &dryRunFlagValue, dryRunFlagNameConstant, emptyFlagShorthandConstant, false, dryRunFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, dryRunFlagValue bool) error {
	options := builder.resolveOptions(command, dryRunFlagValue)

	logger := builder.resolveLogger()
	gateway, gatewayError := builder.resolveGateway(logger)
	if gatewayError != nil {
		return gatewayError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	service, serviceError := NewService(gateway, logger, outputWriter)
	if serviceError != nil {
		return serviceError
	}

	_, runError := service.Run(command.Context(), options)
	return runError
}

func (builder *CommandBuilder) resolveOptions(command *cobra.Command, dryRunFlagValue bool) CommandOptions {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration = configuration.sanitize()

	options := CommandOptions{
		Owners:      configuration.Owners,
		SearchLimit: configuration.SearchLimit,
		DryRun:      configuration.DryRun,
	}

	commandFlags := command.Flags()
	if commandFlags.Changed(ownersFlagNameConstant) {
		if flagOwners, flagError := commandFlags.GetStringSlice(ownersFlagNameConstant); flagError == nil {
			options.Owners = sanitizeOwnerList(flagOwners)
		}
	}
	if commandFlags.Changed(limitFlagNameConstant) {
		if flagLimit, flagError := commandFlags.GetInt(limitFlagNameConstant); flagError == nil && flagLimit > 0 {
			options.SearchLimit = flagLimit
		}
	}
	if commandFlags.Changed(dryRunFlagNameConstant) {
		options.DryRun = dryRunFlagValue
	}

	return options
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveGateway(logger *zap.Logger) (PullRequestGateway, error) {
	if builder.Gateway != nil {
		return builder.Gateway, nil
	}

	var observer execshell.CommandEventObserver
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		observer = ui.NewConsoleCommandEventLogger(logger)
	}

	executor, executorError := execshell.NewShellExecutorWithObserver(logger, execshell.NewOSCommandRunner(), observer)
	if executorError != nil {
		return nil, executorError
	}
	return githubcli.NewClient(executor)
}
