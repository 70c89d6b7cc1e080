package dashboard

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/execshell"
	"github.com/jon-the-dev/repofleet/internal/githubcli"
	"github.com/jon-the-dev/repofleet/internal/ui"
	"github.com/jon-the-dev/repofleet/internal/utils/flags"
)

const (
	commandNameConstant             = "dashboard"
	commandShortDescriptionConstant = "Render an HTML dashboard of repository CI status and open issues"
	commandLongDescriptionConstant  = "dashboard lists repositories across the configured organizations, looks up workflow runs and open issues in parallel, and writes a self-contained HTML report with client-side filtering."
	organizationsFlagNameConstant   = "orgs"
	organizationsFlagUsageConstant  = "Organizations to include (repeatable or comma-separated)"
	limitFlagNameConstant           = "limit"
	limitFlagUsageConstant          = "Maximum repositories listed per organization"
	outputFlagNameConstant          = "output"
	outputFlagUsageConstant         = "Path of the HTML report to write"
	threadsFlagNameConstant         = "threads"
	threadsFlagUsageConstant        = "Number of parallel lookup workers"
	noIssuesFlagNameConstant        = "no-issues"
	noIssuesFlagUsageConstant       = "Skip open issue lookups"
	noCICheckFlagNameConstant       = "no-ci-check"
	noCICheckFlagUsageConstant      = "Skip workflow and run lookups"
	emptyFlagShorthandConstant      = ""
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the dashboard cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	Gateway                      GitHubGateway
}

// Build constructs the cobra command for the dashboard workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	var skipIssuesFlagValue bool
	var skipCIChecksFlagValue bool

	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, skipIssuesFlagValue, skipCIChecksFlagValue)
		},
	}

	command.Flags().StringSlice(organizationsFlagNameConstant, nil, organizationsFlagUsageConstant)
	command.Flags().Int(limitFlagNameConstant, 0, limitFlagUsageConstant)
	command.Flags().String(outputFlagNameConstant, "", outputFlagUsageConstant)
	command.Flags().Int(threadsFlagNameConstant, 0, threadsFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &skipIssuesFlagValue, noIssuesFlagNameConstant, emptyFlagShorthandConstant, false, noIssuesFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &skipCIChecksFlagValue, noCICheckFlagNameConstant, emptyFlagShorthandConstant, false, noCICheckFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, skipIssuesFlagValue bool, skipCIChecksFlagValue bool) error {
	options := builder.resolveOptions(command, skipIssuesFlagValue, skipCIChecksFlagValue)

	logger := builder.resolveLogger()
	gateway, gatewayError := builder.resolveGateway(logger)
	if gatewayError != nil {
		return gatewayError
	}

	service, serviceError := NewService(gateway, logger, SystemClock{})
	if serviceError != nil {
		return serviceError
	}

	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) resolveOptions(command *cobra.Command, skipIssuesFlagValue bool, skipCIChecksFlagValue bool) CommandOptions {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration = configuration.sanitize()

	options := CommandOptions{
		Organizations:   configuration.Organizations,
		RepositoryLimit: configuration.RepositoryLimit,
		OutputPath:      configuration.OutputPath,
		WorkerCount:     configuration.WorkerCount,
		SkipIssues:      configuration.SkipIssues,
		SkipCIChecks:    configuration.SkipCIChecks,
	}

	commandFlags := command.Flags()
	if commandFlags.Changed(organizationsFlagNameConstant) {
		if flagOrganizations, flagError := commandFlags.GetStringSlice(organizationsFlagNameConstant); flagError == nil {
			options.Organizations = sanitizeList(flagOrganizations)
		}
	}
	if commandFlags.Changed(limitFlagNameConstant) {
		if flagLimit, flagError := commandFlags.GetInt(limitFlagNameConstant); flagError == nil && flagLimit > 0 {
			options.RepositoryLimit = flagLimit
		}
	}
	if commandFlags.Changed(outputFlagNameConstant) {
		if flagOutput, flagError := commandFlags.GetString(outputFlagNameConstant); flagError == nil && len(flagOutput) > 0 {
			options.OutputPath = flagOutput
		}
	}
	if commandFlags.Changed(threadsFlagNameConstant) {
		if flagThreads, flagError := commandFlags.GetInt(threadsFlagNameConstant); flagError == nil && flagThreads > 0 {
			options.WorkerCount = flagThreads
		}
	}
	if commandFlags.Changed(noIssuesFlagNameConstant) {
		options.SkipIssues = skipIssuesFlagValue
	}
	if commandFlags.Changed(noCICheckFlagNameConstant) {
		options.SkipCIChecks = skipCIChecksFlagValue
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

func (builder *CommandBuilder) resolveGateway(logger *zap.Logger) (GitHubGateway, error) {
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
