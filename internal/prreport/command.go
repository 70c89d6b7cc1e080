package prreport

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/execshell"
	"github.com/jon-the-dev/repofleet/internal/githubauth"
	"github.com/jon-the-dev/repofleet/internal/githubcli"
	"github.com/jon-the-dev/repofleet/internal/ui"
	"github.com/jon-the-dev/repofleet/internal/utils"
	"github.com/jon-the-dev/repofleet/internal/utils/flags"
)

const (
	commandNameConstant             = "pr-report"
	commandShortDescriptionConstant = "Collect every open pull request and write a Markdown report"
	commandLongDescriptionConstant  = "pr-report fetches open pull requests across the configured owners over two independent paths, search and per-repository listing, deduplicates the results, and writes a Markdown report with age, author, and title distribution analysis."
	ownersFlagNameConstant          = "owners"
	ownersFlagUsageConstant         = "Owners whose pull requests are collected (repeatable or comma-separated)"
	outputFlagNameConstant          = "output"
	outputFlagUsageConstant         = "Path of the Markdown report to write"
	threadsFlagNameConstant         = "threads"
	threadsFlagUsageConstant        = "Number of parallel listing workers"
	maxRequestsFlagNameConstant     = "max-requests"
	maxRequestsFlagUsageConstant    = "Abort when the request estimate exceeds this count (0 disables)"
	forceFlagNameConstant           = "force"
	forceFlagUsageConstant          = "Continue even when the rate-limit gate blocks the run"
	dryRunFlagNameConstant          = "dry-run"
	dryRunFlagUsageConstant         = "Print the request estimate and gate decision without fetching"
	emptyFlagShorthandConstant      = ""
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the pr-report cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	Searcher                     PullRequestSearcher
	Repositories                 RepositoryLister
}

// Build constructs the cobra command for the report workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	var forceFlagValue bool
	var dryRunFlagValue bool

	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, forceFlagValue, dryRunFlagValue)
		},
	}

	command.Flags().StringSlice(ownersFlagNameConstant, nil, ownersFlagUsageConstant)
	command.Flags().String(outputFlagNameConstant, "", outputFlagUsageConstant)
	command.Flags().Int(threadsFlagNameConstant, 0, threadsFlagUsageConstant)
	command.Flags().Int(maxRequestsFlagNameConstant, 0, maxRequestsFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &forceFlagValue, forceFlagNameConstant, emptyFlagShorthandConstant, false, forceFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &dryRunFlagValue, dryRunFlagNameConstant, emptyFlagShorthandConstant, false, dryRunFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, forceFlagValue bool, dryRunFlagValue bool) error {
	options := builder.resolveOptions(command, forceFlagValue, dryRunFlagValue)

	logger := builder.resolveLogger()
	searcher, searcherError := builder.resolveSearcher(command)
	if searcherError != nil {
		return searcherError
	}
	repositories, repositoriesError := builder.resolveRepositories(logger)
	if repositoriesError != nil {
		return repositoriesError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	service, serviceError := NewService(searcher, repositories, logger, SystemClock{}, outputWriter)
	if serviceError != nil {
		return serviceError
	}

	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) resolveOptions(command *cobra.Command, forceFlagValue bool, dryRunFlagValue bool) CommandOptions {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration = configuration.sanitize()

	options := CommandOptions{
		Owners:      configuration.Owners,
		OutputPath:  configuration.OutputPath,
		WorkerCount: configuration.WorkerCount,
		MaxRequests: configuration.MaxRequests,
	}

	commandFlags := command.Flags()
	if commandFlags.Changed(ownersFlagNameConstant) {
		if flagOwners, flagError := commandFlags.GetStringSlice(ownersFlagNameConstant); flagError == nil {
			options.Owners = sanitizeOwnerList(flagOwners)
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
	if commandFlags.Changed(maxRequestsFlagNameConstant) {
		if flagMaxRequests, flagError := commandFlags.GetInt(maxRequestsFlagNameConstant); flagError == nil && flagMaxRequests >= 0 {
			options.MaxRequests = flagMaxRequests
		}
	}
	if commandFlags.Changed(forceFlagNameConstant) {
		options.Force = forceFlagValue
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

func (builder *CommandBuilder) resolveSearcher(command *cobra.Command) (PullRequestSearcher, error) {
	if builder.Searcher != nil {
		return builder.Searcher, nil
	}

	token, tokenError := githubauth.ResolveToken("", nil)
	if tokenError != nil {
		return nil, tokenError
	}
	executor := NewGitHubGraphQLExecutor(command.Context(), token)
	return NewSearchClient(executor)
}

func (builder *CommandBuilder) resolveRepositories(logger *zap.Logger) (RepositoryLister, error) {
	if builder.Repositories != nil {
		return builder.Repositories, nil
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
