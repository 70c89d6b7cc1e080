package compliance

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/githubauth"
	"github.com/jon-the-dev/repofleet/internal/utils"
	"github.com/jon-the-dev/repofleet/internal/utils/flags"
)

const (
	commandNameConstant             = "compliance"
	commandShortDescriptionConstant = "Audit repositories for standard files and labels"
	commandLongDescriptionConstant  = "compliance audits every repository of the target organization, or of all organizations the token can see, against the standard file and label sets, scores them, optionally remediates the gaps, and writes a JSON report."
	organizationFlagNameConstant    = "org"
	organizationFlagUsageConstant   = "Organization to audit (defaults to every organization the token belongs to)"
	outputFlagNameConstant          = "output"
	outputFlagUsageConstant         = "Path of the JSON report to write"
	tokenFlagNameConstant           = "token"
	tokenFlagUsageConstant          = "GitHub token (defaults to GH_TOKEN, GITHUB_TOKEN, or GITHUB_API_TOKEN)"
	environmentFileFlagNameConstant = "env-file"
	environmentFileFlagUsageConst   = "Dotenv file merged into the environment before token resolution"
	fixLabelsFlagNameConstant       = "fix-labels"
	fixLabelsFlagUsageConstant      = "Create the missing standard labels"
	createIssuesFlagNameConstant    = "create-issues"
	createIssuesFlagUsageConstant   = "File a tracking issue per repository with compliance gaps"
	includeArchivedFlagNameConstant = "include-archived"
	includeArchivedFlagUsageConst   = "Audit archived repositories as well"
	emptyFlagShorthandConstant      = ""
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the compliance cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	Gateway               RepositoryGateway
}

// Build constructs the cobra command for the audit workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	var fixLabelsFlagValue bool
	var createIssuesFlagValue bool
	var includeArchivedFlagValue bool

	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, fixLabelsFlagValue, createIssuesFlagValue, includeArchivedFlagValue)
		},
	}

	command.Flags().String(organizationFlagNameConstant, "", organizationFlagUsageConstant)
	command.Flags().String(outputFlagNameConstant, "", outputFlagUsageConstant)
	command.Flags().String(tokenFlagNameConstant, "", tokenFlagUsageConstant)
	command.Flags().String(environmentFileFlagNameConstant, "", environmentFileFlagUsageConst)
	flags.AddToggleFlag(command.Flags(), &fixLabelsFlagValue, fixLabelsFlagNameConstant, emptyFlagShorthandConstant, false, fixLabelsFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &createIssuesFlagValue, createIssuesFlagNameConstant, emptyFlagShorthandConstant, false, createIssuesFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &includeArchivedFlagValue, includeArchivedFlagNameConstant, emptyFlagShorthandConstant, false, includeArchivedFlagUsageConst)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, fixLabelsFlagValue bool, createIssuesFlagValue bool, includeArchivedFlagValue bool) error {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration = configuration.sanitize()

	options, environmentFile := resolveOptions(command, configuration, fixLabelsFlagValue, createIssuesFlagValue, includeArchivedFlagValue)

	logger := builder.resolveLogger()
	gateway, gatewayError := builder.resolveGateway(command, environmentFile)
	if gatewayError != nil {
		return gatewayError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	service, serviceError := NewService(gateway, logger, SystemClock{}, outputWriter)
	if serviceError != nil {
		return serviceError
	}

	return service.Run(command.Context(), options)
}

func resolveOptions(command *cobra.Command, configuration CommandConfiguration, fixLabelsFlagValue bool, createIssuesFlagValue bool, includeArchivedFlagValue bool) (CommandOptions, string) {
	options := CommandOptions{
		Organization:    configuration.Organization,
		OutputPath:      configuration.OutputPath,
		FixLabels:       configuration.FixLabels,
		CreateIssues:    configuration.CreateIssues,
		IncludeArchived: configuration.IncludeArchived,
	}
	environmentFile := configuration.EnvironmentFile

	commandFlags := command.Flags()
	if commandFlags.Changed(organizationFlagNameConstant) {
		if flagOrganization, flagError := commandFlags.GetString(organizationFlagNameConstant); flagError == nil {
			options.Organization = flagOrganization
		}
	}
	if commandFlags.Changed(outputFlagNameConstant) {
		if flagOutput, flagError := commandFlags.GetString(outputFlagNameConstant); flagError == nil && len(flagOutput) > 0 {
			options.OutputPath = flagOutput
		}
	}
	if commandFlags.Changed(environmentFileFlagNameConstant) {
		if flagEnvironmentFile, flagError := commandFlags.GetString(environmentFileFlagNameConstant); flagError == nil && len(flagEnvironmentFile) > 0 {
			environmentFile = flagEnvironmentFile
		}
	}
	if commandFlags.Changed(fixLabelsFlagNameConstant) {
		options.FixLabels = fixLabelsFlagValue
	}
	if commandFlags.Changed(createIssuesFlagNameConstant) {
		options.CreateIssues = createIssuesFlagValue
	}
	if commandFlags.Changed(includeArchivedFlagNameConstant) {
		options.IncludeArchived = includeArchivedFlagValue
	}

	return options, environmentFile
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

func (builder *CommandBuilder) resolveGateway(command *cobra.Command, environmentFile string) (RepositoryGateway, error) {
	if builder.Gateway != nil {
		return builder.Gateway, nil
	}

	environmentError := githubauth.LoadEnvironmentFile(environmentFile)
	if environmentError != nil {
		return nil, environmentError
	}

	explicitToken, _ := command.Flags().GetString(tokenFlagNameConstant)
	token, tokenError := githubauth.ResolveToken(explicitToken, nil)
	if tokenError != nil {
		return nil, tokenError
	}

	return NewRESTGateway(command.Context(), token)
}
