package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jon-the-dev/repofleet/internal/execshell"
)

const (
	commandStartedTemplateConstant   = "Running %s"
	commandCompletedTemplateConstant = "Completed %s"
	commandExitCodeTemplateConstant  = "%s failed with exit code %d"
	commandFailureTemplateConstant   = "%s failed: %s"
	commandLabelSeparatorConstant    = " "
	unknownFailureMessageConstant    = "unknown error"
)

// ConsoleCommandEventLogger echoes shell command lifecycle events through a
// zap logger configured for console output. It satisfies
// execshell.CommandEventObserver.
type ConsoleCommandEventLogger struct {
	logger *zap.Logger
}

// NewConsoleCommandEventLogger constructs an event logger; a nil zap logger
// degrades to a no-op.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted logs the command line about to run.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Debug(fmt.Sprintf(commandStartedTemplateConstant, describeCommand(command)))
}

// CommandCompleted logs completion, warning when the exit code is non-zero.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	if result.ExitCode == 0 {
		eventLogger.logger.Debug(fmt.Sprintf(commandCompletedTemplateConstant, describeCommand(command)))
		return
	}
	eventLogger.logger.Warn(describeNonZeroExit(command, result))
}

// CommandExecutionFailed logs failures that produced no execution result.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	eventLogger.logger.Error(fmt.Sprintf(commandFailureTemplateConstant, describeCommand(command), failureMessage))
}

func describeNonZeroExit(command execshell.ShellCommand, result execshell.ExecutionResult) string {
	exitMessage := fmt.Sprintf(commandExitCodeTemplateConstant, describeCommand(command), result.ExitCode)
	trimmedStandardError := strings.TrimSpace(result.StandardError)
	if len(trimmedStandardError) == 0 {
		return exitMessage
	}
	return exitMessage + ": " + trimmedStandardError
}

func describeCommand(command execshell.ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel += commandLabelSeparatorConstant + strings.Join(command.Details.Arguments, commandLabelSeparatorConstant)
	}
	return commandLabel
}
