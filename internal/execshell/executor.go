package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	githubCLICommandNameConstant         = "gh"
	commandStartedMessageConstant        = "shell command started"
	commandCompletedMessageConstant      = "shell command completed"
	commandFailedMessageConstant         = "shell command failed"
	commandFieldNameConstant             = "command"
	argumentsFieldNameConstant           = "arguments"
	exitCodeFieldNameConstant            = "exit_code"
	standardErrorFieldNameConstant       = "stderr"
	commandFailureTemplateConstant       = "%s %s exited with code %d: %s"
	commandExecutionTemplateConstant     = "%s %s execution failed: %v"
	argumentsJoinSeparatorConstant       = " "
	loggerNotConfiguredMessageConstant   = "shell executor requires a logger"
	runnerNotConfiguredMessageConstant   = "shell executor requires a command runner"
	defaultCommandTimeoutDurationConstant = 60 * time.Second
)

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a command runner.
	ErrCommandRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
)

// CommandName identifies the external executable being invoked.
type CommandName string

const (
	// CommandGitHub identifies the GitHub CLI executable.
	CommandGitHub CommandName = CommandName(githubCLICommandNameConstant)
)

// CommandDetails captures the inputs required to run a shell command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	Timeout              time.Duration
}

// ShellCommand couples an executable name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outputs of a completed command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands and reports their results.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command including its exit code and stderr.
func (failure CommandFailedError) Error() string {
	return fmt.Sprintf(
		commandFailureTemplateConstant,
		failure.Command.Name,
		strings.Join(failure.Command.Details.Arguments, argumentsJoinSeparatorConstant),
		failure.Result.ExitCode,
		strings.TrimSpace(failure.Result.StandardError),
	)
}

// CommandExecutionError reports a command that could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(
		commandExecutionTemplateConstant,
		failure.Command.Name,
		strings.Join(failure.Command.Details.Arguments, argumentsJoinSeparatorConstant),
		failure.Cause,
	)
}

// Unwrap exposes the underlying cause for errors.Is inspection.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ShellExecutor coordinates command execution with logging and event observation.
type ShellExecutor struct {
	logger   *zap.Logger
	runner   CommandRunner
	observer CommandEventObserver
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	return NewShellExecutorWithObserver(logger, runner, noopCommandEventObserver{})
}

// NewShellExecutorWithObserver constructs a ShellExecutor that forwards lifecycle events to the observer.
func NewShellExecutorWithObserver(logger *zap.Logger, runner CommandRunner, observer CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	if observer == nil {
		observer = noopCommandEventObserver{}
	}
	return &ShellExecutor{logger: logger, runner: runner, observer: observer}, nil
}

// ExecuteGitHubCLI runs the GitHub CLI with the provided details.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandGitHub, Details: details})
}

func (executor *ShellExecutor) execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(
		commandStartedMessageConstant,
		zap.String(commandFieldNameConstant, string(command.Name)),
		zap.Strings(argumentsFieldNameConstant, command.Details.Arguments),
	)
	executor.observer.CommandStarted(command)

	commandTimeout := command.Details.Timeout
	if commandTimeout <= 0 {
		commandTimeout = defaultCommandTimeoutDurationConstant
	}
	timeoutContext, cancelTimeout := context.WithTimeout(executionContext, commandTimeout)
	defer cancelTimeout()

	executionResult, runError := executor.runner.Run(timeoutContext, command)
	if runError != nil {
		executionFailure := CommandExecutionError{Command: command, Cause: runError}
		executor.logger.Error(
			commandFailedMessageConstant,
			zap.String(commandFieldNameConstant, string(command.Name)),
			zap.Strings(argumentsFieldNameConstant, command.Details.Arguments),
			zap.Error(runError),
		)
		executor.observer.CommandExecutionFailed(command, executionFailure)
		return ExecutionResult{}, executionFailure
	}

	if executionResult.ExitCode != 0 {
		commandFailure := CommandFailedError{Command: command, Result: executionResult}
		executor.logger.Debug(
			commandCompletedMessageConstant,
			zap.String(commandFieldNameConstant, string(command.Name)),
			zap.Strings(argumentsFieldNameConstant, command.Details.Arguments),
			zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
			zap.String(standardErrorFieldNameConstant, strings.TrimSpace(executionResult.StandardError)),
		)
		executor.observer.CommandCompleted(command, executionResult)
		return executionResult, commandFailure
	}

	executor.logger.Debug(
		commandCompletedMessageConstant,
		zap.String(commandFieldNameConstant, string(command.Name)),
		zap.Strings(argumentsFieldNameConstant, command.Details.Arguments),
		zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
	)
	executor.observer.CommandCompleted(command, executionResult)
	return executionResult, nil
}
