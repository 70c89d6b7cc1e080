package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

const environmentEntryTemplateConstant = "%s=%s"

// OSCommandRunner executes shell commands through os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by the operating system.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run launches the command and captures its output streams. A non-zero exit
// code is reported through the result rather than as an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	argumentList := append([]string{}, command.Details.Arguments...)
	processHandle := exec.CommandContext(executionContext, string(command.Name), argumentList...)

	if len(command.Details.WorkingDirectory) > 0 {
		processHandle.Dir = command.Details.WorkingDirectory
	}
	if len(command.Details.EnvironmentVariables) > 0 {
		processHandle.Env = mergeEnvironment(command.Details.EnvironmentVariables)
	}
	if len(command.Details.StandardInput) > 0 {
		processHandle.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	capturedStandardOutput := bytes.Buffer{}
	capturedStandardError := bytes.Buffer{}
	processHandle.Stdout = &capturedStandardOutput
	processHandle.Stderr = &capturedStandardError

	runError := processHandle.Run()
	executionResult := ExecutionResult{
		StandardOutput: capturedStandardOutput.String(),
		StandardError:  capturedStandardError.String(),
	}
	if runError != nil {
		exitError := &exec.ExitError{}
		if !errors.As(runError, &exitError) {
			return ExecutionResult{}, runError
		}
		executionResult.ExitCode = exitError.ExitCode()
	}

	return executionResult, nil
}

func mergeEnvironment(additionalVariables map[string]string) []string {
	mergedEnvironment := append([]string{}, os.Environ()...)
	for variableName, variableValue := range additionalVariables {
		mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentEntryTemplateConstant, variableName, variableValue))
	}
	return mergedEnvironment
}
