package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jon-the-dev/repofleet/internal/execshell"
	"github.com/jon-the-dev/repofleet/internal/ui"
)

const (
	testSuccessEventCaseNameConstant = "success_event"
	testFailureEventCaseNameConstant = "failure_event"
	testRunnerFaultCaseNameConstant  = "execution_failure_event"
	testCommandArgumentConstant      = "api"
	testRateLimitPathConstant        = "rate_limit"
)

func buildObservedEventLogger() (*ui.ConsoleCommandEventLogger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	return ui.NewConsoleCommandEventLogger(zap.New(observerCore)), observedLogs
}

func buildSampleCommand() execshell.ShellCommand {
	return execshell.ShellCommand{
		Name:    execshell.CommandGitHub,
		Details: execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant, testRateLimitPathConstant}},
	}
}

func TestConsoleCommandEventLoggerMessages(testInstance *testing.T) {
	testCases := []struct {
		name            string
		emit            func(eventLogger *ui.ConsoleCommandEventLogger)
		expectedMessage string
	}{
		{
			name: testSuccessEventCaseNameConstant,
			emit: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandCompleted(buildSampleCommand(), execshell.ExecutionResult{ExitCode: 0})
			},
			expectedMessage: "Completed gh api rate_limit",
		},
		{
			name: testFailureEventCaseNameConstant,
			emit: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandCompleted(buildSampleCommand(), execshell.ExecutionResult{ExitCode: 1, StandardError: "denied"})
			},
			expectedMessage: "gh api rate_limit failed with exit code 1: denied",
		},
		{
			name: testRunnerFaultCaseNameConstant,
			emit: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandExecutionFailed(buildSampleCommand(), errors.New("binary missing"))
			},
			expectedMessage: "gh api rate_limit failed: binary missing",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			eventLogger, observedLogs := buildObservedEventLogger()
			testCase.emit(eventLogger)
			loggedEntries := observedLogs.All()
			require.Len(testInstance, loggedEntries, 1)
			require.Equal(testInstance, testCase.expectedMessage, loggedEntries[0].Message)
		})
	}
}

func TestConsoleCommandEventLoggerToleratesNilLogger(testInstance *testing.T) {
	eventLogger := ui.NewConsoleCommandEventLogger(nil)
	require.NotNil(testInstance, eventLogger)
	eventLogger.CommandStarted(buildSampleCommand())
}
