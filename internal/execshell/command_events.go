package execshell

// CommandEventObserver receives lifecycle notifications while a shell command
// runs. Observers must tolerate being called from any goroutine.
type CommandEventObserver interface {
	// CommandStarted fires immediately before the process launches.
	CommandStarted(command ShellCommand)
	// CommandCompleted fires once the process exits and supplies its result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed fires when the process could not produce a result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
