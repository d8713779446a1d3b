package errors

type ExitCode int

const (
	GenericFailureExitCode ExitCode = 1

	// Chain document failures
	ReadConfigFailureExitCode  ExitCode = 70
	ParseConfigFailureExitCode ExitCode = 71
	InvalidChainExitCode       ExitCode = 72

	// Resolver failures
	ResolveFailureExitCode ExitCode = 80
	ReleaseFailureExitCode ExitCode = 81

	ServeFailureExitCode ExitCode = 90
)
