package log

import (
	"fmt"
	"strings"
)

// Error codes for all application errors
const (
	// Configuration errors (1xx)
	ErrConfigReadFailed  = "E101" // Error reading configuration file
	ErrConfigParseFailed = "E102" // Error parsing configuration file

	// Repository errors (3xx)
	ErrRepoInvalidPath  = "E302" // Invalid repository path
	ErrRepoNotGit       = "E303" // Not a git repository
	ErrRepoDetachedHead = "E304" // HEAD is not on a branch

	// History operation errors (4xx)
	ErrHistoryReadFailed  = "E401" // Failed to read release history file
	ErrHistoryWriteFailed = "E402" // Failed to write release history file

	// Release errors (5xx)
	ErrInvalidVersionInput         = "E501" // Version or release level cannot be planned
	ErrCredentialHelperUnavailable = "E502" // No credential helper for an https remote
	ErrRemoteAuthFailure           = "E503" // Remote refused our credentials
	ErrCloneFailure                = "E504" // Failed to clone the upstream repository
	ErrHistoryWalkFailure          = "E505" // Failed to walk commit history
	ErrPushFailure                 = "E506" // One or more refs did not land on the remote
	ErrVersionBumpFailed           = "E507" // Version bump tool failed
	ErrManifestFailed              = "E508" // Manifest could not be read or written

	// General errors (9xx)
	ErrInvalidArgument = "E901" // Invalid argument passed
	ErrOperationFailed = "E999" // Generic operation failed
)

// FormatError formats an error with a consistent structure including the error code
func FormatError(code string, description string, err error) string {
	if err != nil {
		return fmt.Sprintf("[%s] %s: %v", code, description, err)
	}
	return fmt.Sprintf("[%s] %s", code, description)
}

// GetErrorCode extracts the error code from a formatted error message
func GetErrorCode(errorMsg string) string {
	if strings.HasPrefix(errorMsg, "[E") && len(errorMsg) >= 6 {
		return errorMsg[1:5]
	}
	return ""
}
