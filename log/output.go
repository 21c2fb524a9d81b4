package log

import (
	"fmt"
	"io"
	"os"
)

// FormatWarning formats a warning message with a consistent structure
func FormatWarning(message string) string {
	return fmt.Sprintf("[WARN] %s", message)
}

// FormatSuccess formats a success message with a consistent structure
func FormatSuccess(message string) string {
	return fmt.Sprintf("[SUCCESS] %s", message)
}

// FormatInfo formats an info message with a consistent structure
func FormatInfo(message string) string {
	return fmt.Sprintf("[INFO] %s", message)
}

// PrintError prints an error message with the appropriate error code and exits with code 1
func PrintError(code string, description string, err error) {
	fmt.Fprintln(os.Stderr, FormatError(code, description, err))
	os.Exit(1)
}

// PrintErrorNoExit prints an error message with the appropriate error code without exiting
func PrintErrorNoExit(code string, description string, err error) {
	fmt.Fprintln(os.Stderr, FormatError(code, description, err))
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Println(FormatInfo(message))
}

// PrintOutcome writes an already formatted outcome line. Lines carrying an
// error code go to errOut, everything else to out.
func PrintOutcome(out, errOut io.Writer, line string) {
	if GetErrorCode(line) != "" {
		fmt.Fprintln(errOut, line)
		return
	}
	fmt.Fprintln(out, line)
}
