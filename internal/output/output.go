// Package output provides shared output formatting for the command line
// interface. All user-facing CLI messages go through these helpers so the
// format stays consistent across commands.
package output

import (
	"fmt"
	"os"
)

// PrintErrorf prints an error message to stderr with formatting.
// This function should be used for displaying error messages to users
// in a consistent format across the application.
//
// Parameters:
//   - format: The format string for the error message
//   - args: Optional arguments for the format string
func PrintErrorf(format string, args ...any) {
	_, err := fmt.Fprintf(os.Stderr, format+"\n", args...)
	if err != nil {
		return
	}
}

// Printf prints a formatted message to stdout.
func Printf(format string, args ...any) {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	if err != nil {
		return
	}
}

// Println prints a message to stdout followed by a newline.
func Println(args ...any) {
	_, err := fmt.Fprintln(os.Stdout, args...)
	if err != nil {
		return
	}
}
