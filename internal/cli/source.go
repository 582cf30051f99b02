package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// readInput reads path, or in when path is "-".
func readInput(path string, in io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", path), err)
	}
	return string(data), nil
}

// sourceLine returns the 1-based line n of text.
func sourceLine(text string, n int) (string, bool) {
	if n <= 0 || text == "" {
		return "", false
	}
	lines := strings.Split(text, "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}
