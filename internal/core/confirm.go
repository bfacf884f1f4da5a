package core

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReaderConfirmer reads y/n answers line by line from an input stream. Used
// when stdin is not a terminal (piped answers, scripts) so confirmation
// gates still work without the interactive prompt UI.
type ReaderConfirmer struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewReaderConfirmer creates a ReaderConfirmer reading from r and prompting
// on out.
func NewReaderConfirmer(r io.Reader, out io.Writer) *ReaderConfirmer {
	return &ReaderConfirmer{scanner: bufio.NewScanner(r), out: out}
}

// Confirm prints the prompt and interprets the next input line. Anything but
// an explicit yes declines; end of input declines too, so a truncated answer
// stream can never wave a mutation through.
func (c *ReaderConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return false, fmt.Errorf("reading answer: %w", err)
		}
		fmt.Fprintln(c.out)
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(c.scanner.Text()))
	return answer == "y" || answer == "yes", nil
}
