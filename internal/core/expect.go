package core

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ExpectStep is one prompt/response pair of a scripted interaction. The
// pattern is a case-insensitive substring matched against buffered
// subprocess output.
type ExpectStep struct {
	Pattern  string
	Response string
}

// DriveScript answers an ordered sequence of prompts read from r by writing
// responses to w. Steps are consumed strictly in order: a prompt matching a
// later step does not satisfy an earlier one, so an unexpected prompt ends
// in an error instead of a silently wrong answer. Subprocess output is
// mirrored to echo as it is consumed.
func DriveScript(r io.Reader, w io.WriteCloser, steps []ExpectStep, echo io.Writer) error {
	defer func() { _ = w.Close() }()

	var buf strings.Builder
	chunk := make([]byte, 4096)
	step := 0

	for step < len(steps) {
		n, err := r.Read(chunk)
		if n > 0 {
			if echo != nil {
				_, _ = echo.Write(chunk[:n])
			}
			buf.Write(chunk[:n])

			// A single read can carry several prompts; answer all of them
			// in order.
			for step < len(steps) {
				have := strings.ToLower(buf.String())
				idx := strings.Index(have, strings.ToLower(steps[step].Pattern))
				if idx < 0 {
					break
				}
				if _, werr := io.WriteString(w, steps[step].Response+"\n"); werr != nil {
					return fmt.Errorf("answering prompt %q: %w", steps[step].Pattern, werr)
				}
				rest := buf.String()[idx+len(steps[step].Pattern):]
				buf.Reset()
				buf.WriteString(rest)
				step++
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("reading subprocess output: %w", err)
		}
	}

	if step < len(steps) {
		return fmt.Errorf("subprocess output ended before prompt %q (answered %d of %d)",
			steps[step].Pattern, step, len(steps))
	}

	// Drain the remainder so the subprocess never blocks on a full pipe.
	if echo != nil {
		_, _ = io.Copy(echo, r)
	} else {
		_, _ = io.Copy(io.Discard, r)
	}
	return nil
}

// RunScripted executes cmd while answering its prompts with the given steps.
// Stdout and stderr are merged, since installers prompt on either.
func RunScripted(cmd *exec.Cmd, steps []ExpectStep, echo io.Writer) error {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("opening stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("opening stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", cmd.Path, err)
	}

	scriptErr := DriveScript(stdout, stdin, steps, echo)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("installer exited: %w", err)
	}
	return scriptErr
}
