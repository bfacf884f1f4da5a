package core

import (
	"context"
	"strings"
)

// fakeRunner records commands instead of executing them. Mutating commands
// (Run) and read-only queries (Output) are recorded separately so tests can
// assert that converged reconcilers issue zero mutations.
type fakeRunner struct {
	calls   []string // Run invocations, as full command lines
	queries []string // Output invocations

	outputs map[string]string // command line or command name -> stdout
	errs    map[string]error  // command line or command name -> error
	paths   map[string]string // LookPath results
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: map[string]string{},
		errs:    map[string]error{},
		paths:   map[string]string{},
	}
}

func (r *fakeRunner) lookup(m map[string]error, line, name string) error {
	if err, ok := m[line]; ok {
		return err
	}
	return m[name]
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	line := commandLine(name, args)
	r.calls = append(r.calls, line)
	return r.lookup(r.errs, line, name)
}

func (r *fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	line := commandLine(name, args)
	r.queries = append(r.queries, line)
	if err := r.lookup(r.errs, line, name); err != nil {
		return "", err
	}
	if out, ok := r.outputs[line]; ok {
		return out, nil
	}
	return r.outputs[name], nil
}

func (r *fakeRunner) LookPath(name string) (string, error) {
	if path, ok := r.paths[name]; ok {
		return path, nil
	}
	return "", &lookPathError{name: name}
}

// callsWithPrefix returns the recorded Run invocations starting with prefix.
func (r *fakeRunner) callsWithPrefix(prefix string) []string {
	var matched []string
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			matched = append(matched, c)
		}
	}
	return matched
}

type lookPathError struct{ name string }

func (e *lookPathError) Error() string { return e.name + ": executable file not found" }
