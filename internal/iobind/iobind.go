// Package iobind resolves the evaluator's input and output endpoints.
//
// An endpoint is either a named file, which the handle owns and closes, or a
// borrowed standard stream, whose Close is a no-op. Callers always defer Close.
package iobind

import (
	"fmt"
	"io"
	"os"
)

// StdStream is the name that explicitly selects the standard stream.
const StdStream = "-"

// ResourceError reports a named endpoint that could not be opened.
type ResourceError struct {
	Resource string
	Op       string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("failed to open %s for %s: %v", e.Resource, e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Input is a readable endpoint.
type Input struct {
	io.Reader
	name   string
	closer io.Closer
}

// OpenInput opens name for reading, or borrows stdin when name is empty or "-".
func OpenInput(name string, stdin io.Reader) (*Input, error) {
	if name == "" || name == StdStream {
		return &Input{Reader: stdin, name: "stdin"}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, &ResourceError{Resource: name, Op: "reading", Err: err}
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		f.Close()
		return nil, &ResourceError{Resource: name, Op: "reading", Err: fmt.Errorf("is a directory")}
	}

	return &Input{Reader: f, name: name, closer: f}, nil
}

// Name returns the file name, or "stdin" for the borrowed stream.
func (in *Input) Name() string {
	return in.name
}

// Owned reports whether Close releases an underlying file.
func (in *Input) Owned() bool {
	return in.closer != nil
}

// Close releases an owned file. Safe to call more than once.
func (in *Input) Close() error {
	if in == nil || in.closer == nil {
		return nil
	}
	c := in.closer
	in.closer = nil
	return c.Close()
}

// Output is a writable endpoint.
type Output struct {
	io.Writer
	name string
	file *os.File
}

// OpenOutput creates (truncating) name for writing, or borrows stdout when name
// is empty or "-".
func OpenOutput(name string, stdout io.Writer) (*Output, error) {
	if name == "" || name == StdStream {
		return &Output{Writer: stdout, name: "stdout"}, nil
	}

	f, err := os.Create(name)
	if err != nil {
		return nil, &ResourceError{Resource: name, Op: "writing", Err: err}
	}

	return &Output{Writer: f, name: name, file: f}, nil
}

// Name returns the file name, or "stdout" for the borrowed stream.
func (out *Output) Name() string {
	return out.name
}

// Owned reports whether Close releases an underlying file.
func (out *Output) Owned() bool {
	return out.file != nil
}

// Close syncs and closes an owned file. Safe to call more than once.
func (out *Output) Close() error {
	if out == nil || out.file == nil {
		return nil
	}
	f := out.file
	out.file = nil

	syncErr := f.Sync()
	if err := f.Close(); err != nil {
		return err
	}
	return syncErr
}
