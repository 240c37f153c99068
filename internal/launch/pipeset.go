package launch

import (
	"fmt"
	"os"
)

// PipeSet holds the parent-side endpoints of the pipes allocated for a
// launch, plus the child-side endpoints until they have been handed to the
// child and closed in the parent.
//
// Every endpoint is owned by exactly one process after launch. A write end
// leaked into the wrong process is a permanent hang hazard: the reader
// never sees EOF. os.Pipe creates both descriptors with close-on-exec
// already set, so a concurrently launched sibling cannot inherit a stray
// copy between allocation and wiring.
type PipeSet struct {
	// Parent-side endpoints, nil when the disposition did not ask for a
	// pipe.
	StdinW    *os.File
	StdoutR   *os.File
	StderrR   *os.File
	ProgressR *os.File

	// Child-side endpoints, closed in the parent right after the child
	// has started (or after a failed start).
	childStdinR    *os.File
	childStdoutW   *os.File
	childStderrW   *os.File
	childProgressW *os.File
}

// allocate creates exactly the pipes the request's dispositions call for.
// On any allocation failure the pipes already created are torn down before
// the error surfaces.
func allocate(req Request) (*PipeSet, error) {
	ps := &PipeSet{}

	fail := func(name string, err error) (*PipeSet, error) {
		ps.Close()
		return nil, fmt.Errorf("launch: allocating %s pipe: %w", name, err)
	}

	if req.Stdin == Pipe {
		r, w, err := os.Pipe()
		if err != nil {
			return fail("stdin", err)
		}
		ps.childStdinR, ps.StdinW = r, w
	}
	if req.Stdout == Pipe {
		r, w, err := os.Pipe()
		if err != nil {
			return fail("stdout", err)
		}
		ps.StdoutR, ps.childStdoutW = r, w
	}
	if req.Stderr == Pipe {
		r, w, err := os.Pipe()
		if err != nil {
			return fail("stderr", err)
		}
		ps.StderrR, ps.childStderrW = r, w
	}
	if req.Progress {
		r, w, err := os.Pipe()
		if err != nil {
			return fail("progress", err)
		}
		ps.ProgressR, ps.childProgressW = r, w
	}

	return ps, nil
}

// closeChildEnds closes the endpoints that crossed into the child. Called
// in the parent once the child owns its copies, on success and failure
// alike.
func (ps *PipeSet) closeChildEnds() {
	for _, f := range []**os.File{
		&ps.childStdinR, &ps.childStdoutW, &ps.childStderrW, &ps.childProgressW,
	} {
		if *f != nil {
			(*f).Close()
			*f = nil
		}
	}
}

// Close releases every endpoint still held. Idempotent and safe on a
// partially populated set.
func (ps *PipeSet) Close() error {
	if ps == nil {
		return nil
	}
	ps.closeChildEnds()
	for _, f := range []**os.File{
		&ps.StdinW, &ps.StdoutR, &ps.StderrR, &ps.ProgressR,
	} {
		if *f != nil {
			(*f).Close()
			*f = nil
		}
	}
	return nil
}
