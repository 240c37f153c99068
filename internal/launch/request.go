// Package launch starts a single child process with explicit control over
// standard-stream wiring, working directory and credentials.
//
// The launch path is built on os.StartProcess, so the fork/exec window
// itself (the stretch between address-space duplication and the program
// replace, where only pre-built buffers and raw system calls are safe) is
// handled by the runtime. This package owns everything around that window:
// allocating the pipes before the fork, assembling the child's descriptor
// table, closing the child-only ends in the parent, and decoding any
// failure into a small fixed taxonomy.
package launch

import "errors"

// Disposition selects how one of the child's standard streams is wired.
type Disposition int

const (
	// Inherit passes the parent's descriptor through unchanged.
	Inherit Disposition = iota

	// Pipe connects the stream to a pipe whose other end stays in the
	// parent.
	Pipe

	// Discard connects the stream to the null device.
	Discard

	// Close leaves the descriptor closed in the child.
	Close
)

// String returns a human-readable name for the disposition.
func (d Disposition) String() string {
	switch d {
	case Inherit:
		return "inherit"
	case Pipe:
		return "pipe"
	case Discard:
		return "discard"
	case Close:
		return "close"
	default:
		return "unknown"
	}
}

// Request describes a single launch. It is consumed once by Start and not
// mutated.
type Request struct {
	// Argv is the argument vector. Argv[0] is resolved against PATH when
	// it contains no separator.
	Argv []string

	// Env is the child's complete environment in "KEY=value" form.
	// Nil means inherit the parent's environment.
	Env []string

	// Dir is an optional working directory for the child.
	Dir string

	// UID and GID optionally drop credentials in the child. The group is
	// dropped before the user; dropping the user first could strip the
	// privilege needed to change groups.
	UID *uint32
	GID *uint32

	// Stream dispositions.
	Stdin  Disposition
	Stdout Disposition
	Stderr Disposition

	// Progress requests an extra pipe installed on descriptor 3 in the
	// child, for out-of-band status reporting. The parent keeps the read
	// end.
	Progress bool
}

// ErrEmptyArgv is returned by Start when the request carries no command.
var ErrEmptyArgv = errors.New("launch: empty argument vector")
