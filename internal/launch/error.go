package launch

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"syscall"
)

// Code classifies a launch failure. Anything the OS can report between the
// process-image duplication and the program replace collapses into one of
// these.
type Code int

const (
	// CodeUnknown covers failures with no specific classification.
	CodeUnknown Code = iota

	// CodeNotFound means the executable does not exist or was not found
	// on PATH.
	CodeNotFound

	// CodePermission means the executable or working directory was not
	// accessible, or a credential drop was refused.
	CodePermission

	// CodeBadDir means the requested working directory is not a
	// directory.
	CodeBadDir

	// CodeResources means descriptor or memory exhaustion before or
	// during the launch.
	CodeResources
)

// String returns a human-readable name for the code.
func (c Code) String() string {
	switch c {
	case CodeNotFound:
		return "not found"
	case CodePermission:
		return "permission denied"
	case CodeBadDir:
		return "bad working directory"
	case CodeResources:
		return "resource exhaustion"
	default:
		return "unknown"
	}
}

// Error is a decoded launch failure.
type Error struct {
	Code Code
	Op   string // "lookpath", "start"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("launch %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// decode maps an os-level start failure onto the launch failure taxonomy.
func decode(op string, err error) *Error {
	code := CodeUnknown

	var errno syscall.Errno
	switch {
	case errors.As(err, &errno):
		code = codeForErrno(errno)
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, exec.ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, fs.ErrPermission):
		code = CodePermission
	}

	// PathError wrapping an errno is the usual shape from StartProcess.
	var pe *fs.PathError
	if code == CodeUnknown && errors.As(err, &pe) {
		if e, ok := pe.Err.(syscall.Errno); ok {
			code = codeForErrno(e)
		}
	}

	return &Error{Code: code, Op: op, Err: err}
}

func codeForErrno(errno syscall.Errno) Code {
	switch errno {
	case syscall.ENOENT:
		return CodeNotFound
	case syscall.EACCES, syscall.EPERM:
		return CodePermission
	case syscall.ENOTDIR:
		return CodeBadDir
	case syscall.EMFILE, syscall.ENFILE, syscall.EAGAIN, syscall.ENOMEM:
		return CodeResources
	case syscall.ENOEXEC:
		return CodeNotFound
	default:
		return CodeUnknown
	}
}
