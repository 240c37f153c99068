package launch

import (
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Start launches the child described by req and returns a live Handle.
//
// Everything the post-fork code path needs (argument and environment
// buffers, the descriptor table, credentials) is assembled here, before
// the process image is duplicated. The runtime's fork/exec then only reads
// pre-built state; a failure inside that window travels back over a
// one-shot close-on-exec pipe and surfaces as the returned error, decoded
// into the launch failure taxonomy. A successful program replace closes
// that pipe with nothing written, so a bad executable is reported
// deterministically, not by timeout.
func Start(req Request) (*Handle, error) {
	if len(req.Argv) == 0 {
		return nil, ErrEmptyArgv
	}

	path, err := resolvePath(req.Argv[0])
	if err != nil {
		return nil, decode("lookpath", err)
	}

	ps, err := allocate(req)
	if err != nil {
		return nil, &Error{Code: CodeResources, Op: "pipe", Err: err}
	}

	files, extras, err := descriptorTable(req, ps)
	if err != nil {
		ps.Close()
		closeAll(extras)
		return nil, &Error{Code: CodeResources, Op: "null", Err: err}
	}

	env := req.Env
	if env == nil {
		env = os.Environ()
	}

	attr := &os.ProcAttr{
		Dir:   req.Dir,
		Env:   env,
		Files: files,
		Sys:   sysAttr(req),
	}

	proc, err := os.StartProcess(path, req.Argv, attr)

	// The child owns its copies now (or never existed); either way the
	// parent must drop the child-side ends or readers never see EOF.
	ps.closeChildEnds()
	closeAll(extras)

	if err != nil {
		ps.Close()
		return nil, decode("start", err)
	}

	return &Handle{
		Pid:     proc.Pid,
		Pipes:   ps,
		proc:    proc,
		started: time.Now(),
	}, nil
}

// resolvePath resolves a bare command name against PATH. Names containing
// a separator are used as-is, matching execvp semantics.
func resolvePath(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		if _, err := os.Stat(name); err != nil {
			return "", err
		}
		return name, nil
	}
	return exec.LookPath(name)
}

// descriptorTable builds the child's descriptor table: index n becomes
// descriptor n after the program replace. A nil slot leaves the
// descriptor closed in the child. extras collects files opened purely for
// wiring (the null device) that the parent closes after the start call.
//
// The progress pipe sits at descriptor 3, appended after the standard
// streams; the working-directory change happens before any descriptor is
// installed there, so a directory handle can never alias slot 3.
func descriptorTable(req Request, ps *PipeSet) (files []*os.File, extras []*os.File, err error) {
	null := func() (*os.File, error) {
		f, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		if err != nil {
			return nil, err
		}
		extras = append(extras, f)
		return f, nil
	}

	slot := func(d Disposition, inherit *os.File, pipeEnd *os.File) (*os.File, error) {
		switch d {
		case Pipe:
			return pipeEnd, nil
		case Discard:
			return null()
		case Close:
			return nil, nil
		default:
			return inherit, nil
		}
	}

	stdin, err := slot(req.Stdin, os.Stdin, ps.childStdinR)
	if err != nil {
		return nil, extras, err
	}
	stdout, err := slot(req.Stdout, os.Stdout, ps.childStdoutW)
	if err != nil {
		return nil, extras, err
	}
	stderr, err := slot(req.Stderr, os.Stderr, ps.childStderrW)
	if err != nil {
		return nil, extras, err
	}

	files = []*os.File{stdin, stdout, stderr}
	if req.Progress {
		files = append(files, ps.childProgressW)
	}
	return files, extras, nil
}

// sysAttr builds the credential drop, when requested. The runtime applies
// the group before the user.
func sysAttr(req Request) *syscall.SysProcAttr {
	if req.UID == nil && req.GID == nil {
		return nil
	}
	cred := &syscall.Credential{
		Uid: uint32(os.Getuid()),
		Gid: uint32(os.Getgid()),
	}
	if req.UID != nil {
		cred.Uid = *req.UID
	}
	if req.GID != nil {
		cred.Gid = *req.GID
	}
	return &syscall.SysProcAttr{Credential: cred}
}

func closeAll(files []*os.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}
