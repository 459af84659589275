// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pubpublica/pubctl/internal/dispatch"
	"github.com/pubpublica/pubctl/internal/runtime"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

type sessionKey string

// exitCodeKey holds the session's exit status for the logging middleware.
const exitCodeKey sessionKey = "pubctl.exit_code"

// dispatchMiddleware is the terminal handler: it runs the session command as
// one operation and exits the session with the child's status.
func (s *Server) dispatchMiddleware() wish.Middleware {
	return func(ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			code := s.dispatchSession(sess)
			sess.Context().SetValue(exitCodeKey, code)
			_ = sess.Exit(code) // The client may already be gone
		}
	}
}

// loggingMiddleware records every session with its command and outcome.
func (s *Server) loggingMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			s.sessions.Add(1)
			_, _, isPty := sess.Pty()
			logger := s.logger.With(
				"user", sess.User(),
				"remote", sess.RemoteAddr().String(),
				"command", sess.Command(),
				"pty", isPty,
			)
			logger.Info("session started")

			start := time.Now()
			next(sess)

			code, _ := sess.Context().Value(exitCodeKey).(int)
			logger.Info("session finished", "code", code, "duration", time.Since(start))
		}
	}
}

// dispatchSession returns the session exit status. Usage and startup errors
// are written to the session's stderr; a failing child has already streamed
// its own output.
func (s *Server) dispatchSession(sess ssh.Session) int {
	command := sess.Command()
	if len(command) == 0 {
		fmt.Fprintln(sess.Stderr(), "pubctl: no operation given")
		writeOperations(sess.Stderr(), s.dispatcher.Table())
		return int(runtime.ExitUsage)
	}

	stdin, release, err := sessionStdin(sess)
	if err != nil {
		fmt.Fprintf(sess.Stderr(), "pubctl: %v\n", err)
		return int(runtime.ExitFailure)
	}
	defer release()

	req := dispatch.Request{
		Operation: dispatch.OperationName(command[0]),
		Args:      command[1:],
		Mode:      s.sessionMode(sess),
		Stdin:     stdin,
		Stdout:    sess,
		Stderr:    sess.Stderr(),
	}

	res, err := s.dispatcher.Run(sess.Context(), req)
	code := exitCode(res, err)
	if err != nil && !errors.Is(err, dispatch.ErrChildProcessFailure) {
		fmt.Fprintf(sess.Stderr(), "pubctl: %v\n", err)
		var unknown *dispatch.UnknownOperationError
		if errors.As(err, &unknown) {
			writeOperations(sess.Stderr(), s.dispatcher.Table())
		}
	}
	return code
}

// sessionStdin relays the session's input through an OS pipe. The child gets
// the read end as a file, so a client that never closes its stdin cannot hold
// up Wait. release closes both ends once the operation has returned.
func sessionStdin(sess ssh.Session) (stdin *os.File, release func(), err error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("session stdin: %w", err)
	}
	go func() {
		_, _ = io.Copy(w, sess)
		_ = w.Close()
	}()
	return r, func() {
		_ = w.Close()
		_ = r.Close()
	}, nil
}

// sessionMode picks the tty runtime for sessions with a pseudo-terminal.
// Without one, a tty default falls back to native so stdout and stderr stay
// separate.
func (s *Server) sessionMode(sess ssh.Session) runtime.Mode {
	if _, _, isPty := sess.Pty(); isPty {
		return runtime.ModeTTY
	}
	if s.dispatcher.Mode() == runtime.ModeTTY {
		return runtime.ModeNative
	}
	return ""
}

// exitCode maps a dispatch outcome to a session exit status.
func exitCode(res *dispatch.Result, err error) int {
	var failure *dispatch.ChildProcessFailureError
	switch {
	case err == nil && res != nil:
		return int(res.ExitCode)
	case errors.As(err, &failure):
		return int(failure.ExitCode)
	case dispatch.IsUsageError(err):
		return int(runtime.ExitUsage)
	case res != nil && !res.ExitCode.IsSuccess():
		return int(res.ExitCode)
	default:
		return int(runtime.ExitFailure)
	}
}

func writeOperations(w io.Writer, table *dispatch.Table) {
	fmt.Fprintln(w, "available operations:")
	for _, op := range table.Operations() {
		fmt.Fprintf(w, "  %-32s %s\n", op.Usage(), op.Description)
	}
}
