// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// StateCreated indicates the server has been created but not started.
	StateCreated State = iota
	// StateStarting indicates the server is binding its listener.
	StateStarting
	// StateRunning indicates the server is accepting sessions.
	StateRunning
	// StateStopping indicates the server is shutting down.
	StateStopping
	// StateStopped indicates the server has stopped (terminal state).
	StateStopped
	// StateFailed indicates the server failed to start or serve (terminal state).
	StateFailed
)

const (
	// DefaultAddress is loopback-only so an unauthenticated server is not
	// reachable from other hosts.
	DefaultAddress = "127.0.0.1:2222"

	defaultStartupTimeout  = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

var (
	// ErrInvalidSSHConfig is the sentinel error wrapped by InvalidSSHConfigError.
	ErrInvalidSSHConfig = errors.New("invalid SSH server config")

	// ErrNilDispatcher is returned by New without a dispatcher.
	ErrNilDispatcher = errors.New("sshserver: nil dispatcher")
)

type (
	// State represents the lifecycle state of the server.
	State int32

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Address is the host:port to listen on. Port 0 picks a free port.
		Address string
		// HostKeyPath is the server's private host key. It is generated on
		// first start when the file does not exist.
		HostKeyPath string
		// AuthorizedKeysPath lists the public keys allowed to connect. Empty
		// accepts every client.
		AuthorizedKeysPath string
		// AllowUnauthenticated permits an empty AuthorizedKeysPath on an
		// address other hosts can reach.
		AllowUnauthenticated bool
		// StartupTimeout bounds how long Start waits for the listener.
		StartupTimeout time.Duration
		// ShutdownTimeout bounds how long Stop waits for open sessions.
		ShutdownTimeout time.Duration
	}

	// InvalidSSHConfigError is returned when a Config has invalid fields.
	InvalidSSHConfigError struct {
		FieldErrors []error
	}
)

// String returns a human-readable representation of the server state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultConfig returns a loopback configuration. HostKeyPath must still be set.
func DefaultConfig() Config {
	return Config{
		Address:         DefaultAddress,
		StartupTimeout:  defaultStartupTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// Validate reports every invalid field of c.
func (c Config) Validate() error {
	var errs []error

	host, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		errs = append(errs, fmt.Errorf("address %q: %w", c.Address, err))
	} else if n, convErr := strconv.Atoi(port); convErr != nil || n < 0 || n > 65535 {
		errs = append(errs, fmt.Errorf("address %q: port must be in range 0-65535", c.Address))
	} else if strings.TrimSpace(host) == "" && host != "" {
		errs = append(errs, fmt.Errorf("address %q: host must not be blank", c.Address))
	}

	if strings.TrimSpace(c.HostKeyPath) == "" {
		errs = append(errs, errors.New("host key path must be non-empty"))
	}
	if err == nil && c.AuthorizedKeysPath == "" && !c.AllowUnauthenticated && !c.Loopback() {
		errs = append(errs, fmt.Errorf("address %q is reachable from other hosts: set authorized keys or allow unauthenticated access", c.Address))
	}
	if c.StartupTimeout < 0 {
		errs = append(errs, fmt.Errorf("startup timeout %s must not be negative", c.StartupTimeout))
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout %s must not be negative", c.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return &InvalidSSHConfigError{FieldErrors: errs}
	}
	return nil
}

// Loopback reports whether the configured host only accepts local connections.
func (c Config) Loopback() bool {
	host, _, err := net.SplitHostPort(c.Address)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Error implements the error interface for InvalidSSHConfigError.
func (e *InvalidSSHConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid SSH server config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidSSHConfig for errors.Is() compatibility.
func (e *InvalidSSHConfigError) Unwrap() error { return ErrInvalidSSHConfig }
