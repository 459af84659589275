// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pubpublica/pubctl/internal/config"
	"github.com/pubpublica/pubctl/internal/issue"
	"github.com/pubpublica/pubctl/internal/sshserver"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// defaultHostKeyName is the host key file created in the settings directory
// when no host_key is configured.
const defaultHostKeyName = "host_ed25519"

// serveFlagValues holds the overrides of the serve settings.
type serveFlagValues struct {
	listen         string
	hostKey        string
	authorizedKeys string
	allowOpen      bool
}

// newServeCommand creates `pubctl serve`.
func newServeCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &serveFlagValues{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept operations over SSH",
		Long: `Accept operations over SSH.

Each session command is one operation with its arguments, for example:
  ssh -p 2222 localhost check docs/ --strict

The session exits with the operation's exit code. Sessions that request a
pty run under the tty runtime. When authorized_keys is set, only those keys
may connect. Without it, serve refuses an address other hosts can reach
unless --allow-unauthenticated is given.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, app, rootFlags, flags)
		},
	}
	cmd.Flags().StringVar(&flags.listen, "listen", "", "host:port to listen on (default from settings)")
	cmd.Flags().StringVar(&flags.hostKey, "host-key", "", "SSH host key path, created if missing")
	cmd.Flags().StringVar(&flags.authorizedKeys, "authorized-keys", "", "authorized_keys file restricting who may connect")
	cmd.Flags().BoolVar(&flags.allowOpen, "allow-unauthenticated", false, "accept any client on a non-loopback address")
	return cmd
}

func runServe(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *serveFlagValues) error {
	ctx := cmd.Context()
	ws, err := app.loadWorkspace(ctx, rootFlags)
	if err != nil {
		return app.fail(cmd, nil, err, issue.ConfigLoadFailedId)
	}
	// Session logs are the point of a server; never go quieter than info.
	if ws.logger.GetLevel() > log.InfoLevel {
		ws.logger.SetLevel(log.InfoLevel)
	}

	cfg, err := serveConfig(ws.cfg, flags)
	if err != nil {
		return app.fail(cmd, ws, err, issue.ServeFailedId)
	}

	d, err := app.dispatcher(ws, "")
	if err != nil {
		return app.fail(cmd, ws, err, issue.ServeFailedId)
	}

	srv, err := sshserver.New(cfg, d, sshserver.WithLogger(ws.logger))
	if err != nil {
		return app.fail(cmd, ws, usageError(err), issue.ServeFailedId)
	}
	if err := srv.Start(ctx); err != nil {
		return app.fail(cmd, ws, err, issue.ServeFailedId)
	}

	fmt.Fprintf(app.stdout, "%s Serving %s operations on %s (Ctrl+C to stop)\n",
		okStyle.Render("✓"), ws.root, keyStyle.Render(srv.Address()))

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-srv.Err():
	}

	if err := srv.Stop(); err != nil {
		serveErr = errors.Join(serveErr, err)
	}
	ws.logger.Info("server stopped", "sessions", srv.Sessions())
	if serveErr != nil {
		return app.fail(cmd, ws, serveErr, issue.ServeFailedId)
	}
	return nil
}

// serveConfig merges the serve settings with the command-line overrides.
func serveConfig(cfg *config.Config, flags *serveFlagValues) (sshserver.Config, error) {
	out := sshserver.DefaultConfig()
	out.Address = firstNonEmpty(flags.listen, cfg.Serve.Listen, out.Address)
	out.AuthorizedKeysPath = firstNonEmpty(flags.authorizedKeys, cfg.Serve.AuthorizedKeys)
	out.HostKeyPath = firstNonEmpty(flags.hostKey, cfg.Serve.HostKey)
	out.AllowUnauthenticated = flags.allowOpen || cfg.Serve.AllowUnauthenticated

	if out.HostKeyPath == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return out, fmt.Errorf("locate host key directory: %w", err)
		}
		out.HostKeyPath = filepath.Join(dir, defaultHostKeyName)
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
