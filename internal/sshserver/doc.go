// SPDX-License-Identifier: MPL-2.0

// Package sshserver exposes the operation dispatcher over SSH using Wish.
//
// Each session command is one dispatch: "deploy prod1 --dry" runs the deploy
// operation with ["prod1", "--dry"] and the child's exit code becomes the
// session exit status. Sessions that request a pseudo-terminal run through the
// tty runtime; all other sessions stream stdout and stderr separately. Clients
// are authenticated against an authorized_keys file when one is configured.
package sshserver
