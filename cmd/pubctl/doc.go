// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the pubctl command tree.
//
// Every pubpublica operation is a subcommand whose arguments after the first
// positional are passed to the script verbatim. pubctl's own flags carry a
// --pc- prefix so they never collide with script flags.
package cmd
