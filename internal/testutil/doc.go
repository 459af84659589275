// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test helpers shared by the runtime, dispatch and
// sshserver tests. Its main job is building fake virtual environments whose
// interpreter is a shell script (FakeVenv, FakeInterpreterScript), so tests
// start real processes without Python installed.
package testutil
