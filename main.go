// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pubpublica/pubctl/cmd/pubctl"

func main() {
	cmd.Execute()
}
