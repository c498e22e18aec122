// Package main is the single-binary entrypoint for Workstake.
// One binary runs the marketplace daemon and the operator CLI.
package main

import "github.com/workstake-network/workstake/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
