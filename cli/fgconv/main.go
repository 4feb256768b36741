// Package main is the fgconv command itself.
package main

import (
	"fmt"
	"os"

	"github.com/MarineRoboticsGroup/go-factor-graph/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app.Name, err)
		os.Exit(1)
	}
}
