// Package cli contains the fgconv command line interface.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"

	tumFlagOut          = "out"
	tumFlagMeasured     = "measured"
	tumFlagBoth         = "both"
	tumFlagUseOrdinal   = "use-ordinal"
	tumFlagDimension    = "dimension"
	precisionFlagDigits = "digits"
	compareFlagTolerant = "tolerant"
)

var precisionFlag = &cli.IntFlag{
	Name:  precisionFlagDigits,
	Usage: "render every numeric class with `N` fractional digits instead of the configured precision",
	Value: -1,
}

var app = &cli.App{
	Name:            "fgconv",
	Usage:           "convert factor graphs between PyFG and TUM trajectory files",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    generalFlagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  generalFlagLogFile,
			Usage: "also write logs to `FILE`",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "tum",
			Usage:     "export each robot's trajectory of a PyFG file to a TUM file",
			ArgsUsage: "<pyfg file>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     tumFlagOut,
					Aliases:  []string{"o"},
					Usage:    "existing `DIR` to write the TUM files to",
					Required: true,
				},
				&cli.BoolFlag{
					Name:  tumFlagMeasured,
					Usage: "export the trajectories obtained by chaining odometry instead of the ground truth",
				},
				&cli.BoolFlag{
					Name:  tumFlagBoth,
					Usage: "export both the ground truth and the chained odometry",
				},
				&cli.BoolFlag{
					Name:  tumFlagUseOrdinal,
					Usage: "time poses without a timestamp by their position in the trajectory instead of their index",
				},
				&cli.IntFlag{
					Name:  tumFlagDimension,
					Usage: "reject input that is not 2 or 3 dimensional",
				},
				precisionFlag,
			},
			Action: TUMAction,
		},
		{
			Name:      "reformat",
			Usage:     "rewrite a PyFG file with the configured precision",
			ArgsUsage: "<input> <output>",
			Flags:     []cli.Flag{precisionFlag},
			Action:    ReformatAction,
		},
		{
			Name:      "info",
			Usage:     "summarize the contents of a PyFG file",
			ArgsUsage: "<pyfg file>",
			Action:    InfoAction,
		},
		{
			Name:      "compare",
			Usage:     "compare two TUM files",
			ArgsUsage: "<got> <want>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  compareFlagTolerant,
					Usage: "accept differences within the configured precision and report deviations",
				},
			},
			Action: CompareAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
