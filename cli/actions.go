package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/MarineRoboticsGroup/go-factor-graph/config"
	"github.com/MarineRoboticsGroup/go-factor-graph/equivalence"
	"github.com/MarineRoboticsGroup/go-factor-graph/factorgraph"
	"github.com/MarineRoboticsGroup/go-factor-graph/logging"
	"github.com/MarineRoboticsGroup/go-factor-graph/precision"
	"github.com/MarineRoboticsGroup/go-factor-graph/pyfg"
	"github.com/MarineRoboticsGroup/go-factor-graph/tum"
)

// converter holds what every command needs: the resolved configuration and a logger.
type converter struct {
	conf         *config.Config
	logger       logging.Logger
	fileAppender *logging.FileAppender
}

func newConverter(cCtx *cli.Context) (*converter, error) {
	conf := config.Default()
	if path := cCtx.String(generalFlagConfig); path != "" {
		var err error
		if conf, err = config.Read(path); err != nil {
			return nil, err
		}
	}
	if cCtx.IsSet(precisionFlagDigits) {
		conf.Precision = precision.Unified(cCtx.Int(precisionFlagDigits))
		if err := conf.Validate("flags"); err != nil {
			return nil, err
		}
	}

	logger := logging.NewBlankLogger("fgconv")
	logger.AddAppender(logging.NewWriterAppender(cCtx.App.ErrWriter))
	logger.SetLevel(conf.LogLevel())
	if cCtx.Bool(generalFlagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	c := &converter{conf: conf, logger: logger}

	logFile := conf.Log.File
	if f := cCtx.String(generalFlagLogFile); f != "" {
		logFile = f
	}
	if logFile != "" {
		c.fileAppender = logging.NewFileAppender(logFile, conf.Log.MaxSizeMB)
		logger.AddAppender(c.fileAppender)
	}
	if conf.ConfigFilePath != "" {
		logger.Debugf("using config %s", conf.ConfigFilePath)
	}
	return c, nil
}

func (c *converter) close() error {
	err := c.logger.Sync()
	if c.fileAppender != nil {
		err = multierr.Combine(err, c.fileAppender.Close())
	}
	return err
}

func (c *converter) read(path string, dim factorgraph.Dimension) (*factorgraph.FactorGraphData, error) {
	return pyfg.Decoder{Dimension: dim}.ReadFile(path, c.logger.Sublogger("pyfg"))
}

// TUMAction exports the trajectories of a PyFG file to TUM files.
func TUMAction(cCtx *cli.Context) error {
	args, err := requireArgs(cCtx, "pyfg file")
	if err != nil {
		return err
	}
	c, err := newConverter(cCtx)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(c.close)

	dim := c.conf.Dimension()
	if cCtx.IsSet(tumFlagDimension) {
		dim = factorgraph.Dimension(cCtx.Int(tumFlagDimension))
		if !dim.Valid() {
			return errors.Errorf("--%s must be 2 or 3, got %d", tumFlagDimension, cCtx.Int(tumFlagDimension))
		}
	}
	fg, err := c.read(args[0], dim)
	if err != nil {
		return err
	}

	opts := c.conf.ExportOptions()
	if cCtx.Bool(tumFlagUseOrdinal) {
		opts.UsePoseIndex = false
	}
	groundTruth := []bool{opts.UseGroundTruth}
	switch {
	case cCtx.Bool(tumFlagBoth):
		groundTruth = []bool{true, false}
	case cCtx.Bool(tumFlagMeasured):
		groundTruth = []bool{false}
	}

	logger := c.logger.Sublogger("tum")
	for _, gt := range groundTruth {
		opts.UseGroundTruth = gt
		written, err := tum.SaveRobotTrajectories(fg, cCtx.String(tumFlagOut), opts, logger)
		for _, path := range written {
			printf(cCtx.App.Writer, "%s", path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ReformatAction rewrites a PyFG file with the configured precision.
func ReformatAction(cCtx *cli.Context) error {
	args, err := requireArgs(cCtx, "input", "output")
	if err != nil {
		return err
	}
	c, err := newConverter(cCtx)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(c.close)

	fg, err := c.read(args[0], c.conf.Dimension())
	if err != nil {
		return err
	}
	return pyfg.WriteFile(fg, args[1], c.conf.Precision, c.logger.Sublogger("pyfg"))
}

// InfoAction prints a summary of a PyFG file.
func InfoAction(cCtx *cli.Context) error {
	args, err := requireArgs(cCtx, "pyfg file")
	if err != nil {
		return err
	}
	c, err := newConverter(cCtx)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(c.close)

	fg, err := c.read(args[0], c.conf.Dimension())
	if err != nil {
		return err
	}
	writeInfo(cCtx.App.Writer, fg)
	return nil
}

func writeInfo(w io.Writer, fg *factorgraph.FactorGraphData) {
	robots := fg.RobotChars()
	posesPerRobot := lo.CountValuesBy(fg.PoseVariables(), func(pv *factorgraph.PoseVariable) rune {
		return pv.Robot()
	})
	perRobot := lo.Map(robots, func(r rune, _ int) string {
		return fmt.Sprintf("%c: %d", r, posesPerRobot[r])
	})
	measurements := fg.PoseMeasurements()
	odometry := lo.CountBy(measurements, func(m *factorgraph.PoseMeasurement) bool { return m.IsOdometry() })

	counts := map[string]int{}
	for _, r := range fg.Records() {
		switch r.(type) {
		case *factorgraph.PosePrior, *factorgraph.LandmarkPrior:
			counts["priors"]++
		case *factorgraph.PoseLandmarkMeasurement:
			counts["landmark measurements"]++
		case *factorgraph.RangeMeasurement:
			counts["range measurements"]++
		}
	}

	printf(w, "dimension: %s", fg.Dimension())
	printf(w, "robots: %s", string(robots))
	printf(w, "poses: %d (%s)", len(fg.PoseVariables()), strings.Join(perRobot, ", "))
	printf(w, "landmarks: %d", fg.NumLandmarks())
	printf(w, "odometry measurements: %d", odometry)
	printf(w, "loop closures: %d", len(measurements)-odometry)
	keys := lo.Keys(counts)
	slices.Sort(keys)
	for _, k := range keys {
		printf(w, "%s: %d", k, counts[k])
	}
}

// CompareAction compares two TUM files exactly, or within the configured precision.
func CompareAction(cCtx *cli.Context) error {
	args, err := requireArgs(cCtx, "got", "want")
	if err != nil {
		return err
	}
	c, err := newConverter(cCtx)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(c.close)

	got, err := equivalence.ReadLines(args[0])
	if err != nil {
		return err
	}
	want, err := equivalence.ReadLines(args[1])
	if err != nil {
		return err
	}

	if !cCtx.Bool(compareFlagTolerant) {
		if equivalence.LinesEqual(got, want) {
			printf(cCtx.App.Writer, "files are identical")
			return nil
		}
		printf(cCtx.App.Writer, "%s", equivalence.Diff(want, got))
		return errors.Errorf("%s differs from %s", args[0], args[1])
	}

	got, want = equivalence.DataLines(got), equivalence.DataLines(want)
	if err := equivalence.CheckTUMLinesClose(got, want, c.conf.Precision); err != nil {
		return errors.Wrapf(err, "%s is not within tolerance of %s", args[0], args[1])
	}
	deviations, err := equivalence.Deviations(got, want)
	if err != nil {
		return err
	}
	for _, d := range deviations {
		printf(cCtx.App.Writer, "%-11s max %.3g mean %.3g (tolerance %g)", d.Class, d.Max, d.Mean, c.conf.Precision.Tolerance(d.Class))
	}
	printf(cCtx.App.Writer, "files are within tolerance")
	return nil
}

func requireArgs(cCtx *cli.Context, names ...string) ([]string, error) {
	if cCtx.NArg() != len(names) {
		return nil, errors.Errorf("expected %d arguments (%s) but got %d",
			len(names), strings.Join(names, ", "), cCtx.NArg())
	}
	return cCtx.Args().Slice(), nil
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
