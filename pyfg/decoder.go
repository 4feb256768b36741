package pyfg

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/MarineRoboticsGroup/go-factor-graph/factorgraph"
	"github.com/MarineRoboticsGroup/go-factor-graph/logging"
)

// Decoder reads a factor graph from PyFG text.
type Decoder struct {
	// Source names the input in errors, usually the file path.
	Source string
	// Dimension, when set, rejects records of the other dimension.
	Dimension factorgraph.Dimension
}

// Decode reads every record from r. Blank lines and lines starting with CommentPrefix are
// skipped. On any error no graph is returned. Once all lines are read the odometry of every
// robot is chained to make sure the measured trajectories can be built.
func (d Decoder) Decode(r io.Reader) (*factorgraph.FactorGraphData, error) {
	fg := factorgraph.NewFactorGraphData(d.Dimension)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineBytes)

	number := 0
	for scanner.Scan() {
		number++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, CommentPrefix) {
			continue
		}
		l, err := tokenize(number, text)
		if err != nil {
			return nil, d.locate(err)
		}
		if want := d.Dimension; want != factorgraph.DimUnknown {
			if got := grammars[l.tag].dim; got != factorgraph.DimUnknown && got != want {
				return nil, d.locate(&ParseError{
					Line: number,
					Tag:  l.tag,
					Err:  factorgraph.NewUnsupportedDimensionError(string(l.tag), want, got),
				})
			}
		}
		if err := addLine(fg, l); err != nil {
			return nil, d.locate(&ParseError{Line: number, Tag: l.tag, Err: err})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "error reading %s", d.sourceName())
	}
	if _, err := fg.OdometryTrajectories(); err != nil {
		return nil, errors.Wrapf(err, "invalid odometry in %s", d.sourceName())
	}
	return fg, nil
}

func (d Decoder) locate(err error) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.Source = d.Source
	}
	return err
}

func (d Decoder) sourceName() string {
	if d.Source == "" {
		return "input"
	}
	return d.Source
}

// DecodeFile decodes the file at path. An empty Source is replaced by path.
func (d Decoder) DecodeFile(path string) (*factorgraph.FactorGraphData, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", path)
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	if d.Source == "" {
		d.Source = path
	}
	return d.Decode(f)
}

// ReadFile decodes the file at path and logs what it read. A file without pose variables is
// read but logged as a warning since it has no trajectories to export.
func (d Decoder) ReadFile(path string, logger logging.Logger) (*factorgraph.FactorGraphData, error) {
	fg, err := d.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debugw("read factor graph",
		"path", path,
		"dimension", fg.Dimension().String(),
		"records", len(fg.Records()),
		"poses", len(fg.PoseVariables()),
		"landmarks", fg.NumLandmarks(),
	)
	if len(fg.PoseVariables()) == 0 {
		logger.Warnw("factor graph has no pose variables", "path", path)
	}
	return fg, nil
}

// ReadFile reads a PyFG file of either dimension.
func ReadFile(path string, logger logging.Logger) (*factorgraph.FactorGraphData, error) {
	return Decoder{}.ReadFile(path, logger)
}
