// Package tum exports robot trajectories in the TUM RGB-D text format: one pose per line as
// "timestamp x y z qx qy qz qw", one file per robot.
package tum

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/MarineRoboticsGroup/go-factor-graph/factorgraph"
	"github.com/MarineRoboticsGroup/go-factor-graph/precision"
	"github.com/MarineRoboticsGroup/go-factor-graph/spatialmath"
)

// Header is the first line of every exported file.
const Header = "# time_stamp x y z qx qy qz qw"

const (
	groundTruthPrefix = "odom_gt_robot_"
	measuredPrefix    = "odom_meas_robot_"
	numColumns        = 8
)

// FileName returns the name of the file holding the given robot's trajectory of the given kind.
func FileName(kind factorgraph.TrajectoryKind, robot rune) string {
	prefix := groundTruthPrefix
	if kind == factorgraph.MeasuredOdometry {
		prefix = measuredPrefix
	}
	return prefix + string(robot) + ".txt"
}

// Row is a single timestamped pose.
type Row struct {
	Time        float64
	Translation r3.Vector
	Rotation    quat.Number
}

// RowFromTransform builds a row from a 2D or 3D homogeneous transform. 2D translations get a
// zero z and 2D rotations become rotations about z.
func RowFromTransform(seconds float64, t mat.Matrix) (Row, error) {
	translation, err := spatialmath.Translation3(t)
	if err != nil {
		return Row{}, err
	}
	q, err := spatialmath.QuatFromTransform(t)
	if err != nil {
		return Row{}, err
	}
	return Row{Time: seconds, Translation: translation, Rotation: q}, nil
}

// Values returns the row's eight columns in file order.
func (r Row) Values() []float64 {
	x, y, z, w := spatialmath.QuatXYZW(r.Rotation)
	return []float64{r.Time, r.Translation.X, r.Translation.Y, r.Translation.Z, x, y, z, w}
}

// FormatRow renders a row with the policy's timestamp, translation and quaternion digits.
func FormatRow(r Row, p precision.Policy) string {
	classes := [numColumns]precision.Class{
		precision.Timestamp,
		precision.Translation, precision.Translation, precision.Translation,
		precision.Quaternion, precision.Quaternion, precision.Quaternion, precision.Quaternion,
	}
	columns := make([]string, numColumns)
	for i, v := range r.Values() {
		columns[i] = p.FormatClass(classes[i], v)
	}
	return strings.Join(columns, " ")
}

// ParseRow parses a data line.
func ParseRow(text string) (Row, error) {
	fields := strings.Fields(text)
	if len(fields) != numColumns {
		return Row{}, errors.Errorf("expected %d columns but got %d", numColumns, len(fields))
	}
	var v [numColumns]float64
	for i, f := range fields {
		parsed, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Row{}, errors.Wrapf(err, "column %d", i+1)
		}
		v[i] = parsed
	}
	return Row{
		Time:        v[0],
		Translation: r3.Vector{X: v[1], Y: v[2], Z: v[3]},
		Rotation:    spatialmath.QuatFromXYZW(v[4], v[5], v[6], v[7]),
	}, nil
}

// Read parses every data line of r, skipping blank and comment lines.
func Read(r io.Reader) ([]Row, error) {
	var rows []Row
	scanner := bufio.NewScanner(r)
	number := 0
	for scanner.Scan() {
		number++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		row, err := ParseRow(text)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", number)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadFile reads a TUM file.
func ReadFile(path string) ([]Row, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", path)
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	rows, err := Read(f)
	if err != nil {
		return nil, errors.Wrap(err, filepath.Base(path))
	}
	return rows, nil
}
