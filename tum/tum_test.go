package tum_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"github.com/MarineRoboticsGroup/go-factor-graph/equivalence"
	"github.com/MarineRoboticsGroup/go-factor-graph/factorgraph"
	"github.com/MarineRoboticsGroup/go-factor-graph/logging"
	"github.com/MarineRoboticsGroup/go-factor-graph/precision"
	"github.com/MarineRoboticsGroup/go-factor-graph/pyfg"
	"github.com/MarineRoboticsGroup/go-factor-graph/spatialmath"
	"github.com/MarineRoboticsGroup/go-factor-graph/tum"
	"github.com/MarineRoboticsGroup/go-factor-graph/utils"
)

func fixturePath(kind string) string {
	return utils.ResolveFile(filepath.Join("testdata", "pyfg_"+kind+"_test_data.pyfg"))
}

// dataLines returns the non comment lines of a file.
func dataLines(t *testing.T, path string) []string {
	t.Helper()
	//nolint:gosec
	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	return equivalence.DataLines(strings.Split(strings.TrimSpace(string(data)), "\n"))
}

// expectedLines extracts a robot's poses from a PyFG file as TUM lines.
func expectedLines(t *testing.T, path string, robot rune) []string {
	t.Helper()
	policy := precision.Default()
	var out []string
	for _, line := range dataLines(t, path) {
		columns := strings.Fields(line)
		tag := pyfg.Tag(columns[0])
		if (tag != pyfg.TagPose2D && tag != pyfg.TagPose3D) || rune(columns[2][0]) != robot {
			continue
		}
		if tag == pyfg.TagPose3D {
			out = append(out, strings.Join(append([]string{columns[1]}, columns[3:]...), " "))
			continue
		}
		theta, err := strconv.ParseFloat(columns[5], 64)
		test.That(t, err, test.ShouldBeNil)
		q, err := spatialmath.QuatFromRotationMatrix(spatialmath.RotationMatrixFromTheta(theta))
		test.That(t, err, test.ShouldBeNil)
		qx, qy, qz, qw := spatialmath.QuatXYZW(q)
		fields := []string{columns[1], columns[3], columns[4], policy.FormatClass(precision.Translation, 0)}
		for _, v := range []float64{qx, qy, qz, qw} {
			fields = append(fields, policy.FormatClass(precision.Quaternion, v))
		}
		out = append(out, strings.Join(fields, " "))
	}
	return out
}

func TestSaveRobotTrajectories(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, kind := range []string{"se2", "se3"} {
		t.Run(kind, func(t *testing.T) {
			fg, err := pyfg.ReadFile(fixturePath(kind), logger)
			test.That(t, err, test.ShouldBeNil)
			robots := fg.RobotChars()
			test.That(t, robots, test.ShouldResemble, []rune{'A', 'B'})

			dir := t.TempDir()
			for _, useGroundTruth := range []bool{true, false} {
				opts := tum.DefaultExportOptions()
				opts.UseGroundTruth = useGroundTruth
				written, err := tum.SaveRobotTrajectories(fg, dir, opts, logger)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, written, test.ShouldHaveLength, len(robots))

				for i, robot := range robots {
					path := filepath.Join(dir, tum.FileName(opts.Kind(), robot))
					test.That(t, written[i], test.ShouldEqual, path)

					//nolint:gosec
					data, err := os.ReadFile(path)
					test.That(t, err, test.ShouldBeNil)
					test.That(t, strings.SplitN(string(data), "\n", 2)[0], test.ShouldEqual, tum.Header)

					got := dataLines(t, path)
					want := expectedLines(t, fixturePath(kind), robot)
					if useGroundTruth {
						test.That(t, got, test.ShouldResemble, want)
					} else {
						test.That(t, equivalence.CheckTUMLinesClose(got, want, precision.Default()), test.ShouldBeNil)
					}
				}
			}

			entries, err := os.ReadDir(dir)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, entries, test.ShouldHaveLength, 2*len(robots))
		})
	}
}

func TestQuarterTurnScenario(t *testing.T) {
	fg, err := pyfg.Decoder{}.Decode(strings.NewReader("VERTEX_SE2 0 A0 1.0 2.0 0.7853981634\n"))
	test.That(t, err, test.ShouldBeNil)

	dir := t.TempDir()
	written, err := tum.SaveRobotTrajectories(fg, dir, tum.DefaultExportOptions(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, written, test.ShouldResemble, []string{filepath.Join(dir, "odom_gt_robot_A.txt")})
	test.That(t, dataLines(t, written[0]), test.ShouldResemble,
		[]string{"0.000000 1.000000 2.000000 0.000000 0.000000 0.000000 0.382683 0.923880"})

	rows, err := tum.ReadFile(written[0])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rows, test.ShouldHaveLength, 1)
	test.That(t, rows[0].Translation, test.ShouldResemble, r3.Vector{X: 1, Y: 2})
	test.That(t, rows[0].Rotation.Kmag, test.ShouldAlmostEqual, 0.382683)
}

func TestStoredQuaternionWithNegativeW(t *testing.T) {
	fg, err := pyfg.Decoder{}.Decode(strings.NewReader("VERTEX_SE3:QUAT 0 A0 1 2 3 0 0 0.6 -0.8\n"))
	test.That(t, err, test.ShouldBeNil)

	written, err := tum.SaveRobotTrajectories(fg, t.TempDir(), tum.DefaultExportOptions(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	got := dataLines(t, written[0])

	// the exported quaternion is recovered from the rotation matrix, which does not keep the
	// stored sign
	test.That(t, got, test.ShouldResemble,
		[]string{"0.000000 1.000000 2.000000 3.000000 0.000000 0.000000 -0.600000 0.800000"})
	stored := []string{"0.000000 1.000000 2.000000 3.000000 0.000000 0.000000 0.600000 -0.800000"}
	test.That(t, equivalence.LinesEqual(got, stored), test.ShouldBeFalse)
	test.That(t, equivalence.CheckTUMLinesClose(got, stored, precision.Default()), test.ShouldBeNil)
}

func TestTimeResolution(t *testing.T) {
	fg := factorgraph.NewFactorGraphData(factorgraph.Dim2)
	for _, pv := range []struct {
		name string
		ts   factorgraph.Timestamp
	}{
		{"A3", factorgraph.NoTimestamp()},
		{"A5", factorgraph.ExplicitTimestamp(12.5)},
		{"A9", factorgraph.NoTimestamp()},
	} {
		v, err := factorgraph.NewPoseVariable2D(pv.name, pv.ts, 0, 0, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fg.AddPoseVariable(v), test.ShouldBeNil)
	}

	times := func(usePoseIndex bool) []string {
		dir := t.TempDir()
		opts := tum.DefaultExportOptions()
		opts.Policy = precision.Unified(1)
		opts.UsePoseIndex = usePoseIndex
		logger, observed := logging.NewObservedTestLogger(t)
		written, err := tum.SaveRobotTrajectories(fg, dir, opts, logger)
		test.That(t, err, test.ShouldBeNil)

		warnings := observed.FilterMessage("poses without a timestamp").All()
		test.That(t, warnings, test.ShouldHaveLength, 1)
		test.That(t, warnings[0].Level, test.ShouldEqual, zapcore.WarnLevel)
		fields := warnings[0].ContextMap()
		test.That(t, fields["robot"], test.ShouldEqual, "A")
		test.That(t, fields["poses"], test.ShouldEqual, int64(2))
		wantSource := factorgraph.TimeFromOrdinal
		if usePoseIndex {
			wantSource = factorgraph.TimeFromPoseIndex
		}
		test.That(t, fields["time_source"], test.ShouldEqual, wantSource.String())

		var out []string
		for _, l := range dataLines(t, written[0]) {
			out = append(out, strings.Fields(l)[0])
		}
		return out
	}
	test.That(t, times(true), test.ShouldResemble, []string{"3.0", "12.5", "9.0"})
	test.That(t, times(false), test.ShouldResemble, []string{"0.0", "12.5", "2.0"})
}

func TestSaveRobotTrajectoriesErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	fg, err := pyfg.ReadFile(fixturePath("se2"), logger)
	test.That(t, err, test.ShouldBeNil)

	t.Run("missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "missing")
		written, err := tum.SaveRobotTrajectories(fg, dir, tum.DefaultExportOptions(), logger)
		test.That(t, written, test.ShouldBeEmpty)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `robot 'A'`)
		_, statErr := os.Stat(dir)
		test.That(t, os.IsNotExist(statErr), test.ShouldBeTrue)
	})

	t.Run("second robot fails", func(t *testing.T) {
		dir := t.TempDir()
		// a directory in place of B's file makes the rename fail
		test.That(t, os.Mkdir(filepath.Join(dir, tum.FileName(factorgraph.GroundTruth, 'B')), 0o750), test.ShouldBeNil)
		observedLogger, observed := logging.NewObservedTestLogger(t)
		written, err := tum.SaveRobotTrajectories(fg, dir, tum.DefaultExportOptions(), observedLogger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `robot 'B'`)
		test.That(t, written, test.ShouldResemble, []string{filepath.Join(dir, "odom_gt_robot_A.txt")})

		test.That(t, observed.FilterLevelExact(zapcore.InfoLevel).Len(), test.ShouldEqual, 1)
		failures := observed.FilterLevelExact(zapcore.ErrorLevel).All()
		test.That(t, failures, test.ShouldHaveLength, 1)
		test.That(t, failures[0].ContextMap()["robot"], test.ShouldEqual, "B")
		test.That(t, failures[0].ContextMap()["kind"], test.ShouldEqual, factorgraph.GroundTruth.String())
	})

	t.Run("bad policy", func(t *testing.T) {
		opts := tum.DefaultExportOptions()
		opts.Policy.Quaternion = 40
		_, err := tum.SaveRobotTrajectories(fg, t.TempDir(), opts, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestFormatAndParseRow(t *testing.T) {
	row := tum.Row{Time: 1.5, Translation: r3.Vector{X: 1, Y: -2, Z: 3}, Rotation: spatialmath.QuatFromXYZW(0, 0, 0.6, 0.8)}
	text := tum.FormatRow(row, precision.Unified(2))
	test.That(t, text, test.ShouldEqual, "1.50 1.00 -2.00 3.00 0.00 0.00 0.60 0.80")

	parsed, err := tum.ParseRow(text)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed.Values(), test.ShouldResemble, row.Values())

	_, err = tum.ParseRow("1 2 3")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = tum.ParseRow("1 2 3 4 5 6 7 x")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = tum.Read(strings.NewReader("# header\n1 2 3 4 5 6 7 8\nbad\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "line 3")
}
