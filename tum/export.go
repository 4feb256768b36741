package tum

import (
	"io"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/MarineRoboticsGroup/go-factor-graph/factorgraph"
	"github.com/MarineRoboticsGroup/go-factor-graph/logging"
	"github.com/MarineRoboticsGroup/go-factor-graph/precision"
	"github.com/MarineRoboticsGroup/go-factor-graph/utils"
)

const filePerm = 0o644

// ExportOptions controls SaveRobotTrajectories.
type ExportOptions struct {
	Policy precision.Policy
	// UseGroundTruth exports the pose variables themselves instead of the chained odometry.
	UseGroundTruth bool
	// UsePoseIndex times poses without a timestamp by the index in their name instead of their
	// position in the trajectory.
	UsePoseIndex bool
}

// DefaultExportOptions exports ground truth with the default precision.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{Policy: precision.Default(), UseGroundTruth: true, UsePoseIndex: true}
}

// Kind is the trajectory kind the options select.
func (o ExportOptions) Kind() factorgraph.TrajectoryKind {
	if o.UseGroundTruth {
		return factorgraph.GroundTruth
	}
	return factorgraph.MeasuredOdometry
}

// SaveRobotTrajectories writes one file per robot of fg into dir, which must already exist,
// and returns the written paths in robot order. Each file is written in full or not at all. When
// a robot fails the error names it and the paths written before it are still returned.
func SaveRobotTrajectories(
	fg *factorgraph.FactorGraphData,
	dir string,
	opts ExportOptions,
	logger logging.Logger,
) ([]string, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	kind := opts.Kind()
	trajectories, err := fg.Trajectories(kind)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, robot := range fg.RobotChars() {
		path := filepath.Join(dir, FileName(kind, robot))
		traj, ok := trajectories[robot]
		if !ok {
			return written, errors.Errorf("robot %q has no %s trajectory", robot, kind)
		}
		var untimed int
		err := utils.WriteFileAtomic(path, filePerm, func(w io.Writer) error {
			var err error
			untimed, err = writeTrajectory(w, fg, traj, opts)
			return err
		})
		if err != nil {
			logger.Errorw("cannot save trajectory", "robot", string(robot), "kind", kind.String(), "path", path, "error", err)
			return written, errors.Wrapf(err, "cannot save robot %q trajectory to %s", robot, path)
		}
		if untimed > 0 {
			source := factorgraph.TimeFromOrdinal
			if opts.UsePoseIndex {
				source = factorgraph.TimeFromPoseIndex
			}
			logger.Warnw("poses without a timestamp", "robot", string(robot), "poses", untimed, "time_source", source.String())
		}
		logger.Infow("Saved factor graph trajectory in TUM file format",
			"robot", string(robot), "kind", kind.String(), "poses", traj.Len(), "path", path)
		written = append(written, path)
	}
	return written, nil
}

// writeTrajectory writes the header and one row per pose of traj. It returns how many poses had
// no timestamp of their own.
func writeTrajectory(
	w io.Writer,
	fg *factorgraph.FactorGraphData,
	traj *factorgraph.Trajectory,
	opts ExportOptions,
) (int, error) {
	if _, err := io.WriteString(w, Header+"\n"); err != nil {
		return 0, err
	}
	var untimed int
	var err error
	traj.Iterate(func(i int, name string, transform mat.Matrix) bool {
		pv, ok := fg.PoseVariable(name)
		if !ok {
			err = errors.Errorf("unknown pose variable %q", name)
			return false
		}
		seconds, source := factorgraph.ResolveTime(pv, i, opts.UsePoseIndex)
		if source != factorgraph.TimeFromTimestamp {
			untimed++
		}
		var row Row
		row, err = RowFromTransform(seconds, transform)
		if err != nil {
			err = errors.Wrap(err, name)
			return false
		}
		_, err = io.WriteString(w, FormatRow(row, opts.Policy)+"\n")
		return err == nil
	})
	return untimed, err
}
