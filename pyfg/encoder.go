package pyfg

import (
	"io"

	"github.com/pkg/errors"

	"github.com/MarineRoboticsGroup/go-factor-graph/factorgraph"
	"github.com/MarineRoboticsGroup/go-factor-graph/logging"
	"github.com/MarineRoboticsGroup/go-factor-graph/precision"
	"github.com/MarineRoboticsGroup/go-factor-graph/utils"
)

// Encoder writes a factor graph as PyFG text.
type Encoder struct {
	Policy precision.Policy
}

// Encode writes one line per record of fg in the order the records were added. Pose variables
// without a timestamp are written with their pose index as the time.
func (e Encoder) Encode(w io.Writer, fg *factorgraph.FactorGraphData) error {
	if err := e.Policy.Validate(); err != nil {
		return err
	}
	for _, r := range fg.Records() {
		l, err := recordLine(r)
		if err != nil {
			return err
		}
		text, err := l.render(e.Policy)
		if err != nil {
			return errors.Wrap(err, r.RecordName())
		}
		if _, err := io.WriteString(w, text+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile encodes fg to path. The file is replaced only once the whole graph has been
// written, so a failed write leaves any previous file untouched and creates no new one.
func WriteFile(fg *factorgraph.FactorGraphData, path string, policy precision.Policy, logger logging.Logger) error {
	err := utils.WriteFileAtomic(path, filePerm, func(w io.Writer) error {
		return Encoder{Policy: policy}.Encode(w, fg)
	})
	if err != nil {
		return err
	}
	logger.Infof("Saved factor graph in PyFG file format to: %s", path)
	return nil
}
