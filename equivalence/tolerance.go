package equivalence

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/MarineRoboticsGroup/go-factor-graph/precision"
	"github.com/MarineRoboticsGroup/go-factor-graph/tum"
)

// LineCountError is returned when two line sets differ in length. No line is compared.
type LineCountError struct {
	Got, Want int
}

func (e *LineCountError) Error() string {
	return fmt.Sprintf("got %d lines but want %d", e.Got, e.Want)
}

// ToleranceViolationError reports the first column of a TUM line outside its class tolerance.
type ToleranceViolationError struct {
	// Line is 1-based.
	Line      int
	Column    string
	Class     precision.Class
	Got       float64
	Want      float64
	Tolerance float64
}

func (e *ToleranceViolationError) Error() string {
	return fmt.Sprintf("line %d: %s is %v but want %v within %s tolerance %v",
		e.Line, e.Column, e.Got, e.Want, e.Class, e.Tolerance)
}

var (
	translationColumns = []string{"x", "y", "z"}
	quaternionColumns  = []string{"qx", "qy", "qz", "qw"}
)

// CheckTUMLinesClose compares two sets of TUM data lines. Timestamps, translations and
// quaternions must each agree within the tolerance of their class. A quaternion also matches
// its negation.
func CheckTUMLinesClose(got, want []string, p precision.Policy) error {
	if len(got) != len(want) {
		return &LineCountError{Got: len(got), Want: len(want)}
	}
	for i := range got {
		if err := checkRowClose(i+1, got[i], want[i], p); err != nil {
			return err
		}
	}
	return nil
}

// TUMLinesClose is CheckTUMLinesClose reduced to a boolean.
func TUMLinesClose(got, want []string, p precision.Policy) bool {
	return CheckTUMLinesClose(got, want, p) == nil
}

func checkRowClose(line int, gotText, wantText string, p precision.Policy) error {
	g, err := tum.ParseRow(gotText)
	if err != nil {
		return errors.Wrapf(err, "line %d", line)
	}
	w, err := tum.ParseRow(wantText)
	if err != nil {
		return errors.Wrapf(err, "line %d", line)
	}
	gv, wv := g.Values(), w.Values()

	check := func(column string, c precision.Class, got, want float64) error {
		if p.Close(c, got, want) {
			return nil
		}
		return &ToleranceViolationError{Line: line, Column: column, Class: c, Got: got, Want: want, Tolerance: p.Tolerance(c)}
	}
	if err := check("time_stamp", precision.Timestamp, gv[0], wv[0]); err != nil {
		return err
	}
	for j, column := range translationColumns {
		if err := check(column, precision.Translation, gv[1+j], wv[1+j]); err != nil {
			return err
		}
	}

	if quaternionClose(gv[4:], wv[4:], p) {
		return nil
	}
	return quaternionError(line, gv[4:], wv[4:], p)
}

func quaternionClose(got, want []float64, p precision.Policy) bool {
	for _, sign := range []float64{1, -1} {
		ok := true
		for j := range got {
			if !p.Close(precision.Quaternion, got[j], sign*want[j]) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// quaternionError reports the component furthest from want, which is compared as written.
func quaternionError(line int, got, want []float64, p precision.Policy) error {
	worst := 0
	for j := range got {
		if math.Abs(got[j]-want[j]) > math.Abs(got[worst]-want[worst]) {
			worst = j
		}
	}
	return &ToleranceViolationError{
		Line:      line,
		Column:    quaternionColumns[worst],
		Class:     precision.Quaternion,
		Got:       got[worst],
		Want:      want[worst],
		Tolerance: p.Tolerance(precision.Quaternion),
	}
}

// Deviation summarizes the absolute differences of one class of columns.
type Deviation struct {
	Class precision.Class
	Max   float64
	Mean  float64
}

// Deviations returns the maximum and mean absolute difference between two equally long sets of
// TUM data lines for timestamps, translations and quaternions, in that order. Quaternions are
// sign aligned before they are compared.
func Deviations(got, want []string) ([]Deviation, error) {
	if len(got) != len(want) {
		return nil, &LineCountError{Got: len(got), Want: len(want)}
	}
	diffs := map[precision.Class]stats.Float64Data{}
	for i := range got {
		g, err := tum.ParseRow(got[i])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}
		w, err := tum.ParseRow(want[i])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}
		diffs[precision.Timestamp] = append(diffs[precision.Timestamp], math.Abs(g.Time-w.Time))
		diffs[precision.Translation] = append(diffs[precision.Translation],
			math.Abs(g.Translation.X-w.Translation.X),
			math.Abs(g.Translation.Y-w.Translation.Y),
			math.Abs(g.Translation.Z-w.Translation.Z))
		wq := w.Rotation
		if dot(g.Rotation, wq) < 0 {
			wq = quat.Scale(-1, wq)
		}
		d := quat.Sub(g.Rotation, wq)
		diffs[precision.Quaternion] = append(diffs[precision.Quaternion],
			math.Abs(d.Imag), math.Abs(d.Jmag), math.Abs(d.Kmag), math.Abs(d.Real))
	}

	var out []Deviation
	for _, c := range []precision.Class{precision.Timestamp, precision.Translation, precision.Quaternion} {
		dev := Deviation{Class: c}
		if len(diffs[c]) > 0 {
			var err error
			if dev.Max, err = stats.Max(diffs[c]); err != nil {
				return nil, err
			}
			if dev.Mean, err = stats.Mean(diffs[c]); err != nil {
				return nil, err
			}
		}
		out = append(out, dev)
	}
	return out, nil
}

func dot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}
