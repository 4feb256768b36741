// Package precision defines how floating point values are rendered to text in the
// PyFG and TUM formats and how two rendered values are compared.
package precision

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// MaxDigits is the largest number of fractional digits a policy may request. Beyond
// this a float64 carries no further information.
const MaxDigits = 17

// closeSlack absorbs the binary representation error of decimal values in Close.
const closeSlack = 1e-6

// Class is a numeric class with its own rendering precision.
type Class int

const (
	// Timestamp is the time column of a record.
	Timestamp Class = iota
	// Translation covers positions, relative translations and range distances.
	Translation
	// Angle is a 2D heading in radians.
	Angle
	// Quaternion covers each quaternion component.
	Quaternion
	// Covariance covers covariance entries and range standard deviations.
	Covariance
)

func (c Class) String() string {
	switch c {
	case Timestamp:
		return "timestamp"
	case Translation:
		return "translation"
	case Angle:
		return "angle"
	case Quaternion:
		return "quaternion"
	case Covariance:
		return "covariance"
	default:
		return "unknown(" + strconv.Itoa(int(c)) + ")"
	}
}

// Policy is the number of fractional digits used for each numeric class.
type Policy struct {
	Timestamp   int `json:"timestamp"`
	Translation int `json:"translation"`
	Angle       int `json:"angle"`
	Quaternion  int `json:"quaternion"`
	Covariance  int `json:"covariance"`
}

// Default returns the policy used when nothing else is configured.
func Default() Policy {
	return Policy{
		Timestamp:   6,
		Translation: 6,
		Angle:       10,
		Quaternion:  6,
		Covariance:  6,
	}
}

// Unified returns a policy that renders every class with the same number of digits.
func Unified(digits int) Policy {
	return Policy{
		Timestamp:   digits,
		Translation: digits,
		Angle:       digits,
		Quaternion:  digits,
		Covariance:  digits,
	}
}

// Validate ensures every class requests a usable number of digits.
func (p Policy) Validate() error {
	for _, c := range []Class{Timestamp, Translation, Angle, Quaternion, Covariance} {
		if d := p.Digits(c); d < 0 || d > MaxDigits {
			return errors.Errorf("%s precision must be within [0, %d] digits, got %d", c, MaxDigits, d)
		}
	}
	return nil
}

// Digits returns the number of fractional digits for the given class.
func (p Policy) Digits(c Class) int {
	switch c {
	case Timestamp:
		return p.Timestamp
	case Translation:
		return p.Translation
	case Angle:
		return p.Angle
	case Quaternion:
		return p.Quaternion
	case Covariance:
		return p.Covariance
	default:
		return MaxDigits
	}
}

// FormatClass renders v with the digits of class c.
func (p Policy) FormatClass(c Class, v float64) string {
	return Format(v, p.Digits(c))
}

// Tolerance is one unit in the last rendered place of class c.
func (p Policy) Tolerance(c Class) float64 {
	return math.Pow10(-p.Digits(c))
}

// Close reports whether a and b agree to within the tolerance of class c. Two rendered values
// one unit apart in the last place are close.
func (p Policy) Close(c Class, a, b float64) bool {
	tol := p.Tolerance(c)
	return math.Abs(a-b) <= tol+tol*closeSlack
}

// Format renders v in fixed-point notation with exactly digits fractional digits.
// The result is correctly rounded from the binary value of v, which is the same
// rounding printf-style "%.*f" formatting produces.
func Format(v float64, digits int) string {
	return strconv.FormatFloat(v, 'f', digits, 64)
}
