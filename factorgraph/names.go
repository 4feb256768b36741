package factorgraph

import (
	"strconv"

	"github.com/pkg/errors"
)

// LandmarkChar is the leading character of every landmark name. No robot may use it.
const LandmarkChar = 'L'

// ParseFrameName splits a pose name such as "A12" into its robot character and pose index.
func ParseFrameName(name string) (rune, int, error) {
	robot, index, err := splitName(name)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "invalid pose name %q", name)
	}
	if robot == LandmarkChar {
		return 0, 0, errors.Errorf("invalid pose name %q: %q is reserved for landmarks", name, LandmarkChar)
	}
	return robot, index, nil
}

// ParseLandmarkName returns the index of a landmark name such as "L3".
func ParseLandmarkName(name string) (int, error) {
	char, index, err := splitName(name)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid landmark name %q", name)
	}
	if char != LandmarkChar {
		return 0, errors.Errorf("invalid landmark name %q: must start with %q", name, LandmarkChar)
	}
	return index, nil
}

// PoseName builds the name of a robot's pose.
func PoseName(robot rune, index int) string {
	return string(robot) + strconv.Itoa(index)
}

// LandmarkName builds the name of a landmark.
func LandmarkName(index int) string {
	return PoseName(LandmarkChar, index)
}

func splitName(name string) (rune, int, error) {
	if len(name) < 2 {
		return 0, 0, errors.New("expected a letter followed by an index")
	}
	c := name[0]
	if !(c >= 'A' && c <= 'Z') && !(c >= 'a' && c <= 'z') {
		return 0, 0, errors.New("must start with an ASCII letter")
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, 0, errors.New("index must be a non-negative integer")
		}
	}
	index, err := strconv.Atoi(name[1:])
	if err != nil {
		return 0, 0, err
	}
	return rune(c), index, nil
}
