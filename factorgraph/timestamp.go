package factorgraph

// Timestamp is either an explicit time in seconds or absent. An absent timestamp is resolved
// at export time by ResolveTime.
type Timestamp struct {
	seconds  float64
	explicit bool
}

// ExplicitTimestamp returns a timestamp of the given seconds.
func ExplicitTimestamp(seconds float64) Timestamp {
	return Timestamp{seconds: seconds, explicit: true}
}

// NoTimestamp returns an absent timestamp.
func NoTimestamp() Timestamp {
	return Timestamp{}
}

// Seconds returns the explicit time and whether there is one.
func (t Timestamp) Seconds() (float64, bool) {
	return t.seconds, t.explicit
}

// TimeSource names where a resolved time came from.
type TimeSource int

const (
	// TimeFromTimestamp is the pose's explicit timestamp.
	TimeFromTimestamp TimeSource = iota
	// TimeFromPoseIndex is the index encoded in the pose's name.
	TimeFromPoseIndex
	// TimeFromOrdinal is the pose's position within its trajectory.
	TimeFromOrdinal
)

func (s TimeSource) String() string {
	switch s {
	case TimeFromTimestamp:
		return "timestamp"
	case TimeFromPoseIndex:
		return "pose index"
	case TimeFromOrdinal:
		return "ordinal"
	}
	return "unknown"
}

// ResolveTime picks the time of a trajectory entry. An explicit timestamp always wins.
// Otherwise the index in the pose's name is used when usePoseIndex is set, and the entry's
// position within its trajectory is used when it is not.
func ResolveTime(pose *PoseVariable, ordinal int, usePoseIndex bool) (float64, TimeSource) {
	if seconds, ok := pose.Timestamp().Seconds(); ok {
		return seconds, TimeFromTimestamp
	}
	if usePoseIndex {
		return float64(pose.Index()), TimeFromPoseIndex
	}
	return float64(ordinal), TimeFromOrdinal
}
