// Package pyfg reads and writes factor graphs in the PyFG plain text format. Each non-empty line
// is one record: a tag followed by whitespace separated fields whose layout is fixed per tag.
package pyfg

import (
	"github.com/MarineRoboticsGroup/go-factor-graph/factorgraph"
	"github.com/MarineRoboticsGroup/go-factor-graph/precision"
)

// Tag identifies the kind of record on a line.
type Tag string

// The record tags understood by the codec.
const (
	TagPose2D          Tag = "VERTEX_SE2"
	TagPose3D          Tag = "VERTEX_SE3:QUAT"
	TagLandmark2D      Tag = "VERTEX_XY"
	TagLandmark3D      Tag = "VERTEX_XYZ"
	TagPosePrior2D     Tag = "VERTEX_SE2:PRIOR"
	TagPosePrior3D     Tag = "VERTEX_SE3:QUAT:PRIOR"
	TagLandmarkPrior2D Tag = "VERTEX_XY:PRIOR"
	TagLandmarkPrior3D Tag = "VERTEX_XYZ:PRIOR"
	TagRelativePose2D  Tag = "EDGE_SE2"
	TagRelativePose3D  Tag = "EDGE_SE3:QUAT"
	TagPoseLandmark2D  Tag = "EDGE_SE2_XY"
	TagPoseLandmark3D  Tag = "EDGE_SE3_XYZ"
	TagRange           Tag = "EDGE_RANGE"
)

const (
	// CommentPrefix starts a line that is skipped on read.
	CommentPrefix = "#"
	maxLineBytes  = 1 << 20
	filePerm      = 0o644
)

// fieldKind is the type of one field of a record.
type fieldKind int

const (
	fieldTimestamp fieldKind = iota
	fieldName
	fieldTranslation
	fieldAngle
	fieldQuaternion
	fieldCovariance
)

// class is the precision class a numeric field is rendered with.
func (k fieldKind) class() precision.Class {
	switch k {
	case fieldTimestamp:
		return precision.Timestamp
	case fieldAngle:
		return precision.Angle
	case fieldQuaternion:
		return precision.Quaternion
	case fieldCovariance:
		return precision.Covariance
	default:
		return precision.Translation
	}
}

// grammar is the field layout of one tag.
type grammar struct {
	dim    factorgraph.Dimension
	fields []fieldKind
}

func fields(groups ...[]fieldKind) []fieldKind {
	var out []fieldKind
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func repeat(k fieldKind, n int) []fieldKind {
	out := make([]fieldKind, n)
	for i := range out {
		out[i] = k
	}
	return out
}

var (
	tsField      = []fieldKind{fieldTimestamp}
	nameField    = []fieldKind{fieldName}
	nameFields   = repeat(fieldName, 2)
	xyFields     = repeat(fieldTranslation, 2)
	xyzFields    = repeat(fieldTranslation, 3)
	headingField = []fieldKind{fieldAngle}
	quatFields   = repeat(fieldQuaternion, 4)
)

func covariance(n int) []fieldKind {
	return repeat(fieldCovariance, factorgraph.UpperTriangleLen(n))
}

var grammars = map[Tag]grammar{
	TagPose2D:          {factorgraph.Dim2, fields(tsField, nameField, xyFields, headingField)},
	TagPose3D:          {factorgraph.Dim3, fields(tsField, nameField, xyzFields, quatFields)},
	TagLandmark2D:      {factorgraph.Dim2, fields(nameField, xyFields)},
	TagLandmark3D:      {factorgraph.Dim3, fields(nameField, xyzFields)},
	TagPosePrior2D:     {factorgraph.Dim2, fields(tsField, nameField, xyFields, headingField, covariance(3))},
	TagPosePrior3D:     {factorgraph.Dim3, fields(tsField, nameField, xyzFields, quatFields, covariance(6))},
	TagLandmarkPrior2D: {factorgraph.Dim2, fields(tsField, nameField, xyFields, covariance(2))},
	TagLandmarkPrior3D: {factorgraph.Dim3, fields(tsField, nameField, xyzFields, covariance(3))},
	TagRelativePose2D:  {factorgraph.Dim2, fields(tsField, nameFields, xyFields, headingField, covariance(3))},
	TagRelativePose3D:  {factorgraph.Dim3, fields(tsField, nameFields, xyzFields, quatFields, covariance(6))},
	TagPoseLandmark2D:  {factorgraph.Dim2, fields(tsField, nameFields, xyFields, covariance(2))},
	TagPoseLandmark3D:  {factorgraph.Dim3, fields(tsField, nameFields, xyzFields, covariance(3))},
	// ranges connect any two variables and carry no dimension
	TagRange: {factorgraph.DimUnknown, fields(tsField, nameFields, []fieldKind{fieldTranslation, fieldCovariance})},
}

// Tags returns every tag the codec understands.
func Tags() []Tag {
	return []Tag{
		TagPose2D, TagPose3D, TagLandmark2D, TagLandmark3D,
		TagPosePrior2D, TagPosePrior3D, TagLandmarkPrior2D, TagLandmarkPrior3D,
		TagRelativePose2D, TagRelativePose3D, TagPoseLandmark2D, TagPoseLandmark3D,
		TagRange,
	}
}

// NumFields returns the number of fields following the tag on a line, or -1 for an unknown tag.
func NumFields(tag Tag) int {
	g, ok := grammars[tag]
	if !ok {
		return -1
	}
	return len(g.fields)
}
