package errors

import (
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// MaxBoxes bounds the size of a single routing request.
const MaxBoxes = 10000

// ValidateBoxes checks that every box has finite coordinates and a
// non-negative size.
//
// Zero-sized boxes are allowed; they behave like points that still open
// four sides into the surrounding channels.
func ValidateBoxes(boxes []geom.Rect) error {
	if len(boxes) > MaxBoxes {
		return New(ErrCodeInvalidBox, "too many boxes (%d, max %d)", len(boxes), MaxBoxes)
	}
	for i, b := range boxes {
		for _, v := range []float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return New(ErrCodeInvalidBox, "box %d has a non-finite coordinate", i)
			}
		}
		if b.Width() < 0 || b.Height() < 0 {
			return New(ErrCodeInvalidBox, "box %d has negative size %gx%g", i, b.Width(), b.Height())
		}
	}
	return nil
}

// ValidateConnection checks that connection i references boxes that exist.
func ValidateConnection(i, from, to, boxes int) error {
	if from < 0 || from >= boxes {
		return New(ErrCodeInvalidConnection, "connection %d: unknown source box %d", i, from)
	}
	if to < 0 || to >= boxes {
		return New(ErrCodeInvalidConnection, "connection %d: unknown target box %d", i, to)
	}
	return nil
}

// ValidateFormat checks that format is one of valid. Comparison is case
// sensitive; callers normalize first.
func ValidateFormat(format string, valid []string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !slices.Contains(valid, format) {
		return New(ErrCodeInvalidFormat, "unsupported format %q (valid: %s)", format, strings.Join(valid, ", "))
	}
	return nil
}

// ValidateLayoutID checks that id is a canonical UUID as assigned to
// stored layouts.
func ValidateLayoutID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "layout id cannot be empty")
	}
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != strings.ToLower(id) {
		return New(ErrCodeInvalidID, "invalid layout id: %q", id)
	}
	return nil
}
