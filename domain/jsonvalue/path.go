package jsonvalue

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxPathLength bounds the dotted source string (§3).
	MaxPathLength = 256
	// MaxPathSegments bounds path depth (§3).
	MaxPathSegments = 10
)

// Segment is one step of a FieldPath: either a string key or a
// non-negative integer index. IsIndex distinguishes the two; Index is
// only meaningful when IsIndex is true.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// FieldPath is an ordered sequence of segments obtained by splitting a
// dotted source string on ".". A segment that parses as a base-10
// non-negative integer is an index, else a key.
type FieldPath struct {
	source   string
	segments []Segment
}

// Source returns the original dotted string the path was parsed from.
func (p FieldPath) Source() string { return p.source }

// Segments returns the parsed segments in order.
func (p FieldPath) Segments() []Segment { return p.segments }

// ParseFieldPath validates and parses a dotted field path per §3: no
// empty segment, at most MaxPathSegments segments, source length at
// most MaxPathLength characters.
func ParseFieldPath(source string) (FieldPath, error) {
	if len(source) == 0 {
		return FieldPath{}, fmt.Errorf("field path: empty")
	}
	if len(source) > MaxPathLength {
		return FieldPath{}, fmt.Errorf("field path: exceeds %d characters", MaxPathLength)
	}

	parts := strings.Split(source, ".")
	if len(parts) > MaxPathSegments {
		return FieldPath{}, fmt.Errorf("field path: exceeds %d segments", MaxPathSegments)
	}

	segments := make([]Segment, len(parts))
	for i, part := range parts {
		if part == "" {
			return FieldPath{}, fmt.Errorf("field path: empty segment at position %d", i)
		}
		if idx, ok := parseIndex(part); ok {
			segments[i] = Segment{Index: idx, IsIndex: true}
		} else {
			segments[i] = Segment{Key: part}
		}
	}

	return FieldPath{source: source, segments: segments}, nil
}

// parseIndex reports whether s is a base-10 non-negative integer
// literal: a run of ASCII digits that fits in an int. Leading zeros are
// accepted ("007" is index 7); signs and non-digit characters are not.
func parseIndex(s string) (int, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Resolve walks value one segment at a time. Integer-looking segments
// are tried as an index first when the current node is a sequence,
// and as a string key when the current node is a mapping. Any miss —
// wrong kind, missing key, out-of-range index — yields (false, Null).
func Resolve(value Value, path FieldPath) (bool, Value) {
	current := value
	keys := strings.Split(path.source, ".")
	for i, seg := range path.Segments() {
		switch current.kind {
		case KindSequence:
			if !seg.IsIndex {
				return false, Null
			}
			items, _ := current.Sequence()
			if seg.Index < 0 || seg.Index >= len(items) {
				return false, Null
			}
			current = items[seg.Index]
		case KindMapping:
			val, ok := current.MappingGet(keys[i])
			if !ok {
				return false, Null
			}
			current = val
		default:
			return false, Null
		}
	}
	return true, current
}
