package header

import (
	"strconv"
	"strings"
)

// ByteRange is one "start-end" spec from a Range header. A suffix range
// ("-N") is represented with Suffix=true and End holding N. An
// open-ended range ("N-") is represented with OpenEnded=true.
type ByteRange struct {
	Start     int64
	End       int64
	Suffix    bool
	OpenEnded bool
}

// Resolve converts the range spec against a concrete resource size,
// returning the absolute, inclusive [start, end] byte indices. It
// reports ok=false if the range cannot be satisfied against size (start
// at or beyond size).
func (r ByteRange) Resolve(size int64) (start, end int64, ok bool) {
	switch {
	case r.Suffix:
		n := r.End
		if n > size {
			n = size
		}
		if n <= 0 {
			return 0, 0, false
		}
		return size - n, size - 1, true
	case r.OpenEnded:
		if r.Start >= size {
			return 0, 0, false
		}
		return r.Start, size - 1, true
	default:
		if r.Start >= size || r.Start > r.End {
			return 0, 0, false
		}
		end := r.End
		if end >= size {
			end = size - 1
		}
		return r.Start, end, true
	}
}

// RangeSpec is a parsed Range header: a unit ("bytes") and one or more
// byte-range-specs.
type RangeSpec struct {
	Unit   string
	Ranges []ByteRange
}

func parseRangeValue(raw string) (RangeSpec, error) {
	unit, rest, ok := strings.Cut(raw, "=")
	if !ok {
		return RangeSpec{}, errFn("Range", "missing '=': "+raw)
	}
	unit = strings.TrimSpace(unit)
	var spec RangeSpec
	spec.Unit = unit
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return RangeSpec{}, errFn("Range", "empty range spec")
		}
		startStr, endStr, ok := strings.Cut(part, "-")
		if !ok {
			return RangeSpec{}, errFn("Range", "malformed range spec: "+part)
		}
		switch {
		case startStr == "" && endStr == "":
			return RangeSpec{}, errFn("Range", "empty range spec")
		case startStr == "":
			n, err := strconv.ParseInt(endStr, 10, 64)
			if err != nil || n < 0 {
				return RangeSpec{}, errFn("Range", "bad suffix length: "+endStr)
			}
			spec.Ranges = append(spec.Ranges, ByteRange{Suffix: true, End: n})
		case endStr == "":
			n, err := strconv.ParseInt(startStr, 10, 64)
			if err != nil || n < 0 {
				return RangeSpec{}, errFn("Range", "bad start: "+startStr)
			}
			spec.Ranges = append(spec.Ranges, ByteRange{Start: n, OpenEnded: true})
		default:
			start, err1 := strconv.ParseInt(startStr, 10, 64)
			end, err2 := strconv.ParseInt(endStr, 10, 64)
			if err1 != nil || err2 != nil || start < 0 || end < start {
				return RangeSpec{}, errFn("Range", "malformed range spec: "+part)
			}
			spec.Ranges = append(spec.Ranges, ByteRange{Start: start, End: end})
		}
	}
	return spec, nil
}

func encodeRangeValue(spec RangeSpec) string {
	parts := make([]string, len(spec.Ranges))
	for i, r := range spec.Ranges {
		switch {
		case r.Suffix:
			parts[i] = "-" + strconv.FormatInt(r.End, 10)
		case r.OpenEnded:
			parts[i] = strconv.FormatInt(r.Start, 10) + "-"
		default:
			parts[i] = strconv.FormatInt(r.Start, 10) + "-" + strconv.FormatInt(r.End, 10)
		}
	}
	return spec.Unit + "=" + strings.Join(parts, ",")
}

// Range returns the parsed Range header. A syntactically invalid Range
// header is an InvalidHeader failure, per spec.
func (h *Headers) Range() (RangeSpec, error) {
	return typed(h, "Range", func(v []string) (RangeSpec, error) {
		if len(v) == 0 {
			return RangeSpec{}, errFn("Range", "header absent")
		}
		return parseRangeValue(v[0])
	})
}

// SetRange encodes and stores the Range header.
func (h *Headers) SetRange(spec RangeSpec) error {
	return setTyped(h, "Range", spec, func(spec RangeSpec) []string { return []string{encodeRangeValue(spec)} })
}
