package header

import (
	"fmt"
	"mime"
	"strconv"
	"strings"
)

// ContentType is a parsed MIME type plus its parameters (e.g. "charset").
type ContentType struct {
	Type       string // "text/html"
	Parameters map[string]string
}

func parseContentType(values []string) (ContentType, error) {
	if len(values) == 0 {
		return ContentType{}, errFn("Content-Type", "header absent")
	}
	t, params, err := mime.ParseMediaType(values[0])
	if err != nil {
		return ContentType{}, errFn("Content-Type", err.Error())
	}
	return ContentType{Type: t, Parameters: params}, nil
}

func encodeContentType(ct ContentType) []string {
	return []string{mime.FormatMediaType(ct.Type, ct.Parameters)}
}

// ContentType returns the parsed Content-Type header.
func (h *Headers) ContentType() (ContentType, error) {
	return typed(h, "Content-Type", parseContentType)
}

// SetContentType encodes and stores the Content-Type header.
func (h *Headers) SetContentType(ct ContentType) error {
	return setTyped(h, "Content-Type", ct, encodeContentType)
}

// ContentLength returns the parsed Content-Length header, in bytes.
func (h *Headers) ContentLength() (int64, error) {
	return typed(h, "Content-Length", func(v []string) (int64, error) {
		if len(v) == 0 {
			return 0, errFn("Content-Length", "header absent")
		}
		n, err := strconv.ParseInt(v[0], 10, 64)
		if err != nil || n < 0 {
			return 0, errFn("Content-Length", "not a non-negative integer: "+v[0])
		}
		return n, nil
	})
}

// SetContentLength encodes and stores the Content-Length header.
func (h *Headers) SetContentLength(n int64) error {
	return setTyped(h, "Content-Length", n, func(n int64) []string {
		return []string{strconv.FormatInt(n, 10)}
	})
}

// ContentEncoding returns the ordered list of content codings.
func (h *Headers) ContentEncoding() ([]string, error) {
	return typed(h, "Content-Encoding", func(v []string) ([]string, error) {
		return splitCommaList(v), nil
	})
}

// SetContentEncoding encodes and stores the Content-Encoding header.
func (h *Headers) SetContentEncoding(codings []string) error {
	return setTyped(h, "Content-Encoding", codings, joinCommaList)
}

// ContentLanguage returns the ordered list of language tags.
func (h *Headers) ContentLanguage() ([]string, error) {
	return typed(h, "Content-Language", func(v []string) ([]string, error) {
		return splitCommaList(v), nil
	})
}

// SetContentLanguage encodes and stores the Content-Language header.
func (h *Headers) SetContentLanguage(tags []string) error {
	return setTyped(h, "Content-Language", tags, joinCommaList)
}

// ContentDisposition is "attachment"/"inline" plus an optional filename.
type ContentDisposition struct {
	Type     string // "attachment" or "inline"
	Filename string // "" if absent
}

func parseContentDisposition(values []string) (ContentDisposition, error) {
	if len(values) == 0 {
		return ContentDisposition{}, errFn("Content-Disposition", "header absent")
	}
	disp, params, err := mime.ParseMediaType(values[0])
	if err != nil {
		return ContentDisposition{}, errFn("Content-Disposition", err.Error())
	}
	return ContentDisposition{Type: disp, Filename: params["filename"]}, nil
}

func encodeContentDisposition(cd ContentDisposition) []string {
	if cd.Filename == "" {
		return []string{cd.Type}
	}
	return []string{mime.FormatMediaType(cd.Type, map[string]string{"filename": cd.Filename})}
}

// ContentDisposition returns the parsed Content-Disposition header.
func (h *Headers) ContentDisposition() (ContentDisposition, error) {
	return typed(h, "Content-Disposition", parseContentDisposition)
}

// SetContentDisposition encodes and stores the Content-Disposition header.
func (h *Headers) SetContentDisposition(cd ContentDisposition) error {
	return setTyped(h, "Content-Disposition", cd, encodeContentDisposition)
}

// ContentRange describes a "Content-Range: bytes start-end/total" value.
// Total of -1 means "*" (unknown size). Unsatisfied=true represents
// "bytes */total"; Start/End are then left at zero and not used.
type ContentRange struct {
	Unit        string
	Start, End  int64
	Total       int64
	Unsatisfied bool
}

func parseContentRange(values []string) (ContentRange, error) {
	if len(values) == 0 {
		return ContentRange{}, errFn("Content-Range", "header absent")
	}
	raw := values[0]
	unit, rest, ok := strings.Cut(raw, " ")
	if !ok {
		return ContentRange{}, errFn("Content-Range", "malformed: "+raw)
	}
	rangePart, totalPart, ok := strings.Cut(rest, "/")
	if !ok {
		return ContentRange{}, errFn("Content-Range", "missing total: "+raw)
	}
	var total int64 = -1
	if totalPart != "*" {
		n, err := strconv.ParseInt(totalPart, 10, 64)
		if err != nil {
			return ContentRange{}, errFn("Content-Range", "bad total: "+totalPart)
		}
		total = n
	}
	if rangePart == "*" {
		return ContentRange{Unit: unit, Unsatisfied: true, Total: total}, nil
	}
	startPart, endPart, ok := strings.Cut(rangePart, "-")
	if !ok {
		return ContentRange{}, errFn("Content-Range", "bad range: "+rangePart)
	}
	start, err := strconv.ParseInt(startPart, 10, 64)
	if err != nil {
		return ContentRange{}, errFn("Content-Range", "bad start: "+startPart)
	}
	end, err := strconv.ParseInt(endPart, 10, 64)
	if err != nil {
		return ContentRange{}, errFn("Content-Range", "bad end: "+endPart)
	}
	return ContentRange{Unit: unit, Start: start, End: end, Total: total}, nil
}

func encodeContentRange(cr ContentRange) []string {
	totalStr := "*"
	if cr.Total >= 0 {
		totalStr = strconv.FormatInt(cr.Total, 10)
	}
	if cr.Unsatisfied {
		return []string{fmt.Sprintf("%s */%s", cr.Unit, totalStr)}
	}
	return []string{fmt.Sprintf("%s %d-%d/%s", cr.Unit, cr.Start, cr.End, totalStr)}
}

// ContentRange returns the parsed Content-Range header.
func (h *Headers) ContentRange() (ContentRange, error) {
	return typed(h, "Content-Range", parseContentRange)
}

// SetContentRange encodes and stores the Content-Range header.
func (h *Headers) SetContentRange(cr ContentRange) error {
	return setTyped(h, "Content-Range", cr, encodeContentRange)
}
