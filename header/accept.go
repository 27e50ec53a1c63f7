package header

import (
	"sort"
	"strconv"
	"strings"
)

// QualityItem is one entry of a quality-valued list header (Accept,
// Accept-Encoding, Accept-Language), e.g. "text/html;q=0.9".
type QualityItem struct {
	Value string
	Q     float64 // defaults to 1.0 when absent
	Attrs map[string]string
}

func parseQualityList(values []string) ([]QualityItem, error) {
	var out []QualityItem
	for _, raw := range splitCommaList(values) {
		parts := strings.Split(raw, ";")
		item := QualityItem{Value: strings.TrimSpace(parts[0]), Q: 1.0, Attrs: map[string]string{}}
		for _, p := range parts[1:] {
			k, v, ok := strings.Cut(p, "=")
			if !ok {
				continue
			}
			k = strings.TrimSpace(strings.ToLower(k))
			v = strings.TrimSpace(v)
			if k == "q" {
				if q, err := strconv.ParseFloat(v, 64); err == nil {
					item.Q = q
				}
				continue
			}
			item.Attrs[k] = v
		}
		out = append(out, item)
	}
	// Stable sort by descending q, preserving original order for ties.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Q > out[j].Q })
	return out, nil
}

func encodeQualityList(items []QualityItem) []string {
	parts := make([]string, len(items))
	for i, it := range items {
		s := it.Value
		for k, v := range it.Attrs {
			s += ";" + k + "=" + v
		}
		if it.Q != 1.0 {
			s += ";q=" + strconv.FormatFloat(it.Q, 'g', -1, 64)
		}
		parts[i] = s
	}
	return joinCommaList(parts)
}

// Accept returns the parsed Accept header, sorted by descending quality.
func (h *Headers) Accept() ([]QualityItem, error) {
	return typed(h, "Accept", parseQualityList)
}

// SetAccept encodes and stores the Accept header.
func (h *Headers) SetAccept(items []QualityItem) error {
	return setTyped(h, "Accept", items, encodeQualityList)
}

// AcceptEncoding returns the parsed Accept-Encoding header.
func (h *Headers) AcceptEncoding() ([]QualityItem, error) {
	return typed(h, "Accept-Encoding", parseQualityList)
}

// SetAcceptEncoding encodes and stores the Accept-Encoding header.
func (h *Headers) SetAcceptEncoding(items []QualityItem) error {
	return setTyped(h, "Accept-Encoding", items, encodeQualityList)
}

// AcceptLanguage returns the parsed Accept-Language header.
func (h *Headers) AcceptLanguage() ([]QualityItem, error) {
	return typed(h, "Accept-Language", parseQualityList)
}

// SetAcceptLanguage encodes and stores the Accept-Language header.
func (h *Headers) SetAcceptLanguage(items []QualityItem) error {
	return setTyped(h, "Accept-Language", items, encodeQualityList)
}

// AcceptRanges returns the ordered list of supported range units
// ("bytes", or "none").
func (h *Headers) AcceptRanges() ([]string, error) {
	return typed(h, "Accept-Ranges", func(v []string) ([]string, error) { return splitCommaList(v), nil })
}

// SetAcceptRanges encodes and stores the Accept-Ranges header.
func (h *Headers) SetAcceptRanges(units []string) error {
	return setTyped(h, "Accept-Ranges", units, joinCommaList)
}

// Allow returns the set of methods in the Allow header.
func (h *Headers) Allow() ([]string, error) {
	return typed(h, "Allow", func(v []string) ([]string, error) { return splitCommaList(v), nil })
}

// SetAllow encodes and stores the Allow header.
func (h *Headers) SetAllow(methods []string) error {
	return setTyped(h, "Allow", methods, joinCommaList)
}
