package header

import (
	"net/http"
	"testing"
)

func TestRangeParseSingle(t *testing.T) {
	h := New(http.Header{"Range": []string{"bytes=0-4"}})
	spec, err := h.Range()
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if spec.Unit != "bytes" || len(spec.Ranges) != 1 {
		t.Fatalf("got %+v", spec)
	}
	start, end, ok := spec.Ranges[0].Resolve(16)
	if !ok || start != 0 || end != 4 {
		t.Fatalf("Resolve: %d-%d ok=%v", start, end, ok)
	}
}

func TestRangeParseMulti(t *testing.T) {
	h := New(http.Header{"Range": []string{"bytes=0-0,2-3,14-"}})
	spec, err := h.Range()
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(spec.Ranges) != 3 {
		t.Fatalf("want 3 ranges, got %d", len(spec.Ranges))
	}
	start, end, ok := spec.Ranges[2].Resolve(16)
	if !ok || start != 14 || end != 15 {
		t.Fatalf("open-ended Resolve: %d-%d ok=%v", start, end, ok)
	}
}

func TestRangeParseSuffix(t *testing.T) {
	h := New(http.Header{"Range": []string{"bytes=-500"}})
	spec, err := h.Range()
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	start, end, ok := spec.Ranges[0].Resolve(100)
	if !ok || start != 0 || end != 99 {
		t.Fatalf("suffix clamp: %d-%d ok=%v", start, end, ok)
	}
}

func TestRangeInvalidSyntax(t *testing.T) {
	cases := []string{"bytes=", "bytes=abc", "0-4", "bytes=5-2", "bytes=-"}
	for _, raw := range cases {
		h := New(http.Header{"Range": []string{raw}})
		if _, err := h.Range(); err == nil {
			t.Errorf("Range(%q): want error, got nil", raw)
		}
	}
}

func TestRangeUnsatisfiable(t *testing.T) {
	h := New(http.Header{"Range": []string{"bytes=1000-2000"}})
	spec, err := h.Range()
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if _, _, ok := spec.Ranges[0].Resolve(16); ok {
		t.Fatal("want unsatisfiable range to resolve ok=false")
	}
}

func TestRangeRoundTrip(t *testing.T) {
	h := New(http.Header{})
	spec := RangeSpec{Unit: "bytes", Ranges: []ByteRange{{Start: 0, End: 4}, {Start: 10, OpenEnded: true}}}
	if err := h.SetRange(spec); err != nil {
		t.Fatalf("SetRange: %v", err)
	}
	if got := h.Get("Range"); got != "bytes=0-4,10-" {
		t.Fatalf("got %q", got)
	}
}
