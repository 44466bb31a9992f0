package papers

import "testing"

func TestParseRangeSuffixForm(t *testing.T) {
	rng, err := parseRange("bytes=-100", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rng.Start != 900 || rng.End != 1000 {
		t.Fatalf("expected [900,1000), got [%d,%d)", rng.Start, rng.End)
	}
}

func TestParseRangeOpenEndedForm(t *testing.T) {
	rng, err := parseRange("bytes=500-", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rng.Start != 500 || rng.End != 1000 {
		t.Fatalf("expected [500,1000), got [%d,%d)", rng.Start, rng.End)
	}
}

func TestParseRangeClosedForm(t *testing.T) {
	rng, err := parseRange("bytes=100-199", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rng.Start != 100 || rng.End != 200 {
		t.Fatalf("expected [100,200), got [%d,%d)", rng.Start, rng.End)
	}
}

func TestParseRangeClampsEndToSize(t *testing.T) {
	rng, err := parseRange("bytes=900-2000", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rng.End != 1000 {
		t.Fatalf("expected end clamped to 1000, got %d", rng.End)
	}
}

func TestParseRangeRejectsStartOutOfBounds(t *testing.T) {
	if _, err := parseRange("bytes=5000-", 1000); err == nil {
		t.Fatal("expected error for out-of-bounds start")
	}
}

func TestParseRangeRejectsMultiRange(t *testing.T) {
	if _, err := parseRange("bytes=0-10,20-30", 1000); err == nil {
		t.Fatal("expected error for multi-range request")
	}
}

func TestParseRangeRejectsMalformedHeader(t *testing.T) {
	if _, err := parseRange("bytes=abc", 1000); err == nil {
		t.Fatal("expected error for malformed range")
	}
	if _, err := parseRange("items=0-10", 1000); err == nil {
		t.Fatal("expected error for unsupported unit")
	}
}
