package transcript

import (
	"strings"
	"testing"
)

func sampleDocument() *Document {
	return &Document{
		Version:      SchemaVersion,
		Speakers:     []string{"A", "B"},
		Timestamps:   []float64{0, 30, 65},
		SpeakerIndex: []int{0, 1, 0},
		Text:         []string{"hi", "there", "back"},
	}
}

func TestCurrentSegment(t *testing.T) {
	doc := sampleDocument()

	seg, ok := CurrentSegment(doc, 40)
	if !ok {
		t.Fatal("Expected a segment at position 40")
	}
	if seg.Speaker != "B" || seg.Text != "there" || seg.StartSec != 30 {
		t.Errorf("Unexpected segment at 40: %+v", seg)
	}

	seg, ok = CurrentSegment(doc, 10)
	if !ok || seg.Speaker != "A" || seg.Text != "hi" || seg.StartSec != 0 {
		t.Errorf("Unexpected segment at 10: %+v (ok=%v)", seg, ok)
	}

	// Negative positions clamp to 0
	negSeg, negOK := CurrentSegment(doc, -5)
	zeroSeg, zeroOK := CurrentSegment(doc, 0)
	if negOK != zeroOK || negSeg != zeroSeg {
		t.Errorf("Position -5 should behave like 0: got %+v vs %+v", negSeg, zeroSeg)
	}

	// Fractional positions floor before lookup
	seg, ok = CurrentSegment(doc, 29.9)
	if !ok || seg.StartSec != 0 {
		t.Errorf("Position 29.9 should still hit the first segment, got %+v", seg)
	}
}

func TestCurrentSegment_None(t *testing.T) {
	if _, ok := CurrentSegment(nil, 10); ok {
		t.Error("Nil document should yield no segment")
	}

	empty := &Document{Version: SchemaVersion, Timestamps: []float64{}, SpeakerIndex: []int{}, Text: []string{}}
	if _, ok := CurrentSegment(empty, 10); ok {
		t.Error("Empty document should yield no segment")
	}

	doc := sampleDocument()
	doc.Timestamps[0] = 5
	if _, ok := CurrentSegment(doc, 2); ok {
		t.Error("Position before the first entry should yield no segment")
	}
}

func TestCurrentSegment_UnknownSpeaker(t *testing.T) {
	doc := &Document{
		Version:      SchemaVersion,
		Speakers:     []string{"A"},
		Timestamps:   []float64{0, 10},
		SpeakerIndex: []int{5, -1}, // both out of range
		Text:         []string{"words", ""},
	}

	seg, ok := CurrentSegment(doc, 5)
	if !ok {
		t.Fatal("Text without an attributed speaker is still a segment")
	}
	if seg.Speaker != "" || seg.Text != "words" {
		t.Errorf("Unexpected segment: %+v", seg)
	}

	// No speaker and no text is treated as absent, not as silence
	if _, ok := CurrentSegment(doc, 15); ok {
		t.Error("Point with neither speaker nor text should yield no segment")
	}
}

func TestNearestSegmentForSpeaker(t *testing.T) {
	doc := &Document{
		Version:      SchemaVersion,
		Speakers:     []string{"A", "B"},
		Timestamps:   []float64{0, 50, 100, 150, 400},
		SpeakerIndex: []int{0, 1, 0, 1, 1},
		Text:         []string{"a1", "b1", "a2", "b2", "b3"},
	}

	// A segment at or after the target wins even when an earlier one is closer
	ts, ok := NearestSegmentForSpeaker(doc, 60, "B")
	if !ok || ts != 150 {
		t.Errorf("Expected at-or-after segment 150, got %v (ok=%v)", ts, ok)
	}

	// Only fall back to an earlier segment when nothing follows in the window
	ts, ok = NearestSegmentForSpeaker(doc, 160, "A")
	if !ok || ts != 100 {
		t.Errorf("Expected fallback to 100, got %v (ok=%v)", ts, ok)
	}

	// Outside the ±120s window nothing matches
	if _, ok := NearestSegmentForSpeaker(doc, 270, "A"); ok {
		t.Error("Expected no match outside the search window")
	}

	// Case-insensitive speaker comparison
	ts, ok = NearestSegmentForSpeaker(doc, 40, "b")
	if !ok || ts != 50 {
		t.Errorf("Expected case-insensitive match at 50, got %v (ok=%v)", ts, ok)
	}

	if _, ok := NearestSegmentForSpeaker(doc, 40, ""); ok {
		t.Error("Empty speaker should never match")
	}
}

func TestValidate(t *testing.T) {
	doc := sampleDocument()
	if err := doc.Validate(); err != nil {
		t.Errorf("Valid document rejected: %v", err)
	}

	bad := sampleDocument()
	bad.Version = 1
	if err := bad.Validate(); err == nil {
		t.Error("Wrong version should fail validation")
	}

	bad = sampleDocument()
	bad.Text = bad.Text[:2]
	if err := bad.Validate(); err == nil {
		t.Error("Mismatched array lengths should fail validation")
	}

	bad = sampleDocument()
	bad.Timestamps = nil
	if err := bad.Validate(); err == nil {
		t.Error("Missing required array should fail validation")
	}
}

func TestExcerptForWindow(t *testing.T) {
	doc := sampleDocument()

	out := ExcerptForWindow(doc, 0, 40, 0, "")
	if !strings.Contains(out, "A: hi") || !strings.Contains(out, "B: there") {
		t.Errorf("Expected both entries in excerpt, got %q", out)
	}
	if strings.Contains(out, "back") {
		t.Errorf("Entry outside window leaked into excerpt: %q", out)
	}

	out = ExcerptForWindow(doc, 0, 100, 0, "A")
	if strings.Contains(out, "there") {
		t.Errorf("Speaker filter failed: %q", out)
	}

	out = ExcerptForWindow(doc, 500, 600, 0, "")
	if !strings.Contains(out, "no transcript entries found") {
		t.Errorf("Expected placeholder for empty window, got %q", out)
	}

	out = ExcerptForWindow(nil, 0, 10, 0, "B")
	if !strings.Contains(out, "filtered by speaker: B") {
		t.Errorf("Expected speaker note in placeholder, got %q", out)
	}
}
