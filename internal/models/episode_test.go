package models

import "testing"

func TestParseDurationString(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"90", 90},
		{"-5", 0},
		{"4:20", 260},
		{"1:02:03", 3723},
		{"0:00", 0},
		{"abc", 0},
		{"1:2:3:4", 0},
		{"x:20", 0},
	}

	for _, tt := range tests {
		if got := ParseDurationString(tt.input); got != tt.expected {
			t.Errorf("ParseDurationString(%q) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}

func TestDetailDocument_DurationSeconds(t *testing.T) {
	doc := &DetailDocument{DurationSec: 754}
	if got := doc.DurationSeconds(); got != 754 {
		t.Errorf("Expected 754, got %d", got)
	}

	doc = &DetailDocument{Duration: []int{1, 2, 3}}
	if got := doc.DurationSeconds(); got != 3723 {
		t.Errorf("Expected 3723 from triple, got %d", got)
	}

	// Explicit seconds win over the triple
	doc = &DetailDocument{DurationSec: 10, Duration: []int{1, 0, 0}}
	if got := doc.DurationSeconds(); got != 10 {
		t.Errorf("Expected explicit seconds to win, got %d", got)
	}

	// Short triple is ignored
	doc = &DetailDocument{Duration: []int{1, 2}}
	if got := doc.DurationSeconds(); got != 0 {
		t.Errorf("Expected 0 for short triple, got %d", got)
	}
}

func TestIndexDocument_ByNumber(t *testing.T) {
	doc := &IndexDocument{
		Episodes: map[string]IndexEntry{
			"42":  {Title: "The Answer"},
			"7":   {Title: "Lucky"},
			"bad": {Title: "dropped"},
		},
	}

	byNum := doc.ByNumber()
	if len(byNum) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(byNum))
	}
	if byNum[42].Title != "The Answer" {
		t.Errorf("Expected entry 42, got %+v", byNum[42])
	}
	if _, exists := byNum[0]; exists {
		t.Error("Non-numeric key should have been dropped")
	}
}

func TestMinimalDetail(t *testing.T) {
	d := MinimalDetail(42)
	if d.Title != "Episode 42" {
		t.Errorf("Expected placeholder title, got %q", d.Title)
	}
	if d.Fallback != FallbackMinimal {
		t.Errorf("Expected minimal fallback, got %q", d.Fallback)
	}
	if d.DurationSec != 0 || len(d.Speakers) != 0 || d.MediaURL != "" {
		t.Errorf("Expected empty minimal record, got %+v", d)
	}
}

func TestEpisodeDetail_Clone(t *testing.T) {
	orig := &EpisodeDetail{
		EpisodeNumber: 1,
		Speakers:      []string{"A", "B"},
		Chapters:      []Chapter{{Title: "Intro"}},
	}
	clone := orig.Clone()
	clone.Speakers[0] = "X"
	clone.Chapters[0].Title = "Changed"

	if orig.Speakers[0] != "A" {
		t.Error("Clone shares speakers slice with original")
	}
	if orig.Chapters[0].Title != "Intro" {
		t.Error("Clone shares chapters slice with original")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		sec      int
		expected string
	}{
		{0, "--:--"},
		{-1, "--:--"},
		{59, "0:59"},
		{260, "4:20"},
		{3723, "1:02:03"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.sec); got != tt.expected {
			t.Errorf("FormatDuration(%d) = %q, expected %q", tt.sec, got, tt.expected)
		}
	}
}
