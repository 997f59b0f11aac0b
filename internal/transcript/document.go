package transcript

import (
	"fmt"
	"math"
	"strings"

	"podboard/internal/timeindex"
)

// SchemaVersion is the transcript document version this build understands.
// Documents with any other version tag are discarded as malformed.
const SchemaVersion = 2

// speakerWindowSec bounds the nearest-segment-for-a-speaker search around the
// target time.
const speakerWindowSec = 120.0

// Document is a live transcript: parallel arrays of timestamp, speaker index
// and text, plus the speaker name table the indices point into.
type Document struct {
	Version      int       `json:"version"`
	Speakers     []string  `json:"speakers"`
	Timestamps   []float64 `json:"timestamps"`
	SpeakerIndex []int     `json:"speakerIndex"`
	Text         []string  `json:"text"`
}

// Validate checks the document against the expected schema: version tag and
// equal-length parallel arrays. Timestamps are assumed non-decreasing but not
// verified; alignment only depends on non-decreasing order.
func (d *Document) Validate() error {
	if d.Version != SchemaVersion {
		return fmt.Errorf("unsupported transcript version %d (want %d)", d.Version, SchemaVersion)
	}
	if d.Timestamps == nil || d.SpeakerIndex == nil || d.Text == nil {
		return fmt.Errorf("transcript missing required arrays")
	}
	if len(d.Timestamps) != len(d.SpeakerIndex) || len(d.Timestamps) != len(d.Text) {
		return fmt.Errorf("transcript arrays have mismatched lengths: %d timestamps, %d speakers, %d texts",
			len(d.Timestamps), len(d.SpeakerIndex), len(d.Text))
	}
	return nil
}

// Segment is the spoken segment active at some playback position.
type Segment struct {
	Speaker  string // empty when the speaker is unknown
	Text     string
	StartSec int
}

// CurrentSegment returns the segment whose timestamp is the greatest one at
// or before positionSec, or ok=false when there is none. A point carrying
// neither a known speaker nor text counts as absent.
func CurrentSegment(d *Document, positionSec float64) (Segment, bool) {
	if d == nil {
		return Segment{}, false
	}
	pos := math.Floor(positionSec)
	if pos < 0 || math.IsNaN(pos) {
		pos = 0
	}

	idx := timeindex.LastIndexAtOrBefore(d.Timestamps, pos)
	if idx == -1 {
		return Segment{}, false
	}

	speaker := d.speakerName(d.SpeakerIndex[idx])
	text := d.Text[idx]
	if speaker == "" && text == "" {
		return Segment{}, false
	}

	return Segment{
		Speaker:  speaker,
		Text:     text,
		StartSec: int(math.Floor(d.Timestamps[idx])),
	}, true
}

// NearestSegmentForSpeaker finds the start time of the segment attributed to
// speaker closest to targetSec within a bounded window. Segments starting at
// or after the target win over earlier ones regardless of distance; an
// earlier segment is returned only when nothing at/after exists in the
// window. This matches the "skip forward to them" intent of the interaction.
func NearestSegmentForSpeaker(d *Document, targetSec float64, speaker string) (float64, bool) {
	if d == nil || speaker == "" {
		return 0, false
	}

	low := targetSec - speakerWindowSec
	high := targetSec + speakerWindowSec

	// Last candidate inside the window; everything past it is too far out.
	end := timeindex.LastIndexAtOrBefore(d.Timestamps, high)
	if end == -1 {
		return 0, false
	}

	bestAfter := math.Inf(1)
	bestBefore := math.Inf(-1)
	foundAfter, foundBefore := false, false

	for i := end; i >= 0; i-- {
		ts := d.Timestamps[i]
		if ts < low {
			break
		}
		if !strings.EqualFold(d.speakerName(d.SpeakerIndex[i]), speaker) {
			continue
		}
		if ts >= targetSec {
			if ts < bestAfter {
				bestAfter = ts
				foundAfter = true
			}
		} else if ts > bestBefore {
			bestBefore = ts
			foundBefore = true
		}
	}

	if foundAfter {
		return bestAfter, true
	}
	if foundBefore {
		return bestBefore, true
	}
	return 0, false
}

// ExcerptForWindow renders the transcript entries between startSec and endSec
// as display lines, optionally filtered to one speaker, truncated to
// maxChars. Always returns something so callers have a stable format.
func ExcerptForWindow(d *Document, startSec, endSec float64, maxChars int, speakerFilter string) string {
	var b strings.Builder
	if d != nil {
		for i, ts := range d.Timestamps {
			if ts+0.001 < startSec {
				continue
			}
			if ts-0.001 > endSec {
				break
			}
			speaker := d.speakerName(d.SpeakerIndex[i])
			if speakerFilter != "" && !strings.EqualFold(speaker, speakerFilter) {
				continue
			}
			if speaker == "" {
				speaker = "unknown"
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "[%s] %s: %s", formatHMS(ts), speaker, strings.TrimSpace(d.Text[i]))
			if maxChars > 0 && b.Len() >= maxChars {
				break
			}
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		note := ""
		if speakerFilter != "" {
			note = fmt.Sprintf(" (filtered by speaker: %s)", speakerFilter)
		}
		return fmt.Sprintf("[no transcript entries found in window %s - %s%s]",
			formatHMS(startSec), formatHMS(endSec), note)
	}

	out := b.String()
	if maxChars > 0 && len(out) > maxChars {
		// Truncate at a rune boundary
		runes := []rune(out)
		if len(runes) > maxChars {
			runes = runes[:maxChars]
		}
		out = string(runes) + "\n…"
	}
	return out
}

func (d *Document) speakerName(idx int) string {
	if idx < 0 || idx >= len(d.Speakers) {
		return ""
	}
	return d.Speakers[idx]
}

func formatHMS(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	total := int(sec)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
