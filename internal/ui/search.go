package ui

import (
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// ScoreThresholdNormal is the minimum raw fzf score a match must reach to
// count. Below it, short queries match essentially everything.
const ScoreThresholdNormal = 50

// SearchState holds the incremental filter typed into the search bar.
type SearchState struct {
	query     string
	cursorPos int
	minScore  int
}

// NewSearchState creates an empty search state.
func NewSearchState() *SearchState {
	return &SearchState{minScore: ScoreThresholdNormal}
}

// Query returns the current query string.
func (s *SearchState) Query() string {
	return s.query
}

// CursorPos returns the cursor position within the query.
func (s *SearchState) CursorPos() int {
	return s.cursorPos
}

// Active reports whether a non-empty query is set.
func (s *SearchState) Active() bool {
	return s.query != ""
}

// Clear resets the query.
func (s *SearchState) Clear() {
	s.query = ""
	s.cursorPos = 0
}

// InsertChar inserts a character at the cursor.
func (s *SearchState) InsertChar(ch rune) {
	if s.cursorPos >= len(s.query) {
		s.query += string(ch)
	} else {
		s.query = s.query[:s.cursorPos] + string(ch) + s.query[s.cursorPos:]
	}
	s.cursorPos++
}

// DeleteChar removes the character before the cursor.
func (s *SearchState) DeleteChar() {
	if s.cursorPos > 0 {
		s.query = s.query[:s.cursorPos-1] + s.query[s.cursorPos:]
		s.cursorPos--
	}
}

// DeleteWord removes the word before the cursor.
func (s *SearchState) DeleteWord() {
	if s.cursorPos == 0 {
		return
	}
	start := s.cursorPos - 1
	for start > 0 && s.query[start] == ' ' {
		start--
	}
	for start > 0 && s.query[start-1] != ' ' {
		start--
	}
	s.query = s.query[:start] + s.query[s.cursorPos:]
	s.cursorPos = start
}

// MoveCursorLeft moves the cursor one position left.
func (s *SearchState) MoveCursorLeft() {
	if s.cursorPos > 0 {
		s.cursorPos--
	}
}

// MoveCursorRight moves the cursor one position right.
func (s *SearchState) MoveCursorRight() {
	if s.cursorPos < len(s.query) {
		s.cursorPos++
	}
}

// MatchResult carries a match score and the matched rune positions for
// highlighting.
type MatchResult struct {
	Score     int
	Positions []int
}

// MatchEpisode scores an episode against the query over its title and
// speaker names. Title matches carry their highlight positions; speaker
// matches report the row as matching without title highlights.
func (s *SearchState) MatchEpisode(title string, speakers []string) (bool, int, MatchResult) {
	if s.query == "" {
		return true, 0, MatchResult{}
	}

	titleResult := s.match(title)
	if titleResult.Score >= s.minScore {
		return true, titleResult.Score, titleResult
	}

	speakerResult := s.match(strings.Join(speakers, " "))
	if speakerResult.Score >= s.minScore {
		return true, speakerResult.Score, MatchResult{Score: speakerResult.Score}
	}

	return false, -1, MatchResult{Score: -1}
}

// match runs the fzf v2 fuzzy matcher, case-insensitively.
func (s *SearchState) match(text string) MatchResult {
	if s.query == "" || text == "" {
		return MatchResult{Score: -1}
	}

	algo.Init("default")

	chars := util.ToChars([]byte(strings.ToLower(text)))
	pattern := []rune(strings.ToLower(s.query))

	slab := util.MakeSlab(16384, 1024)
	result, positions := algo.FuzzyMatchV2(false, false, true, &chars, pattern, true, slab)
	if result.Start < 0 {
		return MatchResult{Score: -1}
	}

	var matched []int
	if positions != nil {
		matched = make([]int, len(*positions))
		copy(matched, *positions)
	}
	return MatchResult{Score: result.Score, Positions: matched}
}
