// Package cloze converts between a flat text string with embedded blank
// markers of the form [[b:<id>]] and a typed segment sequence, and manages
// blank insertion and removal during authoring.
package cloze

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/formlab/form-service/internal/models"
	"github.com/google/uuid"
)

var markerPattern = regexp.MustCompile(`\[\[b:([^\]]+)\]\]`)

// Marker renders the inline marker for a blank id.
func Marker(id string) string {
	return "[[b:" + id + "]]"
}

type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentBlank
)

// Segment is one piece of a parsed cloze text: either a literal text run or
// a blank reference. Concatenating literal text and markers in order
// reconstructs the original string exactly.
type Segment struct {
	Kind    SegmentKind
	Text    string // literal text, SegmentText only
	BlankID string // marker payload, SegmentBlank only
}

// Parse splits text into ordered segments. Literal segments partition the
// non-marker bytes; blank segments carry the marker id.
func Parse(text string) []Segment {
	var segments []Segment
	last := 0
	for _, loc := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > last {
			segments = append(segments, Segment{Kind: SegmentText, Text: text[last:start]})
		}
		segments = append(segments, Segment{Kind: SegmentBlank, BlankID: text[loc[2]:loc[3]]})
		last = end
	}
	if last < len(text) {
		segments = append(segments, Segment{Kind: SegmentText, Text: text[last:]})
	}
	return segments
}

// Reassemble is the inverse of Parse.
func Reassemble(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Kind == SegmentBlank {
			b.WriteString(Marker(s.BlankID))
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// BlankIDsInText returns marker ids in order of appearance.
func BlankIDsInText(text string) []string {
	var ids []string
	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

// OverlapError reports a blank insertion whose selection intersects an
// existing marker's span.
type OverlapError struct {
	SelectionStart int
	SelectionEnd   int
	MarkerID       string
	MarkerStart    int
	MarkerEnd      int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("selection [%d,%d) overlaps existing blank marker %q at [%d,%d)",
		e.SelectionStart, e.SelectionEnd, e.MarkerID, e.MarkerStart, e.MarkerEnd)
}

// ErrEmptySelection rejects insertion over an empty or whitespace-only range.
var ErrEmptySelection = fmt.Errorf("selection is empty or whitespace-only")

// ErrInvalidSelection rejects out-of-range selection offsets.
var ErrInvalidSelection = fmt.Errorf("selection offsets out of range")

// Tokenizer mints blank ids through an injected generator so id uniqueness
// is the caller's provable invariant rather than a timestamp coincidence.
type Tokenizer struct {
	newID func() string
}

// New returns a Tokenizer backed by the given id generator.
func New(newID func() string) *Tokenizer {
	return &Tokenizer{newID: newID}
}

// NewDefault returns a Tokenizer minting UUID blank ids.
func NewDefault() *Tokenizer {
	return New(uuid.NewString)
}

// InsertResult carries the outcome of a successful InsertBlank.
type InsertResult struct {
	Text    string
	Blanks  []models.ClozeBlank
	BlankID string
	// Caret is the byte offset just past the inserted marker, for the
	// caller to re-register cursor placement.
	Caret int
}

// InsertBlank replaces text[start:end] with a freshly minted marker and
// appends {id, answer} to blanks. Offsets are byte offsets into text. The
// selection must be non-empty and contain non-whitespace, and must not
// intersect any marker currently parseable from text, whether or not that
// marker has a blanks entry. On error text and blanks are unchanged.
func (t *Tokenizer) InsertBlank(text string, blanks []models.ClozeBlank, start, end int, answer string) (*InsertResult, error) {
	if start < 0 || end > len(text) || start > end {
		return nil, ErrInvalidSelection
	}
	if start == end || strings.TrimSpace(text[start:end]) == "" {
		return nil, ErrEmptySelection
	}

	for _, loc := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		mStart, mEnd := loc[0], loc[1]
		if end <= mStart || start >= mEnd {
			continue
		}
		return nil, &OverlapError{
			SelectionStart: start,
			SelectionEnd:   end,
			MarkerID:       text[loc[2]:loc[3]],
			MarkerStart:    mStart,
			MarkerEnd:      mEnd,
		}
	}

	id := t.newID()
	marker := Marker(id)
	newText := text[:start] + marker + text[end:]
	newBlanks := append(append([]models.ClozeBlank(nil), blanks...), models.ClozeBlank{ID: id, Answer: answer})

	return &InsertResult{
		Text:    newText,
		Blanks:  newBlanks,
		BlankID: id,
		Caret:   start + len(marker),
	}, nil
}

// RemoveBlank drops blankID from blanks and substitutes the blank's authored
// answer back in place of its marker. An unknown id is a no-op. A blank whose
// marker is no longer in text ("token missing") still loses its entry, but
// the text is left untouched since there is no token to resolve.
func RemoveBlank(text string, blanks []models.ClozeBlank, blankID string) (string, []models.ClozeBlank) {
	idx := -1
	for i, b := range blanks {
		if b.ID == blankID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return text, blanks
	}

	newText := strings.ReplaceAll(text, Marker(blankID), blanks[idx].Answer)
	newBlanks := make([]models.ClozeBlank, 0, len(blanks)-1)
	newBlanks = append(newBlanks, blanks[:idx]...)
	newBlanks = append(newBlanks, blanks[idx+1:]...)
	return newText, newBlanks
}

// Divergence is the advisory report of text/blanks drift: markers without a
// blanks entry and blanks whose marker left the text. Neither is fatal.
type Divergence struct {
	OrphanedMarkerIDs []string
	MissingBlankIDs   []string
}

// FindOrphans computes the divergence between text and blanks.
func FindOrphans(text string, blanks []models.ClozeBlank) Divergence {
	known := make(map[string]bool, len(blanks))
	for _, b := range blanks {
		known[b.ID] = true
	}

	inText := map[string]bool{}
	var div Divergence
	for _, id := range BlankIDsInText(text) {
		inText[id] = true
		if !known[id] {
			div.OrphanedMarkerIDs = append(div.OrphanedMarkerIDs, id)
		}
	}
	for _, b := range blanks {
		if !inText[b.ID] {
			div.MissingBlankIDs = append(div.MissingBlankIDs, b.ID)
		}
	}
	return div
}
