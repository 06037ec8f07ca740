// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// NoteType classifies the physical medium of a scanned note. It is a
// closed set: anything the classifier returns outside the known labels
// collapses to NoteImage via ParseNoteType.
type NoteType string

const (
	// NoteImage is the default: an unconstrained freeform image.
	NoteImage NoteType = "IMAGE"

	// NotePaper is a handwritten note on paper.
	NotePaper NoteType = "PAPER"

	// NoteWhiteboard is a photographed whiteboard.
	NoteWhiteboard NoteType = "WHITEBOARD"
)

// ParseNoteType maps a free-text classifier label onto the closed
// NoteType set. Unrecognized labels fall back to NoteImage; the
// fallback is the explicit default arm, not an error.
func ParseNoteType(label string) NoteType {
	switch NoteType(strings.TrimSpace(label)) {
	case NotePaper:
		return NotePaper
	case NoteWhiteboard:
		return NoteWhiteboard
	default:
		return NoteImage
	}
}

// NeedsRefinement reports whether the OCR output for this note type
// goes through the proofread and section-header passes. Freeform
// images are not assumed to contain proofreadable prose.
func (t NoteType) NeedsRefinement() bool {
	return t == NotePaper || t == NoteWhiteboard
}

// ExtractionResult is the terminal state of the extraction pipeline
// for one image.
type ExtractionResult struct {
	// NoteType is the classified medium of the note.
	NoteType NoteType `json:"note_type" yaml:"note_type"`

	// Title is the extracted title with a datestamp appended. It is
	// non-empty and safe to use as a drive file name.
	Title string `json:"title" yaml:"title"`

	// Text is the final extracted markdown body, with any fenced
	// code-block wrapper already stripped.
	Text string `json:"text" yaml:"text"`
}
