// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notes turns a scanned note image into markdown. The pipeline
// is a fixed sequence of model calls: classify the image, OCR it with a
// prompt chosen by the classification, optionally proofread and insert
// section headers, then derive a title. Each stage feeds the next.
package notes

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/note-engine/pkg/types"
)

// Classification and OCR are extraction tasks and run deterministic;
// the prose stages tolerate mild variability.
const (
	visionTemperature = 0
	textTemperature   = 0.3
)

// titleDatestampLayout is appended to every extracted title. Dots
// instead of colons keep the title legal as a file name everywhere;
// lexicographic order equals chronological order.
const titleDatestampLayout = "2006-01-02 15.04.05"

// Pipeline extracts structured text from note images.
type Pipeline struct {
	completer Completer
	prompts   *Prompts
	now       func() time.Time
}

// NewPipeline wires a completer and an immutable prompt set. Both are
// required; a nil collaborator violates the calling contract.
func NewPipeline(completer Completer, prompts *Prompts) (*Pipeline, error) {
	if completer == nil {
		return nil, &CompletionError{Reason: "completer is required"}
	}
	if prompts == nil {
		return nil, &CompletionError{Reason: "prompt set is required"}
	}
	return &Pipeline{
		completer: completer,
		prompts:   prompts,
		now:       time.Now,
	}, nil
}

// ProcessImage runs the full extraction sequence over one image and
// returns the terminal result.
func (p *Pipeline) ProcessImage(ctx context.Context, image []byte) (types.ExtractionResult, error) {
	if len(image) == 0 {
		return types.ExtractionResult{}, &CompletionError{Reason: "image is required"}
	}
	encoded := base64.StdEncoding.EncodeToString(image)

	label, err := p.completer.ImageCompletion(ctx, encoded, p.prompts.DetectNoteType, visionTemperature)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("classifying note: %w", err)
	}
	noteType := types.ParseNoteType(label)

	text, err := p.completer.ImageCompletion(ctx, encoded, p.ocrPrompt(noteType), visionTemperature)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("extracting text: %w", err)
	}

	if noteType.NeedsRefinement() {
		text, err = p.completer.TextCompletion(ctx, text, p.prompts.Proofread, textTemperature)
		if err != nil {
			return types.ExtractionResult{}, fmt.Errorf("proofreading: %w", err)
		}
		text, err = p.completer.TextCompletion(ctx, text, p.prompts.SectionHeader, textTemperature)
		if err != nil {
			return types.ExtractionResult{}, fmt.Errorf("inserting section headers: %w", err)
		}
	}

	text = stripCodeFence(text)

	title, err := p.completer.TextCompletion(ctx, text, p.prompts.ExtractTitle, textTemperature)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("extracting title: %w", err)
	}

	return types.ExtractionResult{
		NoteType: noteType,
		Title:    p.stampTitle(title),
		Text:     text,
	}, nil
}

// ocrPrompt selects the OCR prompt variant for the note type.
func (p *Pipeline) ocrPrompt(t types.NoteType) string {
	switch t {
	case types.NotePaper:
		return p.prompts.OCRPaper
	case types.NoteWhiteboard:
		return p.prompts.OCRWhiteboard
	default:
		return p.prompts.OCRImage
	}
}

// stampTitle sanitizes the model's title and appends a datestamp so
// output file names are unique and sort chronologically.
func (p *Pipeline) stampTitle(raw string) string {
	title := sanitizeTitle(raw)
	if title == "" {
		title = "Untitled note"
	}
	return title + " " + p.now().Format(titleDatestampLayout)
}

// titleUnsafe are characters that are invalid in file names on at least
// one filesystem the drive may sync to.
const titleUnsafe = `/\:*?"<>|`

// sanitizeTitle reduces a model answer to a single file-name-safe line.
func sanitizeTitle(raw string) string {
	raw = strings.TrimSpace(raw)
	// Models occasionally answer with a quoted or fenced title.
	raw = strings.Trim(raw, "`\"'")

	var b strings.Builder
	for _, r := range raw {
		switch {
		case strings.ContainsRune(titleUnsafe, r):
			b.WriteRune(' ')
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripCodeFence removes a markdown code-fence wrapper that a model may
// have added around its whole answer. Anything that is not a single
// leading/trailing fence pair passes through unchanged.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}

	nl := strings.Index(trimmed, "\n")
	if nl < 0 {
		return s
	}

	body := strings.TrimRight(trimmed[nl+1:], " \t\n")
	if !strings.HasSuffix(body, "```") {
		return s
	}
	body = strings.TrimSuffix(body, "```")
	return strings.TrimRight(body, "\n")
}
