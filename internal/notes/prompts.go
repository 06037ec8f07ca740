// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notes

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

//go:embed prompts/*.txt
var defaultPromptFS embed.FS

// Prompts holds the seven system prompts the pipeline runs with. The
// set is loaded once per process and immutable thereafter; the pipeline
// receives it at construction.
type Prompts struct {
	DetectNoteType string
	OCRImage       string
	OCRPaper       string
	OCRWhiteboard  string
	Proofread      string
	SectionHeader  string
	ExtractTitle   string
}

// DefaultPrompts returns the prompt set compiled into the binary.
func DefaultPrompts() (*Prompts, error) {
	return loadPrompts(defaultPromptFS, "prompts")
}

// LoadPrompts reads a prompt set from a directory of .txt files,
// overriding the compiled-in defaults.
func LoadPrompts(dir string) (*Prompts, error) {
	return loadPrompts(os.DirFS(dir), ".")
}

func loadPrompts(fsys fs.FS, root string) (*Prompts, error) {
	p := &Prompts{}
	fields := []struct {
		file string
		dst  *string
	}{
		{"detect_note_type.txt", &p.DetectNoteType},
		{"ocr_image.txt", &p.OCRImage},
		{"ocr_paper.txt", &p.OCRPaper},
		{"ocr_whiteboard.txt", &p.OCRWhiteboard},
		{"proofread.txt", &p.Proofread},
		{"section_header.txt", &p.SectionHeader},
		{"extract_title.txt", &p.ExtractTitle},
	}

	for _, f := range fields {
		data, err := fs.ReadFile(fsys, path.Join(root, f.file))
		if err != nil {
			return nil, fmt.Errorf("reading prompt %s: %w", f.file, err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, fmt.Errorf("prompt %s is empty", f.file)
		}
		*f.dst = text
	}
	return p, nil
}
