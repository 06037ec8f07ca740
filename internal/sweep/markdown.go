// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sweep

import (
	"fmt"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/note-engine/pkg/types"
)

// frontmatterTimeLayout records note timestamps at minute resolution;
// seconds add nothing for a note archive and churn diffs on re-runs.
const frontmatterTimeLayout = "2006-01-02 15:04"

type frontmatter struct {
	NoteType    string `yaml:"note-type"`
	CreatedDate string `yaml:"created-date"`
	LastUpdated string `yaml:"last-updated"`
}

// renderMarkdown composes the note document: a YAML frontmatter block,
// an embed link to the sibling image file, then the extracted text.
func renderMarkdown(result types.ExtractionResult, imageName string, now time.Time) (string, error) {
	fm := frontmatter{
		NoteType:    string(result.NoteType),
		CreatedDate: now.Format(frontmatterTimeLayout),
		LastUpdated: now.Format(frontmatterTimeLayout),
	}
	encoded, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(encoded)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "![[%s]]\n\n", imageName)
	b.WriteString(result.Text)
	b.WriteString("\n")
	return b.String(), nil
}
