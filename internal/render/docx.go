package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/condlookup/internal/lookup"
	"github.com/fumiama/go-docx"
)

// WriteDOCX writes a lookup as a Word document: title, summary, one heading
// plus body per section, and the search links.
func WriteDOCX(w io.Writer, r *lookup.Result) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText(r.Disease).Bold().Size("36")

	if r.Summary != "" {
		doc.AddParagraph().AddText("Summary").Bold().Size("28")
		for _, line := range bodyLines(r.Summary) {
			doc.AddParagraph().AddText(line)
		}
	}

	for _, s := range r.SectionList() {
		doc.AddParagraph().AddText(s.Title).Bold().Size("28")
		for _, line := range bodyLines(s.Body) {
			doc.AddParagraph().AddText(line)
		}
	}

	if len(r.Links) > 0 {
		doc.AddParagraph().AddText("Search").Bold().Size("28")
		for _, l := range r.Links {
			doc.AddParagraph().AddText(fmt.Sprintf("%s: %s", l.Engine, l.URL))
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

var inlineMarkup = strings.NewReplacer("**", "", "__", "", "`", "")

// bodyLines splits a markdown body into non-empty plain lines; list markers
// become bullets.
func bodyLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, marker := range []string{"- ", "* ", "+ "} {
			if strings.HasPrefix(line, marker) {
				line = "• " + strings.TrimSpace(line[len(marker):])
				break
			}
		}
		out = append(out, inlineMarkup.Replace(line))
	}
	return out
}
