package generate

import (
	"fmt"
	"strings"
)

const SystemPrompt = `You are a careful medical information assistant. You explain conditions in plain language for a general audience, you do not diagnose, and you recommend consulting a healthcare professional for personal medical advice.`

// DetailSections is the section list requested from the model, in display order.
var DetailSections = []string{
	"Overview",
	"Symptoms",
	"Causes",
	"Risk Factors",
	"Diagnosis",
	"Treatment",
	"Prevention",
	"When to See a Doctor",
}

// BuildSummaryPrompt asks for a short overview.
func BuildSummaryPrompt(disease string) string {
	return fmt.Sprintf(`Write a brief summary (2 to 4 sentences) of the medical condition %q.
Use plain text only: no headings, no lists, no markdown.
If the name is not a recognised medical condition, say so in one sentence.`, disease)
}

// BuildDetailsPrompt asks for a numbered breakdown whose headings follow the
// "N. **Title:** body" convention the section extractor splits on.
func BuildDetailsPrompt(disease string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Give a detailed breakdown of the medical condition %q.\n\n", disease)
	sb.WriteString("Format every section exactly as a numbered bold heading ending in a colon, followed by its content, for example:\n")
	sb.WriteString("1. **Overview:** text\n2. **Symptoms:** text\n\n")
	sb.WriteString("Use these sections in this order:\n")
	for i, s := range DetailSections {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
	}
	sb.WriteString("\nDo not add any text before the first section. Bullet lists are allowed inside a section.")
	return sb.String()
}
