package sections

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

// Whitespace and line breaks follow the ECMAScript definitions: space also
// covers \v, U+FEFF and the Unicode Zs class, and a line may also start
// after \r, U+2028 or U+2029.
const (
	space     = `[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`
	lineBreak = `\r\x{2028}\x{2029}`
)

// headingRe matches numbered bold headings such as "2. **Causes:**". Group 1
// is the marker and group 2 the title. The title is non-greedy, so it stops
// at its first ":**", and it never crosses a line break.
var headingRe = regexp.MustCompile(`(?m)(?:^|[` + lineBreak + `])` +
	`(\d+\.` + space + `*\*\*` + space + `*([^\n` + lineBreak + `]*?)` + space + `*:\*\*)`)

// Heading is one heading marker found in a text blob.
type Heading struct {
	Title  string // Trimmed title text
	Start  int    // Byte offset where the marker begins
	Length int    // Byte length of the whole marker
}

// Section is a titled chunk of text.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Map is an ordered title -> body mapping. A repeated title keeps the
// position of its first occurrence and the body of its last.
type Map struct {
	entries []Section
	index   map[string]int
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Set inserts or overwrites a section.
func (m *Map) Set(title, body string) {
	if i, ok := m.index[title]; ok {
		m.entries[i].Body = body
		return
	}
	m.index[title] = len(m.entries)
	m.entries = append(m.entries, Section{Title: title, Body: body})
}

// Get returns the body stored under title.
func (m *Map) Get(title string) (string, bool) {
	if m == nil {
		return "", false
	}
	i, ok := m.index[title]
	if !ok {
		return "", false
	}
	return m.entries[i].Body, true
}

// Len reports the number of distinct titles.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Titles returns the titles in document order.
func (m *Map) Titles() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Title
	}
	return out
}

// Sections returns a copy of the entries in document order.
func (m *Map) Sections() []Section {
	if m == nil {
		return []Section{}
	}
	out := make([]Section, len(m.entries))
	copy(out, m.entries)
	return out
}

// MarshalJSON encodes the map as a JSON object with keys in document order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range m.Sections() {
		if i > 0 {
			sb.WriteByte(',')
		}
		k, err := json.Marshal(e.Title)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Body)
		if err != nil {
			return nil, err
		}
		sb.Write(k)
		sb.WriteByte(':')
		sb.Write(v)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

// FindHeadings returns every heading marker in text, in document order.
func FindHeadings(text string) []Heading {
	matches := headingRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	headings := make([]Heading, 0, len(matches))
	for _, m := range matches {
		headings = append(headings, Heading{
			Title:  trimSpace(text[m[4]:m[5]]),
			Start:  m[2],
			Length: m[3] - m[2],
		})
	}
	return headings
}

// Extract splits text into sections keyed by heading title. Text before the
// first heading is dropped. Input without headings yields an empty Map.
func Extract(text string) *Map {
	out := NewMap()
	if text == "" {
		return out
	}

	headings := FindHeadings(text)
	for i, h := range headings {
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1].Start
		}
		out.Set(h.Title, trimSpace(text[h.Start+h.Length:end]))
	}
	return out
}

// ExtractOptional is Extract for a possibly absent text.
func ExtractOptional(text *string) *Map {
	if text == nil {
		return NewMap()
	}
	return Extract(*text)
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}
