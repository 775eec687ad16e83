package render

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var allowedTags = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Hr: true,
	atom.Strong: true, atom.B: true, atom.Em: true, atom.I: true, atom.Del: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.A: true, atom.Code: true, atom.Pre: true, atom.Blockquote: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Thead: true, atom.Tbody: true, atom.Tr: true, atom.Th: true, atom.Td: true,
}

// droppedTags are removed together with everything inside them.
var droppedTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Iframe: true,
	atom.Object: true, atom.Embed: true, atom.Noscript: true, atom.Template: true,
}

// blockTags separate words in PlainText.
var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Hr: true, atom.Li: true, atom.Div: true,
	atom.Td: true, atom.Th: true, atom.Tr: true, atom.Pre: true, atom.Blockquote: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

var allowedAttrs = map[string]bool{
	"href":  true,
	"title": true,
}

// Sanitize keeps an allowlist of formatting tags and attributes from an HTML
// fragment. Text is preserved and re-escaped.
func Sanitize(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	depth := 0 // nesting inside dropped elements

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input: keep what was emitted so far.
			return sb.String()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if droppedTags[tok.DataAtom] {
				if tt == html.StartTagToken {
					depth++
				}
				continue
			}
			if depth > 0 || !allowedTags[tok.DataAtom] {
				continue
			}
			tok.Attr = filterAttrs(tok.Attr)
			sb.WriteString(tok.String())

		case html.EndTagToken:
			tok := z.Token()
			if droppedTags[tok.DataAtom] {
				if depth > 0 {
					depth--
				}
				continue
			}
			if depth > 0 || !allowedTags[tok.DataAtom] {
				continue
			}
			sb.WriteString(tok.String())

		case html.TextToken:
			if depth > 0 {
				continue
			}
			sb.WriteString(html.EscapeString(string(z.Text())))
		}
	}
}

func filterAttrs(attrs []html.Attribute) []html.Attribute {
	var kept []html.Attribute
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if !allowedAttrs[key] {
			continue
		}
		if key == "href" && !safeURL(a.Val) {
			continue
		}
		kept = append(kept, html.Attribute{Key: key, Val: a.Val})
	}
	return kept
}

var allowedSchemes = map[string]bool{
	"":       true,
	"http":   true,
	"https":  true,
	"mailto": true,
}

// safeURL allows relative URLs and an allowlist of schemes. Browsers drop
// ASCII tab and newlines anywhere in a URL and trim other control characters
// and spaces, so all of them are removed before the scheme is read.
func safeURL(raw string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, raw)
	u, err := url.Parse(cleaned)
	if err != nil {
		return false
	}
	return allowedSchemes[strings.ToLower(u.Scheme)]
}

// PlainText returns the visible text of an HTML fragment with whitespace
// collapsed.
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	depth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if droppedTags[a] {
				depth++
			}
			if blockTags[a] {
				sb.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if droppedTags[a] && depth > 0 {
				depth--
			}
			if blockTags[a] {
				sb.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			sb.WriteByte(' ')
		case html.TextToken:
			if depth == 0 {
				sb.Write(z.Text())
			}
		}
	}
}
