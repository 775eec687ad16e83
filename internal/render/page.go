package render

import (
	"html/template"
	"io"

	"github.com/dgallion1/condlookup/internal/access"
	"github.com/dgallion1/condlookup/internal/lookup"
)

// Panel is one accordion entry.
type Panel struct {
	Title string
	HTML  template.HTML
}

// PageData drives the condition lookup page.
type PageData struct {
	Disease  string
	SignedIn bool
	Error    string
	Denied   *access.Decision
	Result   *lookup.Result
	Panels   []Panel
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Disease}}{{.Disease}} - {{end}}Condition lookup</title>
</head>
<body>
<main>
<h1>Condition lookup</h1>
<form method="get" action="/">
  <label for="disease">Disease name</label>
  <input id="disease" name="disease" value="{{.Disease}}" maxlength="200" required>
  <button type="submit">Search</button>
</form>
{{if not .SignedIn}}<p class="notice">Open this page from your account to run lookups.</p>{{end}}
{{with .Error}}<p class="error" role="alert">{{.}}</p>{{end}}
{{with .Denied}}<p class="denied" role="alert">{{if .Reason}}{{.Reason}}{{else}}This feature is not available on your plan.{{end}}</p>{{end}}
{{with .Result}}
<section class="links">
  <h2>Search the web</h2>
  <ul>{{range .Links}}<li><a href="{{.URL}}" target="_blank" rel="noopener">Search {{.Engine}}</a></li>{{end}}</ul>
</section>
<section class="summary">
  <h2>Summary</h2>
  {{if .SummaryError}}<p class="error">{{.SummaryError}}</p>{{else}}<p>{{.Summary}}</p>{{end}}
</section>
<section class="details">
  <h2>Detailed information</h2>
  {{if .DetailsError}}<p class="error">{{.DetailsError}}</p>{{end}}
  {{if .ID}}<p><a href="/lookup/{{.ID}}/export.docx">Download report</a></p>{{end}}
</section>
{{end}}
{{range .Panels}}
<details>
  <summary>{{.Title}}</summary>
  <div>{{.HTML}}</div>
</details>
{{end}}
{{if and .Result (not .Panels) (not .Result.DetailsError)}}<p>No detailed sections were returned.</p>{{end}}
</main>
</body>
</html>
`))

// Panels renders each section body of a lookup to HTML.
func Panels(r *lookup.Result) ([]Panel, error) {
	list := r.SectionList()
	panels := make([]Panel, 0, len(list))
	for _, s := range list {
		h, err := Markdown(s.Body)
		if err != nil {
			return nil, err
		}
		panels = append(panels, Panel{Title: s.Title, HTML: h})
	}
	return panels, nil
}

// Page writes the condition lookup page.
func Page(w io.Writer, data PageData) error {
	return pageTmpl.Execute(w, data)
}
