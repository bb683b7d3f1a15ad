// Package templates renders the HTML pages of the upload UI.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// PipelineForm is one upload form on the index page.
type PipelineForm struct {
	Key       string // Pipeline key posted as "pipeline"
	Title     string
	FileField string // Name of the file input
	Template  string // URL of the blank template workbook, optional
}

// FileLink is a downloadable result file.
type FileLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ResultView is a finished conversion.
type ResultView struct {
	JobID     string
	Pipeline  string
	Preview   string
	Truncated bool
	Files     []FileLink
}

// ErrorView is a user-facing error.
type ErrorView struct {
	Message string
	Action  string
	Code    string
	Detail  string
}

// IndexData is everything the index page shows.
type IndexData struct {
	Forms  []PipelineForm
	Result *ResultView
	Error  *ErrorView
}

// DefaultForms are the forms for the two built-in pipelines. Each form uses
// its own file field so browsers keep the two file inputs apart.
var DefaultForms = []PipelineForm{
	{Key: "A", Title: "Amateursport voetbal", FileField: "file_voetbal", Template: "/static/templates/Invulbestand_amateursport_voetbal.xlsx"},
	{Key: "B", Title: "Amateursport overig", FileField: "file_overig", Template: "/static/templates/Invulbestand_amateursport_overig.xlsx"},
}

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:56rem;margin:2rem auto;padding:0 1rem;color:#1f2937}
form{border:1px solid #d1d5db;border-radius:.5rem;padding:1rem;margin-bottom:1rem}
.alert{background:#fef2f2;border:1px solid #fca5a5;border-radius:.5rem;padding:1rem;margin-bottom:1rem}
.code{color:#6b7280;font-size:.875rem}
pre{background:#f3f4f6;padding:1rem;overflow:auto;max-height:32rem;white-space:pre-wrap}`

// Index renders the upload page, with a result or an error when present.
func Index(data IndexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="nl"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>Sportuitslagen naar CUE</title><style>` + pageStyle + `</style></head><body>`)
		b.WriteString(`<h1>Sportuitslagen naar CUE</h1>`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}

		if data.Error != nil {
			if err := ErrorAlert(data.Error.Message, data.Error.Action, data.Error.Code, data.Error.Detail).Render(ctx, w); err != nil {
				return err
			}
		}

		for _, f := range data.Forms {
			if err := uploadForm(f).Render(ctx, w); err != nil {
				return err
			}
		}

		if data.Result != nil {
			if err := Result(*data.Result).Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func uploadForm(f PipelineForm) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<form method="post" action="/process" enctype="multipart/form-data">`)
		fmt.Fprintf(&b, `<h2>%s</h2>`, templ.EscapeString(f.Title))
		fmt.Fprintf(&b, `<input type="hidden" name="pipeline" value="%s">`, templ.EscapeString(f.Key))
		fmt.Fprintf(&b, `<p><input type="file" name="%s" accept=".xlsx,.xlsm" required></p>`, templ.EscapeString(f.FileField))
		b.WriteString(`<p><label>Competitie <input type="text" name="competition"></label> `)
		b.WriteString(`<label>Datum <input type="date" name="match_date"></label></p>`)
		b.WriteString(`<p><button type="submit">Converteren</button>`)
		if f.Template != "" {
			fmt.Fprintf(&b, ` <a href="%s">Leeg invulbestand</a>`, templ.EscapeString(f.Template))
		}
		b.WriteString(`</p></form>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Result renders the preview and download links of a conversion.
func Result(r ResultView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section id="result"><h2>Resultaat</h2><p class="code">Job %s, pipeline %s</p>`,
			templ.EscapeString(r.JobID), templ.EscapeString(r.Pipeline))
		if len(r.Files) > 0 {
			b.WriteString(`<ul>`)
			for _, f := range r.Files {
				fmt.Fprintf(&b, `<li><a href="%s" download>%s</a></li>`, templ.EscapeString(f.URL), templ.EscapeString(f.Name))
			}
			b.WriteString(`</ul>`)
		}
		fmt.Fprintf(&b, `<pre>%s</pre>`, templ.EscapeString(r.Preview))
		if r.Truncated {
			b.WriteString(`<p class="code">Voorbeeld ingekort; download het bestand voor de volledige tekst.</p>`)
		}
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorAlert renders an error box. It doubles as the HTMX error fragment.
func ErrorAlert(message, action, code, detail string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert" role="alert">`)
		fmt.Fprintf(&b, `<strong>%s</strong>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p>%s</p>`, templ.EscapeString(action))
		}
		if detail != "" {
			fmt.Fprintf(&b, `<p class="code">%s</p>`, templ.EscapeString(detail))
		}
		if code != "" {
			fmt.Fprintf(&b, `<p class="code">Code: %s</p>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
