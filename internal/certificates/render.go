package certificates

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"pulsescore-backend/internal/scoring"
	"pulsescore-backend/internal/shared/util"
)

// Document is everything printed on a certificate.
type Document struct {
	CertificateID    string
	OrganizationName string
	IssuedOn         time.Time
	OverallScore     int
	Tier             scoring.Tier
	Categories       []scoring.CategoryScore
}

// Rendered is a certificate ready to mail.
type Rendered struct {
	Subject string
	HTML    string
}

type categoryRow struct {
	Label  string
	Score  int
	Weight string
}

const bodyMarkdown = `# {{.TierTitle}}

**{{.Organization}}** has earned the **{{.TierTitle}}** PulseScore tier with an overall score of **{{.Score}}/100**.

| Category | Score | Weight |
|---|---:|---:|
{{range .Categories}}| {{.Label}} | {{.Score}} | {{.Weight}} |
{{end}}
Issued on {{.IssuedOn}}.

Certificate ID: ` + "`{{.ID}}`" + `
`

const pageHTML = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: Helvetica, Arial, sans-serif; max-width: 640px; margin: 0 auto;">
{{.Body}}
</body>
</html>
`

var (
	bodyTmpl = template.Must(template.New("certificate.md").Parse(bodyMarkdown))
	pageTmpl = htmltemplate.Must(htmltemplate.New("certificate.html").Parse(pageHTML))
	markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

	markdownEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
		"|", `\|`, "#", `\#`, "<", "&lt;", ">", "&gt;",
	)
)

// Render builds the subject line and HTML body of a certificate.
func Render(doc Document) (Rendered, error) {
	org := strings.TrimSpace(doc.OrganizationName)
	if org == "" {
		return Rendered{}, fmt.Errorf("organization name is required")
	}
	tierTitle := util.Humanize(string(doc.Tier))

	rows := make([]categoryRow, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		rows = append(rows, categoryRow{
			Label:  util.Humanize(c.Category),
			Score:  c.Score,
			Weight: fmt.Sprintf("%.0f%%", c.Weight*100),
		})
	}

	var md bytes.Buffer
	if err := bodyTmpl.Execute(&md, map[string]any{
		"TierTitle":    tierTitle,
		"Organization": markdownEscaper.Replace(org),
		"Score":        doc.OverallScore,
		"Categories":   rows,
		"IssuedOn":     doc.IssuedOn.Format("January 2, 2006"),
		"ID":           doc.CertificateID,
	}); err != nil {
		return Rendered{}, fmt.Errorf("render markdown: %w", err)
	}

	var body bytes.Buffer
	if err := markdown.Convert(md.Bytes(), &body); err != nil {
		return Rendered{}, fmt.Errorf("convert markdown: %w", err)
	}

	subject := fmt.Sprintf("%s is %s", org, tierTitle)
	var page bytes.Buffer
	if err := pageTmpl.Execute(&page, map[string]any{
		"Title": subject,
		"Body":  htmltemplate.HTML(body.String()),
	}); err != nil {
		return Rendered{}, fmt.Errorf("render page: %w", err)
	}
	return Rendered{Subject: subject, HTML: page.String()}, nil
}
