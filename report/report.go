// Package report writes a static HTML comparison report: the markdown
// comparison converted to HTML, next to PNG charts of the equity curves,
// the cumulative returns and the drawdowns of every strategy.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/etnz/rebalance/renderer"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Strategy Comparison</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; max-width: 1080px; margin: 2em auto; color: #222; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: right; }
th:first-child, td:first-child { text-align: left; }
img { max-width: 100%; margin: 1em 0; }
</style>
</head>
<body>
{{.Body}}
<h2>Charts</h2>
{{range .Charts}}<img src="{{.}}" alt="{{.}}">
{{end}}</body>
</html>
`

// Write renders the report of the runs into dir: an index.html page and one
// PNG per chart. The directory is created if needed.
func Write(dir string, runs []renderer.Run) error {
	if len(runs) == 0 {
		return fmt.Errorf("no run to report on")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create report directory: %w", err)
	}

	charts := []struct {
		file   string
		render func([]renderer.Run) ([]byte, error)
	}{
		{"equity.png", equityChart},
		{"returns.png", returnsChart},
		{"drawdown.png", drawdownChart},
	}
	files := make([]string, 0, len(charts))
	for _, c := range charts {
		png, err := c.render(runs)
		if err != nil {
			return fmt.Errorf("cannot render %s: %w", c.file, err)
		}
		if err := os.WriteFile(filepath.Join(dir, c.file), png, 0644); err != nil {
			return fmt.Errorf("cannot write %s: %w", c.file, err)
		}
		files = append(files, c.file)
	}

	var body bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := md.Convert([]byte(renderer.CompareMarkdown(runs)), &body); err != nil {
		return fmt.Errorf("cannot convert comparison to HTML: %w", err)
	}

	page, err := template.New("report").Parse(pageTemplate)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	err = page.Execute(&out, struct {
		Body   template.HTML
		Charts []string
	}{template.HTML(body.String()), files})
	if err != nil {
		return fmt.Errorf("cannot execute report template: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), out.Bytes(), 0644); err != nil {
		return fmt.Errorf("cannot write index.html: %w", err)
	}
	return nil
}
