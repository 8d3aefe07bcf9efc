package summary

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/verdant-labs/biodivminer/internal/report"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Biodiversity Statement Overview</title>
<style>
body { font-family: sans-serif; max-width: 60em; margin: 2em auto; padding: 0 1em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 0.3em 0.7em; text-align: left; }
th { background: #eee; }
</style>
</head>
<body>
%s</body>
</html>
`

// OverviewMarkdown renders the global summary as a markdown document.
func OverviewMarkdown(counts []CategoryCount, totalStatements int) string {
	var sb strings.Builder
	sb.WriteString("# Biodiversity Statement Overview\n\n")
	fmt.Fprintf(&sb, "%d relevant statements across %d categories.\n\n", totalStatements, len(counts))
	sb.WriteString("| Category | Statements | Done | Planned | Done % |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, c := range counts {
		fmt.Fprintf(&sb, "| %s | %d | %d | %d | %.2f |\n", c.Category, c.Total, c.Done, c.Planned, c.DonePercent)
	}
	return sb.String()
}

// WriteOverviewHTML renders the global summary of the report into a
// standalone HTML page.
func WriteOverviewHTML(reportPath, outPath string) error {
	rows, err := report.Read(reportPath)
	if err != nil {
		return err
	}
	relevant := RelevantRows(rows)
	counts := GlobalSummary(relevant)

	var body bytes.Buffer
	if err := markdown.Convert([]byte(OverviewMarkdown(counts, len(relevant))), &body); err != nil {
		return fmt.Errorf("render overview: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, []byte(fmt.Sprintf(htmlShell, body.String())), 0o644); err != nil {
		return err
	}
	log.Printf("summary: overview written to %s", outPath)
	return nil
}
