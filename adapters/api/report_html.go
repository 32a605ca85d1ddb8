package api

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"reachlab/internal/analysis"
)

// RenderReportHTML converts the analysis output into a standalone HTML
// document: a markdown summary of every test, followed by the full plain
// text report in a code block.
func RenderReportHTML(output *analysis.Output) []byte {
	md := buildReportMarkdown(output)

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Experiment Analysis Report",
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func buildReportMarkdown(output *analysis.Output) string {
	var b strings.Builder

	b.WriteString("# Experiment Analysis Report\n\n")
	fmt.Fprintf(&b, "Trials analyzed: %d. Statistical tests run: %d.\n\n",
		len(output.Trials), len(output.Results))

	b.WriteString("## Test Results\n\n")
	b.WriteString("| Test | Condition | Type | Statistic | p | Sig |\n")
	b.WriteString("|------|-----------|------|-----------|---|-----|\n")
	for _, res := range output.Results {
		if res.Insufficient {
			fmt.Fprintf(&b, "| %s | %s | %s | - | - | %s |\n",
				res.TestName, orDash(res.Condition), res.TestType, res.Reason)
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.3f | %.4f | %s |\n",
			res.TestName, orDash(res.Condition), res.TestType,
			res.Statistic, res.PValue, res.Stars)
	}
	b.WriteString("\n")

	for _, res := range output.Results {
		if res.Insufficient || !res.Significant {
			continue
		}
		fmt.Fprintf(&b, "### %s", res.TestName)
		if res.Condition != "" {
			fmt.Fprintf(&b, " (%s)", res.Condition)
		}
		b.WriteString("\n\n")

		labels := make([]string, 0, len(res.GroupMeans))
		for label := range res.GroupMeans {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(&b, "- %s: mean %.2f (n=%d)\n", label, res.GroupMeans[label], res.NPerGroup[label])
		}
		if res.FastestLabel != "" {
			fmt.Fprintf(&b, "- fastest: **%s**, slowest: **%s**\n", res.FastestLabel, res.SlowestLabel)
		}
		if res.Direction != "" {
			fmt.Fprintf(&b, "- %s\n", res.Direction)
		}
		if res.Ordering != "" {
			fmt.Fprintf(&b, "- hypothesized ordering: %s\n", res.Ordering)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Full Report\n\n```\n")
	b.WriteString(output.Report)
	b.WriteString("\n```\n")

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "overall"
	}
	return s
}
