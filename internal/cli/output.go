package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"stress-backend/internal/stress"
)

var categoryColors = map[stress.Category]*color.Color{
	stress.CategoryCritical: color.New(color.FgRed, color.Bold),
	stress.CategoryHigh:     color.New(color.FgMagenta, color.Bold),
	stress.CategoryModerate: color.New(color.FgYellow),
	stress.CategoryLow:      color.New(color.FgCyan),
}

func categoryLabel(c stress.Category, useColor bool) string {
	if !useColor {
		return string(c)
	}
	if col, ok := categoryColors[c]; ok {
		return col.Sprint(string(c))
	}
	return string(c)
}

func formatLevel(level float64) string {
	return strconv.FormatFloat(level, 'f', 2, 64)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// writeResult prints one assessment as a summary line and a recommendations table.
func writeResult(w io.Writer, res stress.Result, useColor bool) error {
	if _, err := fmt.Fprintf(w, "Stress level: %s  Category: %s\n", formatLevel(res.StressLevel), categoryLabel(res.StressCategory, useColor)); err != nil {
		return err
	}
	rows := make([][]string, 0, len(res.Recommendations))
	for i, rec := range res.Recommendations {
		rows = append(rows, []string{strconv.Itoa(i + 1), rec.Guidance, rec.Context})
	}
	return renderTable(w, []string{"#", "Recommendation", "Context"}, rows)
}
