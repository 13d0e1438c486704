package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"

	"delta-inspect/stats"
)

// renderTable prints one titled table to stdout.
func renderTable(title string, header []string, rows [][]string) {
	fmt.Printf("%s\n", title)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	fmt.Println()
}

// renderJSON prints any result as indented JSON.
func renderJSON(v any) error {
	data, err := jsoniter.ConfigFastest.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func histogramRows(buckets []stats.Bucket, format func(float64) string) [][]string {
	rows := make([][]string, 0, len(buckets))
	for _, bucket := range buckets {
		rows = append(rows, []string{
			fmt.Sprintf("%s - %s", format(bucket.Start), format(bucket.End)),
			humanize.Comma(int64(bucket.Count)),
		})
	}
	return rows
}

func formatBytesF(v float64) string {
	return humanize.IBytes(uint64(v))
}

func formatNumberF(v float64) string {
	if v == float64(int64(v)) {
		return humanize.Comma(int64(v))
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
