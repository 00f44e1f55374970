package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"boreline/internal/api"
)

func itemRows(items []api.WorkItem, colorize bool) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		holder := ""
		if item.Claim != nil {
			holder = item.Claim.HolderName
		}
		rows = append(rows, []string{
			item.SerialNumber,
			statusColumn(item.Status, colorize),
			item.Attributes.Caliber,
			item.Attributes.Priority,
			holder,
			fmt.Sprintf("%d%%", item.Progress),
			shortTime(item.UpdatedAt),
		})
	}
	return rows
}

var itemColumns = []column{
	left("Serial"), left("Status"), left("Caliber"), left("Priority"),
	left("Holder"), right("Progress"), left("Updated"),
}

func renderItems(items []api.WorkItem, empty string, colorize bool) string {
	if len(items) == 0 {
		return empty + "\n"
	}
	return renderTable(itemColumns, itemRows(items, colorize))
}

func renderItemSummary(item api.WorkItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", item.SerialNumber, item.Status)
	if item.Claim != nil {
		fmt.Fprintf(&b, "  Claimed by %s since %s\n", item.Claim.HolderName, shortTime(item.Claim.AcquiredAt))
	}
	return b.String()
}

func renderItemDetail(detail api.ItemDetail, colorize bool) string {
	item := detail.Item
	var b strings.Builder
	fields := [][2]string{
		{"ID", item.ID},
		{"Serial", item.SerialNumber},
		{"Barcode", item.Barcode},
		{"Status", statusColumn(item.Status, colorize)},
		{"Caliber", item.Attributes.Caliber},
		{"Length", formatInches(item.Attributes.LengthInches)},
		{"Twist", item.Attributes.TwistRate},
		{"Material", item.Attributes.Material},
		{"Priority", item.Attributes.Priority},
		{"Progress", fmt.Sprintf("%d%%", item.Progress)},
		{"Created", shortTime(item.CreatedAt)},
		{"Started", shortTime(item.StartedAt)},
		{"Completed", shortTime(item.CompletedAt)},
	}
	if item.Claim != nil {
		fields = append(fields, [2]string{"Holder", item.Claim.HolderName})
	}
	for _, field := range fields {
		if field[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "%-10s %s\n", field[0]+":", field[1])
	}
	if len(detail.History) > 0 {
		b.WriteString("\n")
		b.WriteString(renderHistory(detail.History, detail.Totals))
	}
	return b.String()
}

func renderHistory(entries []api.LogEntry, totals []api.StationTotal) string {
	if len(entries) == 0 {
		return "No station visits recorded\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		state := "closed"
		switch {
		case entry.Paused:
			state = "paused"
		case entry.Open:
			state = "open"
		}
		rows = append(rows, []string{
			entry.StationName,
			entry.HolderName,
			shortTime(entry.StartedAt),
			shortTime(entry.EndedAt),
			formatSeconds(entry.DurationSeconds),
			state,
			entry.Notes,
		})
	}
	out := renderTable([]column{
		left("Station"), left("Holder"), left("Started"), left("Ended"),
		right("Duration"), left("State"), left("Notes"),
	}, rows)
	if len(totals) == 0 {
		return out
	}
	totalRows := make([][]string, 0, len(totals))
	for _, total := range totals {
		seconds := total.Seconds
		totalRows = append(totalRows, []string{total.StationName, strconv.Itoa(total.Visits), formatSeconds(&seconds)})
	}
	return out + renderTable([]column{left("Station"), right("Visits"), right("Time")}, totalRows)
}

func formatSeconds(seconds *int64) string {
	if seconds == nil {
		return ""
	}
	return (time.Duration(*seconds) * time.Second).String()
}

func formatInches(value float64) string {
	if value <= 0 {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64) + " in"
}

func shortTime(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Local().Format("2006-01-02 15:04")
}
