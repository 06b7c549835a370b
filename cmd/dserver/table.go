package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// settingRow is one line of `config show`.
type settingRow struct {
	key   string
	value string
}

// renderSettingsTable prints settings in two columns. Rows that change config
// section, the key part before the first dot, are preceded by a separator.
func renderSettingsTable(rows []settingRow) string {
	if len(rows) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Setting", "Value"})

	section := settingSection(rows[0].key)
	for _, row := range rows {
		if next := settingSection(row.key); next != section {
			tw.AppendSeparator()
			section = next
		}
		value := row.value
		if value == "" {
			value = "(unset)"
		}
		tw.AppendRow(table.Row{row.key, value})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AlignHeader: text.AlignLeft},
		{Number: 2, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func settingSection(key string) string {
	if i := strings.IndexByte(key, '.'); i > 0 {
		return key[:i]
	}
	return ""
}
