package cli

import (
	"database/sql"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"go.hackfix.me/modelvault/db/models"
)

var modelsHeader = []string{"Folder", "File Name", "Thumbnail URL", "Source URL"}

// renderModels writes the models as a borderless table. URLs are never wrapped
// or truncated, so they can be copied from the output.
func renderModels(w io.Writer, list []*models.Model) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Symbols: tw.NewSymbols(tw.StyleASCII),
			Settings: tw.Settings{
				Lines: tw.Lines{
					ShowHeaderLine: tw.Off,
					ShowFooterLine: tw.Off,
					ShowTop:        tw.Off,
					ShowBottom:     tw.Off,
				},
				Separators: tw.Separators{
					ShowHeader:     tw.Off,
					ShowFooter:     tw.Off,
					BetweenRows:    tw.Off,
					BetweenColumns: tw.Off,
				},
			},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)

	table.Header(modelsHeader)
	rows := make([][]string, len(list))
	for i, m := range list {
		folder := m.Folder
		if folder == "" {
			folder = rootFolder
		}
		rows[i] = []string{folder, m.FileName, orDash(m.ThumbnailURL), orDash(m.SourceURL)}
	}
	if err := table.Bulk(rows); err != nil {
		return err //nolint:wrapcheck // This is wrapped by the caller.
	}

	return table.Render() //nolint:wrapcheck // This is wrapped by the caller.
}

func orDash(s sql.Null[string]) string {
	if !s.Valid || s.V == "" {
		return "-"
	}
	return s.V
}
