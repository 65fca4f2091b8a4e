package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"huffarc/pkg/core"
	"huffarc/pkg/logger"
)

func newListCmd(a *app) *cobra.Command {
	var filter filterFlags
	cmd := &cobra.Command{
		Use:     "list [flags] ARCHIVE",
		Aliases: []string{"ls"},
		Short:   "List the files and directories stored in an archive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options("list")
			if err != nil {
				return err
			}
			opts.Progress = false
			f, err := filter.build()
			if err != nil {
				return err
			}
			infos, err := core.List(args[0], f, opts)
			if err != nil {
				return err
			}
			renderList(cmd.OutOrStdout(), infos)
			return nil
		},
	}
	filter.register(cmd.Flags())
	return cmd
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(logger.ColorBlue40))
	dirStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(logger.ColorBlue60))
	ratioStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(logger.ColorGray60))
)

// renderList prints one row per entry, directories indented like a tree.
func renderList(w io.Writer, infos []core.EntryInfo) {
	rows := [][]string{{"SIZE", "PACKED", "RATIO", "NAME"}}
	for _, info := range infos {
		packed := (info.CompressedBits + 7) / 8
		ratio := "-"
		if info.OriginalSize > 0 {
			ratio = fmt.Sprintf("%.1f%%", float64(packed)*100/float64(info.OriginalSize))
		}
		depth := strings.Count(info.Name, "/")
		name := info.Name[strings.LastIndex(info.Name, "/")+1:]
		if info.IsDir {
			name += "/"
		}
		rows = append(rows, []string{
			humanize.IBytes(info.OriginalSize),
			humanize.IBytes(packed),
			ratio,
			strings.Repeat("  ", depth) + name,
		})
	}

	widths := make([]int, 3)
	for _, row := range rows {
		for i := range widths {
			widths[i] = max(widths[i], len(row[i]))
		}
	}
	for i, row := range rows {
		cells := make([]string, len(row))
		for j := range widths {
			cells[j] = fmt.Sprintf("%*s", widths[j], row[j])
		}
		cells[3] = row[3]
		switch {
		case i == 0:
			fmt.Fprintln(w, headerStyle.Render(strings.Join(cells, "  ")))
		case infos[i-1].IsDir:
			fmt.Fprintln(w, strings.Join(cells[:2], "  ")+"  "+ratioStyle.Render(cells[2])+"  "+dirStyle.Render(cells[3]))
		default:
			fmt.Fprintln(w, strings.Join(cells[:2], "  ")+"  "+ratioStyle.Render(cells[2])+"  "+cells[3])
		}
	}
}
