package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"huffarc/pkg/core"
)

type decompressParams struct {
	outDir    string
	filter    filterFlags
	keepGoing bool
}

func newDecompressCmd(a *app) *cobra.Command {
	var p decompressParams
	cmd := &cobra.Command{
		Use:     "decompress [flags] ARCHIVE",
		Aliases: []string{"d", "x"},
		Short:   "Extract entries from an archive",
		Long: `Extract the entries of an archive below the output directory.
Existing files are kept: a clashing entry is written as "name (1).ext".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options("decompress")
			if err != nil {
				return err
			}
			opts.KeepGoing = p.keepGoing
			filter, err := p.filter.build()
			if err != nil {
				return err
			}

			summary, err := core.Decompress(args[0], p.outDir, filter, opts)
			if summary != nil && !a.quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d file(s), %s\n",
					summary.Files, humanize.IBytes(summary.OriginalBytes))
			}
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&p.outDir, "output", "o", ".", "directory to extract into")
	fs.BoolVar(&p.keepGoing, "keep-going", false, "continue past corrupted entries")
	p.filter.register(fs)
	return cmd
}
