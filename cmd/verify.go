package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"huffarc/pkg/core"
)

func newVerifyCmd(a *app) *cobra.Command {
	var (
		filter  filterFlags
		against string
	)
	cmd := &cobra.Command{
		Use:   "verify [flags] ARCHIVE",
		Short: "Decode entries and print their BLAKE3 digests",
		Long: `Decode every selected entry without writing it and print its BLAKE3 digest.
With --against, each entry is also compared with the file of the same name
below that directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options("verify")
			if err != nil {
				return err
			}
			opts.Progress = false
			f, err := filter.build()
			if err != nil {
				return err
			}

			results, err := core.Verify(args[0], f, against, opts)
			out := cmd.OutOrStdout()
			for _, res := range results {
				switch {
				case res.Err != nil:
					fmt.Fprintf(out, "FAIL  %s: %v\n", res.Name, res.Err)
				case res.Compared:
					fmt.Fprintf(out, "OK    %s  %s  %s  matches\n", res.Digest, humanize.IBytes(res.Size), res.Name)
				default:
					fmt.Fprintf(out, "OK    %s  %s  %s\n", res.Digest, humanize.IBytes(res.Size), res.Name)
				}
			}
			return err
		},
	}
	filter.register(cmd.Flags())
	cmd.Flags().StringVar(&against, "against", "", "directory holding the original files to compare with")
	return cmd
}
