package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"huffarc/pkg/core"
	"huffarc/pkg/fsutil"
	"huffarc/pkg/logger"
)

type compressParams struct {
	output       string
	wordSize     wordSizeFlag
	acceptSmall  bool
	declineSmall bool
}

func newCompressCmd(a *app) *cobra.Command {
	var p compressParams
	cmd := &cobra.Command{
		Use:     "compress [flags] PATH...",
		Aliases: []string{"c"},
		Short:   "Pack files and directories into a new archive",
		Long: `Pack every regular file reachable from the given paths into a new archive.
An existing archive is never replaced: a free name such as "archive (1).huff"
is picked instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(cmd, a, &p, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&p.output, "output", "o", "", "archive path (default from config, archive.huff)")
	p.wordSize.register(fs)
	fs.BoolVarP(&p.acceptSmall, "accept-small", "y", false, "archive small files without asking")
	fs.BoolVarP(&p.declineSmall, "decline-small", "n", false, "leave small files out without asking")
	cmd.MarkFlagsMutuallyExclusive("accept-small", "decline-small")
	return cmd
}

func runCompress(cmd *cobra.Command, a *app, p *compressParams, paths []string) error {
	opts, err := a.options("compress")
	if err != nil {
		return err
	}
	if err := p.wordSize.apply(cmd.Flags(), &opts); err != nil {
		return err
	}
	switch {
	case p.acceptSmall:
		opts.Policy = core.PolicyAccept
	case p.declineSmall:
		opts.Policy = core.PolicyDecline
	}
	if opts.Policy == core.PolicyAsk && logger.IsTerminal(os.Stdin) {
		opts.Prompt = terminalPrompter(os.Stdin, cmd.ErrOrStderr())
	}

	output := p.output
	if output == "" {
		output = a.cfg.ArchiveName
	}
	output, err = fsutil.UniquePath(output)
	if err != nil {
		return err
	}

	summary, err := core.Compress(paths, output, opts)
	if err != nil {
		return err
	}
	if !a.quiet {
		printCompressSummary(cmd.OutOrStdout(), summary)
	}
	return nil
}

// terminalPrompter asks on out and reads the answer from in. Anything but
// an explicit yes keeps the file.
func terminalPrompter(in io.Reader, out io.Writer) core.Prompter {
	answers := bufio.NewReader(in)
	return func(name string, size int64) bool {
		fmt.Fprintf(out, "%s is only %s, the tree may outweigh the savings. Skip this file? (y/N) ",
			name, humanize.IBytes(uint64(size)))
		line, _ := answers.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return false
		default:
			return true
		}
	}
}

func printCompressSummary(w io.Writer, s *core.Summary) {
	fmt.Fprintf(w, "Result: %d -> %d bytes (%s -> %s)\n",
		s.OriginalBytes, s.ArchiveBytes, humanize.IBytes(s.OriginalBytes), humanize.IBytes(s.ArchiveBytes))
	if len(s.Declined) > 0 {
		fmt.Fprintf(w, "Left out %d small file(s)\n", len(s.Declined))
	}
	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped %d unsupported path(s)\n", len(s.Skipped))
	}
	fmt.Fprintf(w, "Saved in %s\n", s.Archive)
}
