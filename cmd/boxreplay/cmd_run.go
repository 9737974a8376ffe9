package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fabric-annotator/internal/editor"
	"fabric-annotator/internal/replay"
)

// =============================================================================
// RUN COMMAND - replay a script
// =============================================================================

var runJSON bool

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>",
	Short: "Replay a gesture script and print the resulting boxes and history",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	script, err := replay.Load(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	res, err := replay.Run(script)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printResult(out, res)
}

func printResult(w io.Writer, res *replay.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tOP\tCHANGED\tMODE\tBOXES\tHISTORY")
	for _, s := range res.Steps {
		hist := ""
		if s.History != nil {
			hist = fmt.Sprintf("%s %s", s.History.Direction, describeOp(s.History.Op))
		}
		fmt.Fprintf(tw, "%d\t%s\t%t\t%s\t%d\t%s\n", s.Index, s.Op, s.Changed, s.Mode, s.Boxes, hist)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nboxes (%d):\n", len(res.Boxes))
	for _, b := range res.Boxes {
		if b.Label != "" {
			fmt.Fprintf(w, "  %s [%s]\n", b, b.Label)
			continue
		}
		fmt.Fprintf(w, "  %s\n", b)
	}

	fmt.Fprintf(w, "\nhistory (%d, index %d):\n", len(res.History), res.HistoryIndex)
	for i, op := range res.History {
		marker := " "
		if i == res.HistoryIndex {
			marker = ">"
		}
		fmt.Fprintf(w, "%s %d %s\n", marker, i, describeOp(op))
	}
	return nil
}

func describeOp(op editor.PatchOp) string {
	switch op.Kind {
	case editor.OpAdd, editor.OpRemove:
		return fmt.Sprintf("%s %s @%d", op.Kind, op.Box, op.Index)
	case editor.OpUpdate:
		return fmt.Sprintf("%s %s -> %s", op.Kind, op.Prev, op.Next)
	case editor.OpReplaceAll:
		return fmt.Sprintf("%s %d -> %d boxes", op.Kind, len(op.PrevAll), len(op.NextAll))
	}
	return string(op.Kind)
}
