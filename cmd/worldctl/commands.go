package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"worldforge/internal/domain"

	"github.com/spf13/cobra"
)

func newListCmd(get func() backend) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored worlds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			worlds, err := get().Worlds().ListWorlds(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tERA\tYEAR\tRACES\tPOPULATION\tUPDATED")
			for _, w := range worlds {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					w.ID, w.Name, w.Era, w.CurrentYear, len(w.Races), w.Population,
					w.UpdatedAt.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newShowCmd(get func() backend) *cobra.Command {
	return &cobra.Command{
		Use:   "show <world-id>",
		Short: "Print a world as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := get().Worlds().GetWorld(cmd.Context(), domain.WorldID(args[0]))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(w)
		},
	}
}

func newExportCmd(get func() backend) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <world-id>",
		Short: "Write the export document of a world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := get().Worlds().ExportWorld(cmd.Context(), domain.WorldID(args[0]))
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", args[0], output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (stdout when empty)")
	return cmd
}

func newImportCmd(get func() backend) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Store a world from an export document (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			w, err := get().Worlds().ImportWorld(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%s), year %d, %d races\n", w.ID, w.Name, w.CurrentYear, len(w.Races))
			return nil
		},
	}
}

func newDeleteCmd(get func() backend) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <world-id>",
		Short: "Delete a world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().Worlds().DeleteWorld(cmd.Context(), domain.WorldID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newAdvanceCmd(get func() backend, opts *globalOptions) *cobra.Command {
	var years int
	cmd := &cobra.Command{
		Use:   "advance <world-id>",
		Short: "Advance a world by 1 or 10 years",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if opts.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.timeout)
				defer cancel()
			}
			res, err := get().Advance(ctx, domain.WorldID(args[0]), years)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s advanced from year %d to %d\n", res.World.Name, res.Merge.PreviousYear, res.Merge.NewYear)
			fmt.Fprintf(out, "Population %d -> %d\n", res.Merge.PopulationBefore, res.Merge.PopulationAfter)
			if n := res.Repair.DefaultedCount(); n > 0 {
				fmt.Fprintf(out, "%d race(s) were missing from the model output and kept their state\n", n)
			}
			for _, rr := range res.Output.RaceResults {
				if rr.Defaulted || rr.Narrative == "" {
					continue
				}
				name := string(rr.RaceID)
				if r := res.World.Race(rr.RaceID); r != nil {
					name = r.Name
				}
				fmt.Fprintf(out, "\n%s: %s\n", name, rr.Narrative)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&years, "years", "y", 1, "Years to advance (1 or 10)")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
