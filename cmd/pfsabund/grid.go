package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-abund/grid"
)

func newGridCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Manage the synthetic grid database",
	}
	cmd.PersistentFlags().String("db", "grid.sqlite", "SQLite grid database")

	importCmd := &cobra.Command{
		Use:   "import --db grid.sqlite node.json ...",
		Short: "Load grid nodes from JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openGrid(dbFlag(cmd))
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			n, err := grid.Import(store, args...)
			if err != nil {
				return err
			}
			a.logger.Info("grid nodes imported", "nodes", n)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d nodes\n", n)
			return err
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info --db grid.sqlite",
		Short: "Summarize the grid paths and parameter axes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeDB, err := openGrid(dbFlag(cmd))
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()
			return printGridInfo(cmd.OutOrStdout(), store)
		},
	}

	cmd.AddCommand(importCmd, infoCmd)
	return cmd
}

func dbFlag(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("db")
	return path
}

func printGridInfo(w io.Writer, store *grid.Store) error {
	paths, err := store.Paths()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Path\tNodes\tTeff\tlogg\t[Fe/H]\t[a/Fe]\n")
	fmt.Fprintf(tw, "----\t-----\t----\t----\t------\t------\n")
	for _, p := range paths {
		n, err := store.Count(p)
		if err != nil {
			return err
		}
		ax, err := store.Axes(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", p, n,
			axisRange(ax.Teff, "%.0f"), axisRange(ax.Logg, "%.2f"),
			axisRange(ax.FeH, "%.2f"), axisRange(ax.AlphaFe, "%.2f"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

// axisRange formats an axis as "lo..hi (n)".
func axisRange(axis []float64, verb string) string {
	if len(axis) == 0 {
		return "-"
	}
	return fmt.Sprintf(verb+".."+verb+" (%d)", axis[0], axis[len(axis)-1], len(axis))
}
