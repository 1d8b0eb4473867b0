package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-abund/mask"
	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
)

// armSplit separates blue from red pixels in the pixel table.
const armSplit = 6300.0

func newMasksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "masks [flags] [spectrum.json]",
		Short: "Tabulate the metallicity and alpha mask windows",
		Long: "Prints the windows of both mask definitions for the selected mode.\n" +
			"Given a spectrum, also prints the pixels each mask selects per arm.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.mode()
			if err != nil {
				return err
			}
			root := a.v.GetString("root")

			defs := make([]*mask.Definition, 0, 2)
			for _, name := range []string{mask.MetallicityName, mask.AlphaName} {
				d, err := mask.Load(name, mode, root)
				if err != nil {
					return err
				}
				defs = append(defs, d)
			}

			w := cmd.OutOrStdout()
			if err := printWindows(w, defs); err != nil {
				return err
			}
			if len(args) == 0 {
				return nil
			}
			s, err := spectrum.Read(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(w)
			return printPixels(w, s, defs)
		},
	}
}

func printWindows(w io.Writer, defs []*mask.Definition) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Mask\tMode\tWindows\tCoverage [A]\tRange [A]\n")
	fmt.Fprintf(tw, "----\t----\t-------\t------------\t---------\n")
	for _, d := range defs {
		var cover float64
		lo, hi := 0.0, 0.0
		for i, win := range d.Windows {
			cover += win.Hi - win.Lo
			if i == 0 || win.Lo < lo {
				lo = win.Lo
			}
			if i == 0 || win.Hi > hi {
				hi = win.Hi
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.2f-%.2f\n", d.Name, d.Mode, len(d.Windows), cover, lo, hi)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func printPixels(w io.Writer, s *spectrum.Spectrum, defs []*mask.Definition) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Mask\t%s\t%s\tTotal\n", stellar.ArmBlue, stellar.ArmRed)
	fmt.Fprintf(tw, "----\t----\t---\t-----\n")

	row := func(name string, m spectrum.Mask) {
		var blue, red int
		for i, ok := range m {
			if !ok {
				continue
			}
			if s.Wavelength[i] < armSplit {
				blue++
			} else {
				red++
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", name, blue, red, blue+red)
	}
	row("general", mask.Construct(s, nil))
	for _, d := range defs {
		row(d.Name, mask.Construct(s, d))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
