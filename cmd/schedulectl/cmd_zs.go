package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"p9e.in/eicr/pkg/zs"
)

var zsFlags struct {
	standard string
	curve    string
	rating   string
	time     string
}

var zsCmd = &cobra.Command{
	Use:   "zs",
	Short: "Look up the maximum earth fault loop impedance for a device",
	RunE:  runZs,
}

func init() {
	f := zsCmd.Flags()
	f.StringVar(&zsFlags.standard, "standard", "", "Device standard, e.g. \"BS EN 60898\" (required)")
	f.StringVar(&zsFlags.curve, "curve", "", "Tripping curve or type, e.g. B")
	f.StringVar(&zsFlags.rating, "rating", "", "Rated current in amps (required)")
	f.StringVar(&zsFlags.time, "time", "0.4", "Maximum disconnection time, 0.4 (final circuit) or 5 (distribution circuit)")

	_ = zsCmd.MarkFlagRequired("standard")
	_ = zsCmd.MarkFlagRequired("rating")
}

func runZs(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if zs.RequiresCurve(zsFlags.standard) && zsFlags.curve == "" {
		return fmt.Errorf("%s requires --curve", zsFlags.standard)
	}
	at, ok := zs.ParseDisconnectionTime(zsFlags.time)
	if !ok {
		return fmt.Errorf("unsupported disconnection time %q", zsFlags.time)
	}
	v, ok := zs.MaxImpedance(zsFlags.standard, zsFlags.curve, zsFlags.rating, at)
	if !ok {
		fmt.Fprintln(out, "no match")
		return nil
	}
	fmt.Fprintf(out, "%s Ω\n", zs.Format(v))
	return nil
}
