package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"p9e.in/eicr/models"
	"p9e.in/eicr/pkg/schedule"
)

var ringFlags struct {
	r1 string
	r2 string
}

var ringCmd = &cobra.Command{
	Use:   "ring",
	Short: "Calculate R1+R2 from ring end-to-end readings",
	RunE:  runRing,
}

func init() {
	f := ringCmd.Flags()
	f.StringVar(&ringFlags.r1, "r1", "", "End-to-end line conductor resistance (Ω)")
	f.StringVar(&ringFlags.r2, "r2", "", "End-to-end protective conductor resistance (Ω)")
}

func runRing(cmd *cobra.Command, _ []string) error {
	store := schedule.NewMemoryStore(models.CircuitTestResult{RingR1: ringFlags.r1, RingR2: ringFlags.r2})
	rows, err := store.List(contextOf(cmd))
	if err != nil {
		return err
	}

	editor := schedule.NewRowEditor(store, printNotifier(cmd), nil)
	res, err := editor.CalculateRingContinuity(contextOf(cmd), rows[0])
	if err != nil {
		return err
	}
	if !res.Computed {
		return fmt.Errorf("missing %v", res.Missing)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Value)
	return nil
}

// printNotifier writes notifications to stderr so stdout carries only the
// result.
func printNotifier(cmd *cobra.Command) schedule.Notifier {
	return schedule.NotifierFunc(func(n models.Notification) {
		fmt.Fprintln(cmd.ErrOrStderr(), n.String())
	})
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
