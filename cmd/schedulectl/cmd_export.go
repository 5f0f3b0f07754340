package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"p9e.in/eicr/config"
	"p9e.in/eicr/handlers"
	"p9e.in/eicr/models"
	"p9e.in/eicr/pkg/schedule"
)

var exportFlags struct {
	in          string
	out         string
	preset      string
	presetsFile string
	fillMaxZs   bool
}

// scheduleFile is the YAML input layout. Circuit keys are field names such
// as circuitDesignation or protectiveDeviceRating.
type scheduleFile struct {
	Name           string              `yaml:"name"`
	BoardReference string              `yaml:"boardReference"`
	Location       string              `yaml:"location"`
	Circuits       []map[string]string `yaml:"circuits"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build an xlsx or csv schedule from a YAML circuit list",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.in, "in", "", "YAML schedule file (required)")
	f.StringVar(&exportFlags.out, "out", "", "Output file, .xlsx or .csv (required)")
	f.StringVar(&exportFlags.preset, "rcd-preset", "", "Apply this RCD preset label to every circuit")
	f.StringVar(&exportFlags.presetsFile, "presets-file", "", "RCD preset catalog (defaults to the built-in presets)")
	f.BoolVar(&exportFlags.fillMaxZs, "fill-max-zs", true, "Fill max Zs from the device standard, curve and rating")

	_ = exportCmd.MarkFlagRequired("in")
	_ = exportCmd.MarkFlagRequired("out")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := contextOf(cmd)
	sched, err := loadScheduleFile(exportFlags.in)
	if err != nil {
		return err
	}

	store := schedule.NewMemoryStore()
	for i, c := range sched.Circuits {
		var rec models.CircuitTestResult
		updates := make(models.FieldUpdates, len(c))
		for k, v := range c {
			updates[models.Field(k)] = v
		}
		if err := rec.Apply(updates); err != nil {
			return fmt.Errorf("circuit %d: %w", i+1, err)
		}
		store.Insert(rec)
	}

	table := schedule.NewTable(store, nil, printNotifier(cmd), nil)

	if exportFlags.fillMaxZs {
		rows, err := table.Rows(ctx)
		if err != nil {
			return err
		}
		for _, rec := range rows {
			if rec.BSStandard == "" {
				continue
			}
			if _, err := table.Editor().Edit(ctx, rec, models.FieldBSStandard, rec.BSStandard); err != nil {
				return fmt.Errorf("circuit %s: %w", rec.CircuitDesignation, err)
			}
		}
	}

	if exportFlags.preset != "" {
		presets, err := config.LoadPresets(exportFlags.presetsFile, nil)
		if err != nil {
			return err
		}
		preset, ok := models.FindPreset(presets, exportFlags.preset)
		if !ok {
			return fmt.Errorf("unknown rcd preset %q", exportFlags.preset)
		}
		rows, err := table.Rows(ctx)
		if err != nil {
			return err
		}
		ids := make([]string, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		batch, err := table.ApplyRCDPreset(ctx, ids, preset)
		if err != nil {
			return err
		}
		if res := batch.Result(); !res.Complete() {
			return fmt.Errorf("preset applied to %d of %d circuits", res.Applied, res.Targets)
		}
	}

	rows, err := table.Rows(ctx)
	if err != nil {
		return err
	}
	out := models.Schedule{
		Name:           sched.Name,
		BoardReference: sched.BoardReference,
		Location:       sched.Location,
		Circuits:       rows,
	}
	if err := writeExport(exportFlags.out, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d circuits to %s\n", len(rows), exportFlags.out)
	return nil
}

func loadScheduleFile(path string) (scheduleFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return scheduleFile{}, err
	}
	var sched scheduleFile
	if err := yaml.Unmarshal(raw, &sched); err != nil {
		return scheduleFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if sched.Name == "" {
		sched.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sched, nil
}

func writeExport(path string, sched models.Schedule) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err := handlers.BuildScheduleCSV(sched)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	case ".xlsx":
		f, err := handlers.BuildScheduleWorkbook(sched, time.Now())
		if err != nil {
			return err
		}
		defer f.Close()
		return f.SaveAs(path)
	}
	return fmt.Errorf("unsupported export format %q", filepath.Ext(path))
}
