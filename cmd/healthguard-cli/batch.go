package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/healthguard/healthguard"
)

type batchOptions struct {
	disease    string
	inputPath  string
	outputPath string
	outputDir  string
	reportDir  string
}

func newBatchCmd(state *cliState) *cobra.Command {
	var opts batchOptions
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score every patient of a CSV/TSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, state, opts)
		},
	}
	cmd.Flags().StringVar(&opts.disease, "disease", string(healthguard.DiseaseDiabetes), "model to use: diabetes or cardio")
	cmd.Flags().StringVar(&opts.inputPath, "input", "", "CSV/TSV file with one patient per row")
	cmd.Flags().StringVar(&opts.outputPath, "output", "", "CSV file to write results (default uses --output-dir/result_*.csv)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "csv", "directory where result CSVs are written when --output is omitted")
	cmd.Flags().StringVar(&opts.reportDir, "report-dir", "", "also write one Markdown report per patient into this directory")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runBatch(cmd *cobra.Command, state *cliState, opts batchOptions) error {
	d := healthguard.Disease(strings.ToLower(strings.TrimSpace(opts.disease)))
	schema, err := healthguard.SchemaFor(d)
	if err != nil {
		return err
	}
	records, err := healthguard.ParsePatientRecords(strings.TrimSpace(opts.inputPath), schema)
	if err != nil {
		return fmt.Errorf("read input records: %w", err)
	}
	if len(records) == 0 {
		return errors.New("input file does not contain any patients")
	}

	results := make([]healthguard.Assessment, len(records))
	failed := 0
	for i, rec := range records {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		results[i] = state.service.Assess(cmd.Context(), d, rec.Name, rec.Form)
		if results[i].Failed() {
			failed++
		}
		if opts.reportDir != "" && results[i].Report != nil {
			name := fmt.Sprintf("%s_%d.md", healthguard.ReportFileName(d, ""), rec.Row)
			if err := results[i].Report.Save(filepath.Join(opts.reportDir, name)); err != nil {
				return fmt.Errorf("save report for row %d: %w", rec.Row, err)
			}
		}
	}

	outputPath, err := resolveOutputPath(strings.TrimSpace(opts.outputPath), strings.TrimSpace(opts.outputDir))
	if err != nil {
		return err
	}
	if err := writeResultCSV(outputPath, schema, records, results); err != nil {
		return err
	}
	state.logger.Info("batch finished",
		zap.String("disease", string(d)),
		zap.Int("patients", len(records)),
		zap.Int("failed", failed),
		zap.String("output", outputPath),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Results for %d patients saved to %s\n", len(records), outputPath)
	return nil
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeResultCSV(path string, schema *healthguard.Schema, records []healthguard.PatientRecord, results []healthguard.Assessment) error {
	if len(records) != len(results) {
		return fmt.Errorf("records/results length mismatch: %d vs %d", len(records), len(results))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := append([]string{"row", "name"}, schema.Names()...)
	header = append(header, "verdict", "message")
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		row := []string{fmt.Sprint(rec.Row), rec.Name}
		for _, name := range schema.Names() {
			row = append(row, rec.Form[name])
		}
		verdict := healthguard.VerdictError
		if p := results[i].Prediction; p != nil {
			verdict = p.Verdict()
		}
		row = append(row, verdict, results[i].Message)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return nil
}
