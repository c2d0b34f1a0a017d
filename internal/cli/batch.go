package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/incomelens/internal/domain/model"
	"github.com/spf13/cobra"
)

// Batch CSV columns.
const (
	colAge        = "age"
	colEducation  = "education"
	colOccupation = "occupation"
	colHours      = "hoursPerWeek"
	colRegion     = "region"
	colMinSalary  = "expectedMinSalary"
	colMaxSalary  = "expectedMaxSalary"
)

var requiredColumns = []string{colAge, colEducation, colOccupation, colHours, colRegion}

type batchOutput struct {
	Results []model.UnifiedPredictionResult `json:"results" yaml:"results"`
}

func newBatchCommand(opts *globalOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Predict every profile in a CSV file",
		Long: `Predict every profile in a CSV file.

The file needs a header row with the columns age, education, occupation,
hoursPerWeek and region; expectedMinSalary and expectedMaxSalary are optional.
Rows run concurrently on the worker pool and results are printed in file order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening batch file: %w", err)
			}
			defer func() { _ = f.Close() }()

			inputs, err := readInputs(f)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}

			svc, err := opts.service()
			if err != nil {
				return err
			}
			if err := svc.Start(cmd.Context()); err != nil {
				return err
			}
			defer svc.Stop()

			chunk := min(opts.cfg.MaxBatchSize, opts.cfg.QueueSize)
			out := batchOutput{Results: make([]model.UnifiedPredictionResult, 0, len(inputs))}
			for start := 0; start < len(inputs); start += chunk {
				end := min(start+chunk, len(inputs))
				res, err := svc.PredictBatch(cmd.Context(), inputs[start:end])
				if err != nil {
					return fmt.Errorf("rows %d-%d: %w", start+1, end, err)
				}
				out.Results = append(out.Results, res...)
			}
			return render(cmd.OutOrStdout(), opts.output, out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file of profiles")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readInputs parses a header-first CSV of prediction inputs.
func readInputs(r io.Reader) ([]model.PredictionInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", errInvalidInput)
		}
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", errInvalidInput, col)
		}
	}

	var inputs []model.PredictionInput
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		in, err := parseRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		inputs = append(inputs, in)
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no rows", errInvalidInput)
	}
	return inputs, nil
}

func parseRecord(record []string, index map[string]int) (model.PredictionInput, error) {
	cell := func(col string) string {
		if i, ok := index[col]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	age, err := strconv.Atoi(cell(colAge))
	if err != nil {
		return model.PredictionInput{}, fmt.Errorf("%w: age: %w", errInvalidInput, err)
	}
	hours, err := strconv.Atoi(cell(colHours))
	if err != nil {
		return model.PredictionInput{}, fmt.Errorf("%w: hoursPerWeek: %w", errInvalidInput, err)
	}

	in := model.PredictionInput{
		Age:          age,
		Education:    cell(colEducation),
		Occupation:   cell(colOccupation),
		HoursPerWeek: hours,
		Region:       cell(colRegion),
	}

	for col, dst := range map[string]**float64{colMinSalary: &in.ExpectedMinSalary, colMaxSalary: &in.ExpectedMaxSalary} {
		raw := cell(col)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.PredictionInput{}, fmt.Errorf("%w: %s: %w", errInvalidInput, col, err)
		}
		*dst = &v
	}

	return in, validateInput(in)
}
