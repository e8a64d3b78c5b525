package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stress-backend/internal/stress"
)

// headerAliases accepts the web form's field names as CSV headers.
var headerAliases = map[string]string{
	"your_academic_stage":              stress.FactorAcademicStage,
	"peer_pressure":                    stress.FactorPeerPressure,
	"academic_pressure_from_your_home": stress.FactorHomeAcademicPressure,
	"study_environment":                stress.FactorStudyEnvironment,
	"coping_strategy":                  stress.FactorCopingStrategy,
	"bad_habits":                       stress.FactorHasBadHabits,
	"academic_competition":             stress.FactorAcademicCompetition,
}

type batchRow struct {
	Line    int                 `json:"line"`
	Factors stress.FactorRecord `json:"factors"`
	Result  stress.Result       `json:"result"`
}

func newBatchCommand(a *app) *cobra.Command {
	var (
		file    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Assess every row of a CSV file concurrently.",
		Long: `batch reads a CSV file whose header names the factors (academic_stage, peer_pressure, ...
or the web form names such as Your_Academic_Stage) and assesses each row. Missing columns
take their default values. Results are printed in input order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if workers < 1 {
				return fmt.Errorf("--workers must be at least 1")
			}
			records, err := readFactorsFile(file)
			if err != nil {
				return err
			}
			engine, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := assessAll(cmd.Context(), engine, records, workers)
			if err != nil {
				return err
			}
			if a.output() == outputJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			return writeBatchTable(cmd.OutOrStdout(), rows, a.useColor())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file with one factor record per row")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "number of concurrent assessments")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readFactorsFile(path string) ([]stress.FactorRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readFactors(f)
}

// readFactors parses CSV rows into factor records. Unknown columns are ignored.
func readFactors(r io.Reader) ([]stress.FactorRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv file is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		names[i] = key
	}

	var out []stress.FactorRecord
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		values := make(map[string]any, len(names))
		for i, v := range fields {
			if i < len(names) && strings.TrimSpace(v) != "" {
				values[names[i]] = v
			}
		}
		out = append(out, stress.FactorRecordFromMap(values))
	}
	return out, nil
}

// assessAll scores records with at most workers in flight. The first failure
// cancels the rest.
func assessAll(ctx context.Context, engine *stress.Engine, records []stress.FactorRecord, workers int) ([]batchRow, error) {
	rows := make([]batchRow, len(records))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rec := range records {
		g.Go(func() error {
			res, err := engine.Assess(gCtx, rec)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			rows[i] = batchRow{Line: i + 1, Factors: rec, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func writeBatchTable(w io.Writer, rows []batchRow, useColor bool) error {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		ids := make([]string, len(r.Result.Recommendations))
		for i, rec := range r.Result.Recommendations {
			ids[i] = rec.ID
		}
		data = append(data, []string{
			strconv.Itoa(r.Line),
			formatLevel(r.Result.StressLevel),
			categoryLabel(r.Result.StressCategory, useColor),
			strings.Join(ids, ", "),
		})
	}
	return renderTable(w, []string{"Row", "Level", "Category", "Recommendations"}, data)
}
