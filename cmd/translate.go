/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/transflow/internal"
	"github.com/valpere/transflow/internal/langcheck"
	"github.com/valpere/transflow/internal/queue"
)

var (
	translateProject  string
	translateInput    string
	translateTemplate string
	translateSource   string
	translateTargets  []string
	translateProvider string
	translateNoCheck  bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Queue rows for translation and wait for the run to drain",
	Long: `Queue a project's pending rows for translation.

With --input, rows are first imported from a CSV file (columns: id,
source_text, context; only source_text is required). Without it, the rows
already pending in the project are re-queued, which is how rejected and
errored rows get another pass.

Rows are translated in batches of 10 with one batch in flight at a time.
Rate-limited batches back off and retry; press Ctrl-C to cancel the run and
return unfinished rows to pending.

Example:
  transflow translate --project campaign-q3 --input rows.csv \
    --template marketing --source en --target ms,th`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		projectID, err := db.EnsureProject(ctx, translateProject, translateSource)
		if err != nil {
			return fmt.Errorf("failed to resolve project: %w", err)
		}

		if translateInput != "" {
			imported, err := importCSV(ctx, db, projectID, translateInput)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Imported %d rows from %s\n", imported, translateInput)
		}

		tmpl, err := db.GetTemplate(ctx, translateTemplate)
		if err != nil {
			return fmt.Errorf("failed to load template: %w", err)
		}

		providerName := translateProvider
		if providerName == "" {
			providerName = viper.GetString("provider")
		}
		prov, err := buildProvider(providerName)
		if err != nil {
			return err
		}

		rows, err := db.ListRows(ctx, projectID, internal.RowPending)
		if err != nil {
			return fmt.Errorf("failed to list rows: %w", err)
		}
		if len(rows) == 0 {
			fmt.Println("No pending rows to translate.")
			return nil
		}

		deps := queue.Deps{
			Provider: prov,
			Sink:     db,
			Glossary: db,
			Logger:   newLogger(),
		}
		if !translateNoCheck {
			deps.Checker = langcheck.New()
		}
		runner := queue.NewRunner(queueConfig(), deps)

		if err := runner.Enqueue(ctx, queue.Request{
			ProjectID:       projectID,
			Rows:            rows,
			SourceLanguage:  translateSource,
			TargetLanguages: translateTargets,
			Template:        tmpl,
		}); err != nil {
			return fmt.Errorf("failed to enqueue: %w", err)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			if _, ok := <-sigCh; ok {
				fmt.Fprintln(os.Stderr, "Cancelling run, reverting unfinished rows...")
				runner.Cancel(context.Background())
			}
		}()

		_, total := runner.Progress()
		fmt.Fprintf(os.Stderr, "Translating %d rows in %d batches...\n", len(rows), total)
		runner.Wait()

		counts, err := db.StatusCounts(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to read status counts: %w", err)
		}
		fmt.Printf("Run finished: %d in review, %d partial, %d errored, %d pending\n",
			counts[internal.RowReview], counts[internal.RowPartial],
			counts[internal.RowError], counts[internal.RowPending])
		return nil
	},
}

// importCSV reads rows from a CSV file into the project. The header names
// the columns; source_text is required, id and context are optional.
func importCSV(ctx context.Context, db rowImporter, projectID, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	textIdx, ok := col["source_text"]
	if !ok {
		textIdx, ok = col["text"]
	}
	if !ok {
		return 0, fmt.Errorf("CSV needs a source_text column, got: %s", strings.Join(header, ", "))
	}

	var rows []internal.Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read CSV: %w", err)
		}
		row := internal.Row{SourceText: record[textIdx]}
		if idx, ok := col["id"]; ok && idx < len(record) {
			row.ID = strings.TrimSpace(record[idx])
		}
		if idx, ok := col["context"]; ok && idx < len(record) {
			row.Context = record[idx]
		}
		if strings.TrimSpace(row.SourceText) == "" {
			continue
		}
		rows = append(rows, row)
	}

	imported, err := db.ImportRows(ctx, projectID, rows)
	if err != nil {
		return 0, fmt.Errorf("failed to import rows: %w", err)
	}
	return len(imported), nil
}

// rowImporter is the slice of the store importCSV needs; tests substitute it.
type rowImporter interface {
	ImportRows(ctx context.Context, projectID string, rows []internal.Row) ([]internal.Row, error)
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&translateProject, "project", "p", "", "Project name (required)")
	translateCmd.Flags().StringVarP(&translateInput, "input", "i", "", "CSV file of rows to import before the run")
	translateCmd.Flags().StringVar(&translateTemplate, "template", "default", "Prompt template name")
	translateCmd.Flags().StringVarP(&translateSource, "source", "s", "en", "Source language code")
	translateCmd.Flags().StringSliceVarP(&translateTargets, "target", "t", nil, "Target language codes, comma-separated (required)")
	translateCmd.Flags().StringVar(&translateProvider, "provider", "", "Provider to use (gemini, openai, google); defaults to config")
	translateCmd.Flags().BoolVar(&translateNoCheck, "no-langcheck", false, "Disable the advisory language spot-check")

	translateCmd.MarkFlagRequired("project")
	translateCmd.MarkFlagRequired("target")
}
