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
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/transflow/internal"
)

var (
	reviewProject string
	reviewStatus  string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review translated rows",
	Long: `List and act on rows awaiting review.

Approving a row locks it; rejecting returns it to the review loop, and a
rejected row can be sent back to pending with "review requeue" so the next
translation run picks it up again.`,
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rows by status (default: review)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		projectID, _, err := db.GetProjectByName(ctx, reviewProject)
		if err != nil {
			return err
		}
		rows, err := db.ListRows(ctx, projectID, internal.RowStatus(reviewStatus))
		if err != nil {
			return fmt.Errorf("failed to list rows: %w", err)
		}
		if len(rows) == 0 {
			fmt.Printf("No rows with status %q.\n", reviewStatus)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tSOURCE\tTRANSLATIONS")
		for _, row := range rows {
			langs := make([]string, 0, len(row.Translations))
			for lang := range row.Translations {
				langs = append(langs, lang)
			}
			sort.Strings(langs)
			first := true
			for _, lang := range langs {
				entry := row.Translations[lang]
				if first {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s: %s\n", row.ID, row.Status, truncate(row.SourceText, 40), lang, truncate(entry.Text, 40))
					first = false
				} else {
					fmt.Fprintf(w, "\t\t\t%s: %s\n", lang, truncate(entry.Text, 40))
				}
			}
			if first {
				fmt.Fprintf(w, "%s\t%s\t%s\t\n", row.ID, row.Status, truncate(row.SourceText, 40))
			}
		}
		return w.Flush()
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <row-id>...",
	Short: "Approve reviewed rows",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return applyReview(args, internal.RowApproved) },
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <row-id>...",
	Short: "Reject rows",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return applyReview(args, internal.RowRejected) },
}

var reviewRequeueCmd = &cobra.Command{
	Use:   "requeue <row-id>...",
	Short: "Return rejected rows to pending for the next run",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return applyReview(args, internal.RowPending) },
}

func applyReview(rowIDs []string, to internal.RowStatus) error {
	ctx := context.Background()
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var failed int
	for _, id := range rowIDs {
		if err := db.Review(ctx, id, to); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("%s → %s\n", id, to)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d rows failed", failed, len(rowIDs))
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.PersistentFlags().StringVarP(&reviewProject, "project", "p", "", "Project name (required for list)")
	reviewListCmd.Flags().StringVar(&reviewStatus, "status", string(internal.RowReview), "Status filter (pending, review, partial, error, approved, rejected)")

	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
	reviewCmd.AddCommand(reviewRequeueCmd)
}
