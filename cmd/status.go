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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/transflow/internal"
)

var statusProject string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a project's rows tallied by workflow status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		projectID, _, err := db.GetProjectByName(ctx, statusProject)
		if err != nil {
			return err
		}
		counts, err := db.StatusCounts(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to read status counts: %w", err)
		}

		order := []internal.RowStatus{
			internal.RowPending, internal.RowQueued, internal.RowTranslating,
			internal.RowReview, internal.RowPartial, internal.RowError,
			internal.RowApproved, internal.RowRejected,
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STATUS\tROWS")
		total := 0
		for _, status := range order {
			if n := counts[status]; n > 0 {
				fmt.Fprintf(w, "%s\t%d\n", status, n)
				total += n
			}
		}
		fmt.Fprintf(w, "total\t%d\n", total)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusProject, "project", "p", "", "Project name (required)")
	statusCmd.MarkFlagRequired("project")
}
