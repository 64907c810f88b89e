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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/transflow/internal"
)

var glossaryProject string

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage a project's terminology glossary",
	Long: `Add, list, and delete glossary terms.

Glossary terms pin the translation of specific vocabulary — brand names,
product terms, legal phrases. When a queued batch's source text mentions a
term, its mandated translations are injected into the prompt.`,
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the project's glossary terms",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		projectID, _, err := db.GetProjectByName(ctx, glossaryProject)
		if err != nil {
			return err
		}
		entries, err := db.ListGlossaryTerms(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTERM\tCATEGORY\tTRANSLATIONS")
		for _, e := range entries {
			langs := make([]string, 0, len(e.Term.Translations))
			for lang := range e.Term.Translations {
				langs = append(langs, lang)
			}
			sort.Strings(langs)
			pairs := make([]string, 0, len(langs))
			for _, lang := range langs {
				pairs = append(pairs, fmt.Sprintf("%s=%s", lang, e.Term.Translations[lang]))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Term.SourceTerm, e.Term.Category, strings.Join(pairs, ", "))
		}
		return w.Flush()
	},
}

var (
	glossaryAddTranslations []string
	glossaryAddCategory     string
)

var glossaryAddCmd = &cobra.Command{
	Use:   "add <source-term>",
	Short: "Add a glossary term with its per-language translations",
	Long: `Add a glossary term. Each --translation flag maps one target language to
the mandated translation.

Example:
  transflow glossary add "roaming pass" --project campaign-q3 \
    --translation ms="pas perayauan" --translation th="แพ็กโรมมิ่ง" \
    --category product`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		translations := make(map[string]string, len(glossaryAddTranslations))
		for _, pair := range glossaryAddTranslations {
			lang, text, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --translation %q, expected lang=text", pair)
			}
			translations[strings.TrimSpace(lang)] = text
		}
		if len(translations) == 0 {
			return fmt.Errorf("at least one --translation lang=text is required")
		}

		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		projectID, _, err := db.GetProjectByName(ctx, glossaryProject)
		if err != nil {
			return err
		}
		id, err := db.AddGlossaryTerm(ctx, projectID, internal.GlossaryTerm{
			SourceTerm:   args[0],
			Translations: translations,
			Category:     glossaryAddCategory,
		})
		if err != nil {
			return fmt.Errorf("failed to add glossary term: %w", err)
		}
		fmt.Printf("Added term %q (%s)\n", args[0], id)
		return nil
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a glossary term by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.DeleteGlossaryTerm(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete glossary term: %w", err)
		}
		fmt.Printf("Deleted glossary term: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.PersistentFlags().StringVarP(&glossaryProject, "project", "p", "", "Project name (required)")
	glossaryCmd.MarkPersistentFlagRequired("project")

	glossaryAddCmd.Flags().StringArrayVar(&glossaryAddTranslations, "translation", nil, "Mandated translation as lang=text (repeatable)")
	glossaryAddCmd.Flags().StringVar(&glossaryAddCategory, "category", "", "Term category (e.g. product, legal)")

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
}
