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
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/transflow/internal"
	"github.com/valpere/transflow/internal/prompt"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage prompt templates",
	Long: `Manage the style templates prompts are built from.

A template body must contain the {{targetLanguage}} placeholder; it is
replaced with the human-readable target language names when a batch prompt
is assembled.`,
}

var templateFile string

var templateSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update a template from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := os.ReadFile(templateFile)
		if err != nil {
			return fmt.Errorf("failed to read template file: %w", err)
		}
		if !strings.Contains(string(body), prompt.TargetLanguagePlaceholder) {
			fmt.Fprintf(os.Stderr, "Warning: template has no %s placeholder\n", prompt.TargetLanguagePlaceholder)
		}

		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		tmpl := internal.Template{Name: args[0], PromptBody: string(body)}
		if err := db.SaveTemplate(context.Background(), tmpl); err != nil {
			return fmt.Errorf("failed to save template: %w", err)
		}
		fmt.Printf("Saved template %q (%d bytes)\n", args[0], len(body))
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List template names",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		names, err := db.ListTemplates(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list templates: %w", err)
		}
		if len(names) == 0 {
			fmt.Println("No templates saved.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a template's body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		tmpl, err := db.GetTemplate(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(tmpl.PromptBody)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateSetCmd.Flags().StringVarP(&templateFile, "file", "f", "", "File holding the template body (required)")
	templateSetCmd.MarkFlagRequired("file")

	templateCmd.AddCommand(templateSetCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
}
