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
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/transflow/internal"
	"github.com/valpere/transflow/internal/provider"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect and test translation providers",
}

var providersTestCmd = &cobra.Command{
	Use:   "test [name]",
	Short: "Check a provider's credentials with a cheap round-trip",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := viper.GetString("provider")
		if len(args) > 0 {
			name = args[0]
		}
		prov, err := buildProvider(name)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := prov.TestConnection(ctx); err != nil {
			return fmt.Errorf("%s: connection failed: %w", name, err)
		}
		fmt.Printf("%s: connection OK\n", name)
		return nil
	},
}

var extractLangs []string

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract text from an image, optionally translating it",
	Long: `Extract the visible text from an image using a provider with
multimodal support (gemini).

With --target, the extracted text is also translated in the same
round-trip and printed per language.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prov, err := buildProvider(viper.GetString("provider"))
		if err != nil {
			return err
		}

		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(args[0]))
		if mimeType == "" {
			mimeType = "image/png"
		}

		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		if len(extractLangs) == 0 {
			extractor, ok := prov.(provider.TextExtractor)
			if !ok {
				return fmt.Errorf("provider %s cannot extract text from images", prov.Name())
			}
			text, err := extractor.ExtractText(ctx, image, mimeType)
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}
			fmt.Println(text)
			return nil
		}

		translator, ok := prov.(provider.ExtractTranslator)
		if !ok {
			return fmt.Errorf("provider %s cannot extract and translate images", prov.Name())
		}
		results, err := translator.ExtractAndTranslate(ctx, image, mimeType, provider.Options{
			TargetLanguages: extractLangs,
			Template:        extractTemplate(),
		})
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
		for _, res := range results {
			for _, lang := range extractLangs {
				fmt.Printf("[%s] %s\n", lang, res.Translations[lang].Text)
			}
		}
		return nil
	},
}

// extractTemplate is the fixed template for ad-hoc image translation; the
// workflow's stored templates are per-project and do not apply here.
func extractTemplate() internal.Template {
	return internal.Template{
		Name:       "extract",
		PromptBody: "Translate the extracted text into {{targetLanguage}}, preserving line breaks.",
	}
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersTestCmd)

	extractCmd.Flags().StringSliceVarP(&extractLangs, "target", "t", nil, "Target language codes for translation")
	rootCmd.AddCommand(extractCmd)
}
