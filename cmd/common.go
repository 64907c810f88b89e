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
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/valpere/transflow/internal/provider"
	"github.com/valpere/transflow/internal/queue"
	"github.com/valpere/transflow/internal/store"
)

// buildProvider constructs a provider variant from the viper config tree
// (providers.<name>.api_key, .model, .endpoint, .credentials). Environment
// variables like TRANSFLOW_GEMINI_API_KEY override the file.
func buildProvider(name string) (provider.Provider, error) {
	cfg := provider.Config{
		APIKey:      viper.GetString("providers." + name + ".api_key"),
		Model:       viper.GetString("providers." + name + ".model"),
		Endpoint:    viper.GetString("providers." + name + ".endpoint"),
		Credentials: viper.GetString("providers." + name + ".credentials"),
	}
	if env := os.Getenv("TRANSFLOW_" + envName(name) + "_API_KEY"); env != "" {
		cfg.APIKey = env
	}

	switch name {
	case "gemini":
		return provider.NewGemini(cfg), nil
	case "openai":
		return provider.NewOpenAI(cfg), nil
	case "google":
		return provider.NewGoogle(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (expected gemini, openai, or google)", name)
	}
}

func envName(provider string) string {
	out := make([]byte, 0, len(provider))
	for i := 0; i < len(provider); i++ {
		c := provider[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// openStore opens the workflow database at the configured path, creating
// the parent directory when needed.
func openStore() (*store.Store, error) {
	dbPath := viper.GetString("db")
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return store.New(dbPath)
}

// queueConfig reads the scheduler knobs from viper.
func queueConfig() queue.Config {
	return queue.Config{
		BatchSize:    viper.GetInt("queue.batch_size"),
		MaxRetries:   viper.GetInt("queue.max_retries"),
		BaseBackoff:  viper.GetDuration("queue.base_backoff"),
		BatchTimeout: viper.GetDuration("queue.batch_timeout"),
	}
}

// newLogger builds the CLI's console logger.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
