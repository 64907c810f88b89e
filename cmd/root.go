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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "transflow",
	Short: "Human-in-the-loop translation workflow",
	Long: `Transflow runs translation batches through an LLM or machine-translation
provider and routes every result through human review.

Rows move pending → queued → translating → review, where a reviewer
approves or rejects them. Rejected rows return to pending for the next run.

Use "transflow translate --help" to start a run.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./transflow.yaml)")
	rootCmd.PersistentFlags().String("db", "./data/transflow.db", "Workflow database path")
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("transflow")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TRANSFLOW")
	viper.AutomaticEnv()

	viper.SetDefault("provider", "gemini")
	viper.SetDefault("queue.batch_size", 10)
	viper.SetDefault("queue.max_retries", 3)
	viper.SetDefault("queue.base_backoff", 5*time.Second)
	viper.SetDefault("queue.batch_timeout", 120*time.Second)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
