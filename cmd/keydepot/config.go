// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/toeirei/keydepot/internal/config"
	"github.com/toeirei/keydepot/internal/i18n"
)

// configCmd groups configuration inspection and bootstrap subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or write the Keydepot configuration",
}

// configShowCmd prints the effective configuration after merging defaults,
// config files, environment and flags.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		var extra *string
		if cfgFile != "" {
			extra = &cfgFile
		}
		c, err := config.LoadConfig[config.Config](cmd.Root(), config.Defaults(), extra)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(c)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

// configInitCmd writes the effective configuration to the user (or system)
// config path, making the current settings durable.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		system, _ := cmd.Flags().GetBool("system")
		var extra *string
		if cfgFile != "" {
			extra = &cfgFile
		}
		c, err := config.LoadConfig[config.Config](cmd.Root(), config.Defaults(), extra)
		if err != nil {
			return err
		}
		if err := config.WriteConfigFile(&c, system); err != nil {
			return err
		}
		fmt.Println(i18n.T("config.written"))
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("system", false, "Write to the system-wide config path instead of the user path")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
