// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the Keydepot
// application using the Cobra library. It defines the root command,
// subcommands (key, user, assign, holdings, ...), flags, and the main
// entry point for execution.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/keydepot/internal/db"
	"github.com/toeirei/keydepot/internal/i18n"
	"github.com/toeirei/keydepot/internal/ledger"
	"github.com/toeirei/keydepot/internal/logging"
)

var version = "dev" // this will be set by the linker
var cfgFile string

// depot is the assignment ledger used by every subcommand. It is wired up in
// PersistentPreRunE once the database is initialized.
var depot *ledger.Ledger

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

var rootCmd *cobra.Command

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd = newRootCmd()

	// Set defaults in viper. These are used if not set in the config file or by flags.
	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.dsn", "./keydepot.db")
	viper.SetDefault("language", "en")
}

// newRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keydepot",
		Short: "Keydepot is a lightweight inventory for physical keys.",
		Long: `Keydepot keeps a ledger of physical keys, the people who may hold
them, and every checkout from issue to return. The database is the
source of truth: who has which key right now is always derived from
the open assignment rows, never tracked by hand.

Running without a subcommand prints this help.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize the database for all commands.
			// Viper has already read the config by this point.
			i18n.Init(viper.GetString("language"))
			logging.SetDebug(viper.GetBool("debug"))
			dbType := viper.GetString("database.type")
			dsn := viper.GetString("database.dsn")
			if err := db.InitDB(dbType, dsn); err != nil {
				return fmt.Errorf("%s", i18n.T("config.error_init_db", err))
			}
			depot = ledger.New(db.Default())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Add subcommands to the newly created root command.
	cmd.AddCommand(keyCmd)
	cmd.AddCommand(userCmd)
	cmd.AddCommand(assignCmd)
	cmd.AddCommand(assignmentCmd)
	cmd.AddCommand(returnCmd)
	cmd.AddCommand(holdingsCmd)
	cmd.AddCommand(maintenanceCmd)
	cmd.AddCommand(configCmd)

	// Set version
	cmd.Version = version

	// Define flags
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.keydepot.yaml or ./keydepot.yaml)")
	cmd.PersistentFlags().String("db-type", "sqlite", "Database type (e.g., sqlite, postgres)")
	cmd.PersistentFlags().String("db-dsn", "./keydepot.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("lang", "en", `Output language ("en", "de")`)
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	// Bind flags to viper
	viper.BindPFlag("database.type", cmd.PersistentFlags().Lookup("db-type"))
	viper.BindPFlag("database.dsn", cmd.PersistentFlags().Lookup("db-dsn"))
	viper.BindPFlag("language", cmd.PersistentFlags().Lookup("lang"))
	viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))

	return cmd
}

// initConfig reads in a configuration file and environment variables.
// It uses Viper to search for a config file (e.g., .keydepot.yaml) in the home
// and current directories. If a config file is not found, it attempts to create
// a default one. It also binds environment variables prefixed with "KEYDEPOT".
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory and current directory with name ".keydepot" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".keydepot")
	}

	viper.SetEnvPrefix("KEYDEPOT")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can create one with default values
		// to make configuration discoverable for the user.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			// We only do this if no config file was found and none was specified via flag.
			// We'll attempt to write a default config to the current directory.
			const defaultConfigPath = ".keydepot.yaml"
			defaultContent := `# Keydepot configuration file.
# This file is automatically generated with default values.
# You can modify these settings to configure Keydepot.

database:
  # The type of database to use. Supported values: "sqlite", "postgres", "mysql".
  # Note: PostgreSQL and MySQL support is experimental.
  type: sqlite

  # The Data Source Name (DSN) for the database connection.
  # For SQLite, this is the path to the database file.
  dsn: ./keydepot.db

# The default output language. Supported: "en", "de".
language: en

# Example for PostgreSQL:
# database:
#   type: postgres
#   dsn: "host=localhost user=keydepot password=secret dbname=keydepot port=5432 sslmode=disable"

# Example for MySQL:
# database:
#   type: mysql
#   dsn: "keydepot:password@tcp(127.0.0.1:3306)/keydepot?parseTime=true&multiStatements=true"
`
			// If writing fails (e.g., due to permissions), we don't treat it as a
			// fatal error. The app will simply run with the default values set in memory.
			if err := os.WriteFile(defaultConfigPath, []byte(defaultContent), 0644); err == nil {
				fmt.Println(i18n.T("config.created_default"))
			}
		}
	}
}

// confirmDelete stages a deletion on the ledger, asks the operator to confirm
// it on the terminal, and executes or aborts accordingly. Every destructive
// command funnels through here so nothing is ever removed on the first step.
func confirmDelete(kind ledger.Kind, identifier string, in *bufio.Reader, out *os.File) error {
	req, err := depot.StageDelete(kind, identifier)
	if err != nil {
		return err
	}
	fmt.Fprint(out, i18n.T("confirm.prompt", req.Kind(), req.Label()))
	answer, err := in.ReadString('\n')
	if err != nil {
		answer = ""
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	confirmed := answer == "y" || answer == "yes"
	if err := req.Confirm(confirmed); err != nil {
		if confirmed {
			return err
		}
		fmt.Fprintln(out, i18n.T("confirm.aborted"))
		return nil
	}
	fmt.Fprintln(out, i18n.T("confirm.deleted", req.Kind(), req.Label()))
	return nil
}

// maintenanceCmd runs routine upkeep against the configured database.
var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Run routine database maintenance",
	Long:  `Runs dialect-appropriate upkeep (VACUUM, ANALYZE, integrity checks) against the configured database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(i18n.T("maintenance.running"))
		if err := db.RunDBMaintenance(viper.GetString("database.type"), viper.GetString("database.dsn")); err != nil {
			return err
		}
		fmt.Println(i18n.T("maintenance.done"))
		return nil
	},
}
