// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/toeirei/keydepot/internal/i18n"
	"github.com/toeirei/keydepot/internal/ledger"
	"github.com/toeirei/keydepot/internal/model"
)

// keyCmd groups the key inventory subcommands.
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the key inventory",
}

var keyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all keys in the depot",
	RunE: func(cmd *cobra.Command, args []string) error {
		assignableOnly, _ := cmd.Flags().GetBool("assignable")
		var keys []model.Key
		var err error
		if assignableOnly {
			keys, err = depot.AssignableKeys()
		} else {
			keys, err = depot.Keys()
		}
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Println(i18n.T("key.none"))
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, i18n.T("key.header"))
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\t%s\n", k.Name, k.Status, k.Description)
		}
		return w.Flush()
	},
}

var keyAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a key to the depot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		k, err := depot.CreateKey(args[0], description)
		if err != nil {
			return err
		}
		fmt.Println(i18n.T("key.added", k.Name))
		return nil
	},
}

var keyEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit a key's description or status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := depot.FindKey(args[0])
		if err != nil {
			return err
		}
		description := k.Description
		status := k.Status
		if cmd.Flags().Changed("description") {
			description, _ = cmd.Flags().GetString("description")
		}
		if cmd.Flags().Changed("status") {
			s, _ := cmd.Flags().GetString("status")
			status = model.KeyStatus(s)
		}
		if _, err := depot.EditKey(k.Name, description, status); err != nil {
			return err
		}
		fmt.Println(i18n.T("key.updated", k.Name))
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a key (asks for confirmation)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return confirmDelete(ledger.KindKey, args[0], bufio.NewReader(os.Stdin), os.Stdout)
	},
}

func init() {
	keyListCmd.Flags().Bool("assignable", false, "Only list Active keys")
	keyAddCmd.Flags().StringP("description", "d", "", "Key description")
	keyEditCmd.Flags().StringP("description", "d", "", "New description")
	keyEditCmd.Flags().StringP("status", "s", "", `New status ("Active", "Inactive")`)

	keyCmd.AddCommand(keyListCmd)
	keyCmd.AddCommand(keyAddCmd)
	keyCmd.AddCommand(keyEditCmd)
	keyCmd.AddCommand(keyDeleteCmd)
}
