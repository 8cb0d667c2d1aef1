// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/keydepot/internal/i18n"
	"github.com/toeirei/keydepot/internal/ledger"
	"github.com/toeirei/keydepot/internal/model"
)

// assignCmd checks out every named key to every named user in one batch.
// Pairings that are already open are skipped, not errors.
var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Check out keys to users",
	Long: `Checks out every key in --keys to every user in --users as one batch.
A pairing that already has an open assignment is skipped and reported;
the rest of the batch still goes through.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		usernames, _ := cmd.Flags().GetStringSlice("users")
		keyNames, _ := cmd.Flags().GetStringSlice("keys")
		dateOut, err := dateFlag(cmd, "date", time.Now())
		if err != nil {
			return err
		}

		outcomes, err := depot.Assign(usernames, keyNames, dateOut)
		if err != nil {
			return err
		}

		var created, skipped int
		for _, o := range outcomes {
			if o.Skipped {
				skipped++
			} else {
				created++
			}
		}
		fmt.Println(i18n.T("assign.summary", created, skipped))
		for _, o := range outcomes {
			if o.Skipped {
				fmt.Println(i18n.T("assign.skipped", o.Username, o.KeyName))
			} else {
				fmt.Println(i18n.T("assign.created", o.AssignmentID, o.KeyName, o.Username))
			}
		}
		return nil
	},
}

// assignmentCmd groups the assignment history subcommands.
var assignmentCmd = &cobra.Command{
	Use:   "assignment",
	Short: "Manage the assignment history",
}

var assignmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		assignments, err := depot.Assignments()
		if err != nil {
			return err
		}
		openOnly, _ := cmd.Flags().GetBool("open")
		if openOnly {
			var open []model.Assignment
			for _, a := range assignments {
				if a.Open() {
					open = append(open, a)
				}
			}
			assignments = open
		}
		if len(assignments) == 0 {
			fmt.Println(i18n.T("assignment.none"))
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, i18n.T("assignment.header"))
		for _, a := range assignments {
			in := i18n.T("assignment.open_marker")
			if a.DateIn != nil {
				in = a.DateIn.Format(model.DateFormat)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.Username, a.KeyName, a.DateOut.Format(model.DateFormat), in)
		}
		return w.Flush()
	},
}

var assignmentEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an assignment record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid assignment id %q", args[0])
		}
		a, err := depot.FindAssignment(id)
		if err != nil {
			return err
		}

		username := a.Username
		keyName := a.KeyName
		dateOut := a.DateOut
		dateIn := a.DateIn
		if cmd.Flags().Changed("user") {
			username, _ = cmd.Flags().GetString("user")
		}
		if cmd.Flags().Changed("key") {
			keyName, _ = cmd.Flags().GetString("key")
		}
		if cmd.Flags().Changed("date-out") {
			dateOut, err = dateFlag(cmd, "date-out", a.DateOut)
			if err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("date-in") {
			raw, _ := cmd.Flags().GetString("date-in")
			if raw == "" {
				// An explicitly empty --date-in reopens the assignment.
				dateIn = nil
			} else {
				t, err := time.Parse(model.DateFormat, raw)
				if err != nil {
					return fmt.Errorf("invalid date %q (want %s)", raw, model.DateFormat)
				}
				dateIn = &t
			}
		}

		updated, err := depot.EditAssignment(id, username, keyName, dateOut, dateIn)
		if err != nil {
			return err
		}
		fmt.Println(i18n.T("assignment.updated", updated.ID))
		return nil
	},
}

var assignmentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an assignment record (asks for confirmation)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return confirmDelete(ledger.KindAssignment, args[0], bufio.NewReader(os.Stdin), os.Stdout)
	},
}

// returnCmd checks a key back in by closing its assignment.
var returnCmd = &cobra.Command{
	Use:   "return <id>",
	Short: "Check a key back in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid assignment id %q", args[0])
		}
		dateIn, err := dateFlag(cmd, "date", time.Now())
		if err != nil {
			return err
		}
		a, err := depot.ReturnAssignment(id, dateIn)
		if err != nil {
			return err
		}
		fmt.Println(i18n.T("assignment.returned", a.KeyName, a.Username))
		return nil
	},
}

// holdingsCmd shows who currently holds what, grouped by user or by key.
var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "Show who currently holds which keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("by")
		sort := ledger.ByUser
		if by == "key" {
			sort = ledger.ByKey
		} else if by != "" && by != "user" {
			return fmt.Errorf("invalid --by value %q (want \"user\" or \"key\")", by)
		}
		holdings, err := depot.CurrentHoldings(sort)
		if err != nil {
			return err
		}
		if len(holdings) == 0 {
			fmt.Println(i18n.T("holdings.none"))
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, h := range holdings {
			fmt.Fprintf(w, "%s\t%s\n", h.Group, h.Members)
		}
		return w.Flush()
	},
}

// dateFlag parses a YYYY-MM-DD flag value, defaulting when the flag is unset.
func dateFlag(cmd *cobra.Command, name string, fallback time.Time) (time.Time, error) {
	if !cmd.Flags().Changed(name) {
		return fallback, nil
	}
	raw, _ := cmd.Flags().GetString(name)
	t, err := time.Parse(model.DateFormat, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want %s)", raw, model.DateFormat)
	}
	return t, nil
}

func init() {
	assignCmd.Flags().StringSlice("users", nil, "Usernames to assign to")
	assignCmd.Flags().StringSlice("keys", nil, "Key names to hand out")
	assignCmd.Flags().String("date", "", "Checkout date (YYYY-MM-DD, default today)")
	assignCmd.MarkFlagRequired("users")
	assignCmd.MarkFlagRequired("keys")

	assignmentListCmd.Flags().Bool("open", false, "Only list open assignments")
	assignmentEditCmd.Flags().String("user", "", "New username")
	assignmentEditCmd.Flags().String("key", "", "New key name")
	assignmentEditCmd.Flags().String("date-out", "", "New checkout date (YYYY-MM-DD)")
	assignmentEditCmd.Flags().String("date-in", "", "New return date (YYYY-MM-DD, empty reopens)")
	returnCmd.Flags().String("date", "", "Return date (YYYY-MM-DD, default today)")
	holdingsCmd.Flags().String("by", "user", `Group by "user" or "key"`)

	assignmentCmd.AddCommand(assignmentListCmd)
	assignmentCmd.AddCommand(assignmentEditCmd)
	assignmentCmd.AddCommand(assignmentDeleteCmd)
}
