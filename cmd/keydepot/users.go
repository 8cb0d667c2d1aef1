// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/toeirei/keydepot/internal/i18n"
	"github.com/toeirei/keydepot/internal/ledger"
	"github.com/toeirei/keydepot/internal/security"
	"golang.org/x/term"
)

// userCmd groups the user roster subcommands.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the user roster",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := depot.Users()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println(i18n.T("user.none"))
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, i18n.T("user.header"))
		for _, u := range users {
			login := "no"
			if u.CanLogin {
				login = "yes"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Display(), u.Email, login)
		}
		return w.Flush()
	},
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		displayName, _ := cmd.Flags().GetString("display-name")
		canLogin, _ := cmd.Flags().GetBool("can-login")

		var password security.Secret
		if canLogin {
			p, err := promptPassword(os.Stderr)
			if err != nil {
				return err
			}
			password = p
		}

		u, err := depot.CreateUser(ledger.NewUser{
			Username:    args[0],
			Email:       email,
			DisplayName: displayName,
			Password:    password,
			CanLogin:    canLogin,
		})
		if err != nil {
			return err
		}
		fmt.Println(i18n.T("user.added", u.Username, u.ID))
		return nil
	},
}

var userEditCmd = &cobra.Command{
	Use:   "edit <username>",
	Short: "Edit a user's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := depot.FindUser(args[0])
		if err != nil {
			return err
		}
		username := u.Username
		email := u.Email
		displayName := u.DisplayName
		canLogin := u.CanLogin
		if cmd.Flags().Changed("username") {
			username, _ = cmd.Flags().GetString("username")
		}
		if cmd.Flags().Changed("email") {
			email, _ = cmd.Flags().GetString("email")
		}
		if cmd.Flags().Changed("display-name") {
			displayName, _ = cmd.Flags().GetString("display-name")
		}
		if cmd.Flags().Changed("can-login") {
			canLogin, _ = cmd.Flags().GetBool("can-login")
		}
		updated, err := depot.EditUser(u.ID, username, email, displayName, canLogin)
		if err != nil {
			return err
		}
		fmt.Println(i18n.T("user.updated", updated.Username))
		return nil
	},
}

var userSetPasswordCmd = &cobra.Command{
	Use:   "set-password <username>",
	Short: "Set a user's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := depot.FindUser(args[0])
		if err != nil {
			return err
		}
		password, err := promptPassword(os.Stderr)
		if err != nil {
			return err
		}
		if err := depot.SetPassword(u.ID, password); err != nil {
			return err
		}
		fmt.Println(i18n.T("user.password_set", u.Username))
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user (asks for confirmation)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return confirmDelete(ledger.KindUser, args[0], bufio.NewReader(os.Stdin), os.Stdout)
	},
}

// userCheckLoginCmd verifies a username/password pair against the roster.
// Useful for wiring Keydepot into an external front door.
var userCheckLoginCmd = &cobra.Command{
	Use:   "check-login <username>",
	Short: "Verify a user's credentials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(os.Stderr, i18n.T("prompt.password"))
		if err != nil {
			return err
		}
		u, err := depot.Authenticate(args[0], password)
		if err != nil {
			return err
		}
		fmt.Println(i18n.T("user.login_ok", u.Username))
		return nil
	},
}

// promptPassword reads a new password twice without echo and makes sure both
// entries match.
func promptPassword(out *os.File) (security.Secret, error) {
	first, err := readPassword(out, i18n.T("prompt.password"))
	if err != nil {
		return nil, err
	}
	second, err := readPassword(out, i18n.T("prompt.password_confirm"))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		first.Zero()
		second.Zero()
		return nil, errors.New(i18n.T("error.password_mismatch"))
	}
	second.Zero()
	return first, nil
}

// readPassword reads a single password from the terminal without echo.
func readPassword(out *os.File, prompt string) (security.Secret, error) {
	fmt.Fprint(out, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return nil, err
	}
	return security.FromBytes(raw), nil
}

func init() {
	userAddCmd.Flags().String("email", "", "Email address (optional, must be unique)")
	userAddCmd.Flags().String("display-name", "", "Display name (falls back to the username)")
	userAddCmd.Flags().Bool("can-login", false, "Allow this user to authenticate")
	userEditCmd.Flags().String("username", "", "New username")
	userEditCmd.Flags().String("email", "", "New email address")
	userEditCmd.Flags().String("display-name", "", "New display name")
	userEditCmd.Flags().Bool("can-login", false, "Allow this user to authenticate")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userEditCmd)
	userCmd.AddCommand(userSetPasswordCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userCheckLoginCmd)
}
