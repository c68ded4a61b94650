// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/irongate/internal/iam"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var (
	userEmail   string
	userKeyB64  string
	userKeyDesc string
)

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user with an optional email alias and an optional initial
Ed25519 public key (base64 of the 32 raw bytes).`,
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		input := iam.CreateUserInput{Email: userEmail}
		if userKeyB64 != "" {
			key, err := base64.StdEncoding.DecodeString(userKeyB64)
			if err != nil {
				return fmt.Errorf("invalid --public-key: %w", err)
			}
			input.PublicKeys = []iam.UserPublicKey{{Key: key, Description: userKeyDesc}}
		}

		var user iam.User
		if err := c.Do(http.MethodPost, "/users", input, &user); err != nil {
			return err
		}
		return printJSON(user)
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get <uuid-or-email>",
	Short: "Get a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		var user iam.User
		if err := c.Do(http.MethodGet, "/users/"+args[0], nil, &user); err != nil {
			return err
		}
		return printJSON(user)
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		var users []iam.User
		if err := c.Do(http.MethodGet, "/users", nil, &users); err != nil {
			return err
		}
		return printJSON(users)
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <uuid-or-email>",
	Short: "Delete a user and everything attached to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		return c.Do(http.MethodDelete, "/users/"+args[0], nil, nil)
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Optional unique email alias")
	userCreateCmd.Flags().StringVar(&userKeyB64, "public-key", "", "Base64 Ed25519 public key to register")
	userCreateCmd.Flags().StringVar(&userKeyDesc, "key-description", "", "Label for the registered key")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userGetCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userDeleteCmd)
}

// printJSON writes indented JSON to stdout; command output is meant to be
// piped into jq or shell scripts.
func printJSON(value interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
