// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/taibuivan/irongate/internal/iam"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var groupName string

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group",
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		input := map[string]string{"name": groupName}
		var group iam.Group
		if err := c.Do(http.MethodPost, "/groups", input, &group); err != nil {
			return err
		}
		return printJSON(group)
	},
}

var groupGetCmd = &cobra.Command{
	Use:   "get <uuid-or-name>",
	Short: "Get a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		var group iam.Group
		if err := c.Do(http.MethodGet, "/groups/"+args[0], nil, &group); err != nil {
			return err
		}
		return printJSON(group)
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		var groups []iam.Group
		if err := c.Do(http.MethodGet, "/groups", nil, &groups); err != nil {
			return err
		}
		return printJSON(groups)
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <uuid-or-name>",
	Short: "Delete a group; member users are untouched",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		return c.Do(http.MethodDelete, "/groups/"+args[0], nil, nil)
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupName, "name", "", "Optional unique group name")

	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupGetCmd)
	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(groupDeleteCmd)
}
