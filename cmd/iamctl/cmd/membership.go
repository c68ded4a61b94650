// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var membershipCmd = &cobra.Command{
	Use:   "membership",
	Short: "Manage group memberships",
}

var membershipAddCmd = &cobra.Command{
	Use:   "add <user> <group>",
	Short: "Add a user to a group",
	Long:  `Add a user (UUID or email) to a group (UUID or name).`,
	Args:  cobra.ExactArgs(2),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		return c.Do(http.MethodPost, "/memberships/"+args[0]+"/"+args[1], nil, nil)
	},
}

var membershipRemoveCmd = &cobra.Command{
	Use:   "remove <user> <group>",
	Short: "Remove a user from a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		return c.Do(http.MethodDelete, "/memberships/"+args[0]+"/"+args[1], nil, nil)
	},
}

func init() {
	membershipCmd.AddCommand(membershipAddCmd)
	membershipCmd.AddCommand(membershipRemoveCmd)
}
