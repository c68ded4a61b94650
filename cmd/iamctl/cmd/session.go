// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/taibuivan/irongate/internal/iam"
	"github.com/taibuivan/irongate/internal/platform/config"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a session for the acting user",
	Long: `Open a session and print shell export lines for the session id and
token. The token is revealed only here; capture it in the calling shell:

  eval $(iamctl session create)`,
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		var session iam.Session
		if err := c.Do(http.MethodPost, "/users/"+userID+"/sessions", nil, &session); err != nil {
			return err
		}

		fmt.Printf("export %sSESSION_ID=%s\n", config.EnvPrefix, session.ID)
		fmt.Printf("export %sSESSION_TOKEN=%s\n", config.EnvPrefix, session.Token)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the acting user's live sessions",
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		var sessions []iam.Session
		if err := c.Do(http.MethodGet, "/users/"+userID+"/sessions", nil, &sessions); err != nil {
			return err
		}
		return printJSON(sessions)
	},
}

var sessionRefreshCmd = &cobra.Command{
	Use:   "refresh <sid>",
	Short: "Extend a session's expiry by a full TTL",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		var session iam.Session
		if err := c.Do(http.MethodPut, "/users/"+userID+"/sessions/"+args[0], nil, &session); err != nil {
			return err
		}
		return printJSON(session)
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <sid>",
	Short: "Close a session and print shell unset lines",
	Long: `Close a session and print unset lines so the calling shell drops the
dead credentials:

  eval $(iamctl session delete "$IAM_SESSION_ID")`,
	Args: cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		if err := c.Do(http.MethodDelete, "/users/"+userID+"/sessions/"+args[0], nil, nil); err != nil {
			return err
		}

		fmt.Printf("unset %sSESSION_ID\n", config.EnvPrefix)
		fmt.Printf("unset %sSESSION_TOKEN\n", config.EnvPrefix)
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionRefreshCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
}
