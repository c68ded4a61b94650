// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cmd implements the iamctl command tree.

Every subcommand builds a signed request through the shared [Client]; the
root command collects connection and credential flags and lazily constructs
the client on first use. Flags fall back to IAM_-prefixed environment
variables so scripted use does not repeat credentials per invocation.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/irongate/internal/platform/config"
)

var (
	serverURL    string
	userID       string
	keyPath      string
	headerPrefix string
	sessionToken string

	// client is built once by requireClient and shared by all commands.
	client *Client
)

var rootCmd = &cobra.Command{
	Use:   "iamctl",
	Short: "Irongate CLI - signed administrative client",
	Long: `iamctl is the command-line interface for the Irongate IAM server.
Use it to manage users, groups, policies, memberships, and sessions.

Every request is signed with your Ed25519 key; the server authorizes it
against the same policies as any other caller.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&serverURL, "server", envOr("SERVER", "http://localhost:8080"), "Server base URL (env: IAM_SERVER)")
	flags.StringVar(&userID, "user", envOr("USER_ID", ""), "Acting user, UUID or email (env: IAM_USER_ID)")
	flags.StringVar(&keyPath, "key", envOr("KEY_FILE", ""), "Path to the Ed25519 private key (env: IAM_KEY_FILE)")
	flags.StringVar(&headerPrefix, "prefix", envOr("HEADER_PREFIX", "IAM"), "Signed header prefix (env: IAM_HEADER_PREFIX)")
	flags.StringVar(&sessionToken, "session-token", envOr("SESSION_TOKEN", ""), "Session token to present (env: IAM_SESSION_TOKEN)")

	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(membershipCmd)
	rootCmd.AddCommand(sessionCmd)
}

// envOr reads the IAM_-prefixed environment variable, or the fallback.
func envOr(suffix, fallback string) string {
	if value := os.Getenv(config.EnvPrefix + suffix); value != "" {
		return value
	}
	return fallback
}

// requireClient builds the shared signing client, failing fast when the
// acting identity is incomplete.
func requireClient() (*Client, error) {
	if client != nil {
		return client, nil
	}

	if userID == "" {
		return nil, fmt.Errorf("acting user required: set --user or IAM_USER_ID")
	}
	if keyPath == "" {
		return nil, fmt.Errorf("signing key required: set --key or IAM_KEY_FILE")
	}

	built, err := NewClient(serverURL, userID, keyPath, headerPrefix, sessionToken)
	if err != nil {
		return nil, err
	}
	client = built
	return client, nil
}
