// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/irongate/internal/iam"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage policies and their attachments",
}

var policyFile string

var policyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a policy from a JSON document",
	Long: `Create a policy from a JSON file (or stdin with --file -):

  { "name": "readers", "hostname": "iam.example.com",
    "rules": [ { "effect": "Allow", "action": "Read", "resource": "/users/*" } ] }`,
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		input, err := readPolicyInput()
		if err != nil {
			return err
		}

		var policy iam.Policy
		if err := c.Do(http.MethodPost, "/policies", input, &policy); err != nil {
			return err
		}
		return printJSON(policy)
	},
}

var policyGetCmd = &cobra.Command{
	Use:   "get <uuid-or-name>",
	Short: "Get a policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		var policy iam.Policy
		if err := c.Do(http.MethodGet, "/policies/"+args[0], nil, &policy); err != nil {
			return err
		}
		return printJSON(policy)
	},
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List policy ids",
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		var ids []string
		if err := c.Do(http.MethodGet, "/policies", nil, &ids); err != nil {
			return err
		}
		return printJSON(ids)
	},
}

var policyUpdateCmd = &cobra.Command{
	Use:   "update <uuid-or-name>",
	Short: "Replace a policy's name, hostname, and rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}

		input, err := readPolicyInput()
		if err != nil {
			return err
		}

		var policy iam.Policy
		if err := c.Do(http.MethodPut, "/policies/"+args[0], input, &policy); err != nil {
			return err
		}
		return printJSON(policy)
	},
}

var policyDeleteCmd = &cobra.Command{
	Use:   "delete <uuid-or-name>",
	Short: "Delete a policy and its attachments",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		return c.Do(http.MethodDelete, "/policies/"+args[0], nil, nil)
	},
}

var (
	policyAttachUser  string
	policyAttachGroup string
)

var policyAttachCmd = &cobra.Command{
	Use:   "attach <policy>",
	Short: "Attach a policy to a user (--user) or a group (--group)",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		path, err := attachmentPath(args[0])
		if err != nil {
			return err
		}
		return c.Do(http.MethodPost, path, nil, nil)
	},
}

var policyDetachCmd = &cobra.Command{
	Use:   "detach <policy>",
	Short: "Detach a policy from a user (--user) or a group (--group)",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		path, err := attachmentPath(args[0])
		if err != nil {
			return err
		}
		return c.Do(http.MethodDelete, path, nil, nil)
	},
}

func attachmentPath(policy string) (string, error) {
	switch {
	case policyAttachUser != "" && policyAttachGroup != "":
		return "", fmt.Errorf("--user and --group are mutually exclusive")
	case policyAttachUser != "":
		return "/users/" + policyAttachUser + "/policies/" + policy, nil
	case policyAttachGroup != "":
		return "/groups/" + policyAttachGroup + "/policies/" + policy, nil
	default:
		return "", fmt.Errorf("target required: set --user or --group")
	}
}

// readPolicyInput loads the policy document from --file ("-" for stdin).
func readPolicyInput() (*iam.PolicyInput, error) {
	if policyFile == "" {
		return nil, fmt.Errorf("policy document required: set --file")
	}

	raw := os.Stdin
	if policyFile != "-" {
		file, err := os.Open(policyFile)
		if err != nil {
			return nil, fmt.Errorf("iamctl_read_policy_failed: %w", err)
		}
		defer func() { _ = file.Close() }()
		raw = file
	}

	var input iam.PolicyInput
	if err := json.NewDecoder(raw).Decode(&input); err != nil {
		return nil, fmt.Errorf("iamctl_parse_policy_failed: %w", err)
	}
	return &input, nil
}

func init() {
	policyCreateCmd.Flags().StringVar(&policyFile, "file", "", `Policy JSON document ("-" for stdin)`)
	policyUpdateCmd.Flags().StringVar(&policyFile, "file", "", `Policy JSON document ("-" for stdin)`)
	policyAttachCmd.Flags().StringVar(&policyAttachUser, "user", "", "Attach to this user (UUID or email)")
	policyAttachCmd.Flags().StringVar(&policyAttachGroup, "group", "", "Attach to this group (UUID or name)")
	policyDetachCmd.Flags().StringVar(&policyAttachUser, "user", "", "Detach from this user (UUID or email)")
	policyDetachCmd.Flags().StringVar(&policyAttachGroup, "group", "", "Detach from this group (UUID or name)")

	policyCmd.AddCommand(policyCreateCmd)
	policyCmd.AddCommand(policyGetCmd)
	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policyUpdateCmd)
	policyCmd.AddCommand(policyDeleteCmd)
	policyCmd.AddCommand(policyAttachCmd)
	policyCmd.AddCommand(policyDetachCmd)
}
