package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"windreef/capsync/pkg/cli"
	"windreef/capsync/pkg/usage"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage a single user's add-on cap",
}

var userGetCmd = &cobra.Command{
	Use:   "get <email>",
	Short: "Show a user's individual cap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		if err := usage.ValidateEmail(email); err != nil {
			return cli.NewConfigError("email", err.Error())
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		service, err := newGateway(cfg)
		if err != nil {
			return err
		}

		ctx := cli.SetupSignalHandler()
		states, err := service.FetchCurrentCaps(ctx, []string{email})
		if err != nil {
			return cli.NewCommandError("user get", err)
		}

		state, ok := states[email]
		if !ok || state.Cap == nil {
			fmt.Printf("%s: no individual cap (inherits the organization default)\n", email)
			return nil
		}
		fmt.Printf("%s: add-on cap %d\n", email, *state.Cap)
		return nil
	},
}

var userSetCmd = &cobra.Command{
	Use:   "set <email> <cap>",
	Short: "Set a user's individual cap",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		if err := usage.ValidateEmail(email); err != nil {
			return cli.NewConfigError("email", err.Error())
		}
		cap, err := strconv.Atoi(args[1])
		if err != nil || cap < 0 {
			return cli.NewConfigError("cap", fmt.Sprintf("%q is not a non-negative integer", args[1]))
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		service, err := newGateway(cfg)
		if err != nil {
			return err
		}

		ctx := cli.SetupSignalHandler()
		if err := service.SetUserCap(ctx, email, cap); err != nil {
			return cli.NewCommandError("user set", err)
		}
		fmt.Printf("cap set for %s: %d (total %d with base credits)\n",
			email, cap, cfg.Policy.BaseCredits+cap)
		return nil
	},
}

var userClearCmd = &cobra.Command{
	Use:   "clear <email>",
	Short: "Remove a user's individual cap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		if err := usage.ValidateEmail(email); err != nil {
			return cli.NewConfigError("email", err.Error())
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		service, err := newGateway(cfg)
		if err != nil {
			return err
		}

		ctx := cli.SetupSignalHandler()
		if err := service.ClearUserCap(ctx, email); err != nil {
			return cli.NewCommandError("user clear", err)
		}
		fmt.Printf("cap cleared for %s (inherits the organization default)\n", email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userGetCmd)
	userCmd.AddCommand(userSetCmd)
	userCmd.AddCommand(userClearCmd)
}
