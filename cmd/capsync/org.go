package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"windreef/capsync/pkg/cli"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Manage the organization-wide add-on cap",
}

var orgGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the organization-wide cap",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		service, err := newGateway(cfg)
		if err != nil {
			return err
		}

		ctx := cli.SetupSignalHandler()
		cap, err := service.FetchOrgCap(ctx)
		if err != nil {
			return cli.NewCommandError("org get", err)
		}

		if cap == nil {
			fmt.Println("no organization-wide add-on cap configured")
			return nil
		}
		fmt.Printf("organization add-on cap: %d (plus %d base credits per user)\n",
			*cap, cfg.Policy.BaseCredits)
		return nil
	},
}

var orgSetCmd = &cobra.Command{
	Use:   "set <cap>",
	Short: "Set the organization-wide cap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cap, err := strconv.Atoi(args[0])
		if err != nil || cap < 0 {
			return cli.NewConfigError("cap", fmt.Sprintf("%q is not a non-negative integer", args[0]))
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
		if err := service.SetOrgCap(ctx, cap); err != nil {
			return cli.NewCommandError("org set", err)
		}
		fmt.Printf("organization add-on cap set to %d\n", cap)
		return nil
	},
}

var orgClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the organization-wide cap",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		service, err := newGateway(cfg)
		if err != nil {
			return err
		}

		ctx := cli.SetupSignalHandler()
		if err := service.ClearOrgCap(ctx); err != nil {
			return cli.NewCommandError("org clear", err)
		}
		fmt.Println("organization add-on cap cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orgCmd)
	orgCmd.AddCommand(orgGetCmd)
	orgCmd.AddCommand(orgSetCmd)
	orgCmd.AddCommand(orgClearCmd)
}
