package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"windreef/capsync/pkg/cli"
	"windreef/capsync/pkg/gateway"
)

var auditFlags struct {
	reset bool
}

// auditFetchChunk bounds how many users are resolved between progress
// updates.
const auditFetchChunk = 20

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Find users whose cap differs from the organization default",
	Long: `List every user whose individual add-on cap differs from the
organization-wide default.

With --reset, the individual caps of all drifted users are cleared so
they inherit the organization default again.`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().BoolVar(&auditFlags.reset, "reset", false, "clear the individual caps of all drifted users")
}

// driftEntry is one user whose cap differs from the org default.
type driftEntry struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email"`
	Cap    int    `json:"cap"`
	OrgCap *int   `json:"org_cap"`
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	service, err := newGateway(cfg)
	if err != nil {
		return err
	}

	ctx := cli.SetupSignalHandler()

	orgCap, err := service.FetchOrgCap(ctx)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}

	users, err := service.ListUsers(ctx)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	if len(users) == 0 {
		fmt.Println("no users found")
		return nil
	}

	names := make(map[string]string, len(users))
	emails := make([]string, 0, len(users))
	for _, user := range users {
		if user.Email == "" {
			continue
		}
		names[user.Email] = user.Name
		emails = append(emails, user.Email)
	}

	// Resolve caps in chunks so the progress bar moves; each user is
	// one API call behind the gateway.
	states := make(map[string]gateway.CapState, len(emails))
	progress := cli.NewProgressReporter(nil)
	progress.Start(int64(len(emails)))
	for start := 0; start < len(emails); start += auditFetchChunk {
		end := start + auditFetchChunk
		if end > len(emails) {
			end = len(emails)
		}
		chunk, err := service.FetchCurrentCaps(ctx, emails[start:end])
		if err != nil {
			return cli.NewCommandError("audit", err)
		}
		for email, state := range chunk {
			states[email] = state
		}
		progress.Update(int64(end))
	}
	progress.Finish()

	var drifted []driftEntry
	for _, email := range emails {
		state, ok := states[email]
		if !ok || state.Cap == nil {
			// No individual cap: the user already inherits the default.
			continue
		}
		if orgCap != nil && *state.Cap == *orgCap {
			continue
		}
		drifted = append(drifted, driftEntry{
			Name:   names[email],
			Email:  email,
			Cap:    *state.Cap,
			OrgCap: orgCap,
		})
	}

	if len(drifted) == 0 {
		fmt.Println("all users are on the organization default cap")
		return nil
	}

	if outputFormat == "json" {
		if err := formatter().FormatTo(os.Stdout, drifted); err != nil {
			return err
		}
	} else {
		orgLabel := "not set"
		if orgCap != nil {
			orgLabel = fmt.Sprintf("%d", *orgCap)
		}
		fmt.Printf("organization default: %s\n\n", orgLabel)

		table := cli.NewTable(os.Stdout)
		table.Row("EMAIL", "NAME", "CAP")
		for _, entry := range drifted {
			table.Row(entry.Email, entry.Name, entry.Cap)
		}
		if err := table.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d of %d users have a custom cap\n", len(drifted), len(emails))
	}

	if !auditFlags.reset {
		return nil
	}

	cleared := 0
	failed := 0
	for _, entry := range drifted {
		if err := service.ClearUserCap(ctx, entry.Email); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "failed to clear cap for %s: %v\n", entry.Email, err)
			continue
		}
		cleared++
	}
	fmt.Printf("cleared %d caps", cleared)
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println()

	if failed > 0 {
		return fmt.Errorf("failed to clear %d of %d caps", failed, len(drifted))
	}
	return nil
}
