// Capsync reconciles per-user add-on credit caps for a developer-tooling
// platform against the organization's actual usage.
//
// It parses a usage CSV export, computes the cap each user should have
// (org default for users within it, usage plus buffer for users beyond
// it), diffs those targets against the caps configured remotely, and
// applies only the changes that are needed.
//
// Usage:
//
//	# Preview what a usage export would change
//	capsync sync --csv usage.csv --dry-run
//
//	# Apply the computed caps
//	capsync sync --csv usage.csv
//
//	# Inspect or set the organization-wide cap
//	capsync org get
//	capsync org set 1000
//
//	# Manage a single user
//	capsync user get alice@example.com
//	capsync user set alice@example.com 2000
//	capsync user clear alice@example.com
//
//	# Find users whose cap differs from the org default
//	capsync audit
//
//	# Run continuously from a drop directory
//	capsync watch --dir /srv/usage-exports --schedule "0 3 * * *"
//
//	# Show past runs
//	capsync history
package main

func main() {
	Execute()
}
