/*
Package cli provides command-line utilities for the capsync command.

The package includes output formatters, a progress reporter for
per-user network loops, and signal handling helpers.

Output Formatting:

Command results render as text tables by default and as JSON with
--output json:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, summary); err != nil {
		return err
	}

Signal Handling:

For cancelling long runs on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Pass ctx to gateway-bound operations
*/
package cli
