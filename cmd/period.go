package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/grebnev/analyzer"
)

type periodRemoveCmd struct {
	broker string
	state  string
	ops    string
}

func (*periodRemoveCmd) Name() string     { return "period-remove" }
func (*periodRemoveCmd) Synopsis() string { return "remove a reporting period" }
func (*periodRemoveCmd) Usage() string {
	return `anz period-remove -broker <broker> [-state <date>] [-ops <date>]

  Removes a broker's portfolio snapshot, operation snapshot or both for
  the given dates (YYYY-MM-DD). The report copies leave the archive
  with them. Removing a date that was never imported is a no-op.

Usage Examples:
$ anz period-remove -broker alpha -state 2024-03-31

`
}

func (c *periodRemoveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.broker, "broker", "", "Broker the period belongs to.")
	f.StringVar(&c.state, "state", "", "Date of the portfolio snapshot to remove.")
	f.StringVar(&c.ops, "ops", "", "Date of the operation snapshot to remove.")
}

func (c *periodRemoveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.broker == "" || (c.state == "" && c.ops == "") {
		fmt.Fprintf(os.Stderr, "Error: -broker and at least one of -state, -ops are required\n")
		return subcommands.ExitUsageError
	}
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.state != "" {
		on, err := analyzer.ParseDate(c.state)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -state date: %v\n", err)
			return subcommands.ExitUsageError
		}
		if err := m.RemovePortfolioPeriod(c.broker, on); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if c.ops != "" {
		on, err := analyzer.ParseDate(c.ops)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -ops date: %v\n", err)
			return subcommands.ExitUsageError
		}
		if err := m.RemoveOperationPeriod(c.broker, on); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	fmt.Printf("Period removed for broker %q\n", c.broker)
	return subcommands.ExitSuccess
}

type periodListCmd struct{}

func (*periodListCmd) Name() string     { return "periods" }
func (*periodListCmd) Synopsis() string { return "list imported reporting periods" }
func (*periodListCmd) Usage() string {
	return `anz periods

  Lists every imported period with its broker and source report.

`
}

func (c *periodListCmd) SetFlags(f *flag.FlagSet) {}

func (c *periodListCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	b.WriteString("| Date | Broker | Kind | Report |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, p := range m.State.Portfolios() {
		fmt.Fprintf(&b, "| %s | %s | state | %s |\n", p.Date, p.Broker, p.ReportName)
	}
	for _, o := range m.State.OperationStates() {
		fmt.Fprintf(&b, "| %s | %s | ops | %s |\n", o.Date, o.Broker, o.ReportName)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
