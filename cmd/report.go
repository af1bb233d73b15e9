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

type measurementsCmd struct{}

func (*measurementsCmd) Name() string     { return "measurements" }
func (*measurementsCmd) Synopsis() string { return "portfolio worth over time vs invested funds" }
func (*measurementsCmd) Usage() string {
	return `anz measurements

  Prints one line per reporting date: the total worth of the entries
  reported on that date next to the funds moved in and out up to that
  date, both in the home currency.

`
}

func (c *measurementsCmd) SetFlags(f *flag.FlagSet) {}

func (c *measurementsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	measurements, err := m.AssetPriceMeasurements()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	b.WriteString("| Date | Total worth | Invested funds |\n")
	b.WriteString("|---|---|---|\n")
	for _, mm := range measurements {
		fmt.Fprintf(&b, "| %s | %s | %s |\n",
			mm.Date,
			analyzer.M(mm.TotalPrice, m.HomeCurrency),
			analyzer.M(mm.CumulativeFunds, m.HomeCurrency))
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type latestCmd struct{}

func (*latestCmd) Name() string     { return "latest" }
func (*latestCmd) Synopsis() string { return "aggregate of each broker's most recent snapshot" }
func (*latestCmd) Usage() string {
	return `anz latest

  Prints the entries of each broker's most recent reporting date and
  the total worth in the home currency.

`
}

func (c *latestCmd) SetFlags(f *flag.FlagSet) {}

func (c *latestCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	latest, err := m.LatestPortfolio()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	b.WriteString("| Broker | Date | Name | ISIN | Quantity | Value |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, e := range latest.Entries {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			e.Broker, e.Date, e.Name, e.ISIN, e.Quantity, analyzer.M(e.TotalPrice, e.Currency))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", analyzer.M(latest.Total, m.HomeCurrency))
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type allocationCmd struct {
	group string
}

func (*allocationCmd) Name() string     { return "allocation" }
func (*allocationCmd) Synopsis() string { return "actual vs target allocation of a group" }
func (*allocationCmd) Usage() string {
	return `anz allocation -group <name>

  Values every tag of a group against the latest portfolio and compares
  the actual share with the target. A positive deviation reads as
  overweight.

Usage Examples:
$ anz allocation -group core

`
}

func (c *allocationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.group, "group", "", "Group to report on.")
}

func (c *allocationCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.group == "" {
		fmt.Fprintf(os.Stderr, "Error: -group is required\n")
		return subcommands.ExitUsageError
	}
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	lines, err := m.GroupAllocation(c.group)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Allocation %q\n\n", c.group)
	b.WriteString("| Tag | Value | Actual % | Target % | Deviation | Assets |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d |\n",
			l.Tag, analyzer.M(l.Value, m.HomeCurrency), l.Actual, l.Target, l.Deviation, l.Assets)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
