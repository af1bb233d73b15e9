package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type importStateCmd struct {
	broker string
}

func (*importStateCmd) Name() string     { return "import-state" }
func (*importStateCmd) Synopsis() string { return "import portfolio reports for a broker" }
func (*importStateCmd) Usage() string {
	return `anz import-state -broker <broker> <report>...

  Copies each report into the archive and registers it as a portfolio
  snapshot. A failed report is rolled back without affecting the
  others.

Usage Examples:
$ anz import-state -broker alpha 2024-03-31.xml 2024-04-30.xml

`
}

func (c *importStateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.broker, "broker", "", "Broker the reports belong to.")
}

func (c *importStateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.broker == "" || f.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: -broker and at least one report path are required\n")
		return subcommands.ExitUsageError
	}
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if !m.ImportPortfolioPeriods(c.broker, f.Args()) {
		reportLog(m)
		return subcommands.ExitFailure
	}
	fmt.Printf("Imported %d report(s) for broker %q\n", f.NArg(), c.broker)
	return subcommands.ExitSuccess
}

type importOpsCmd struct {
	broker string
}

func (*importOpsCmd) Name() string     { return "import-ops" }
func (*importOpsCmd) Synopsis() string { return "import operation reports for a broker" }
func (*importOpsCmd) Usage() string {
	return `anz import-ops -broker <broker> <report>...

  Copies each cash-flow report into the archive and registers it as an
  operation snapshot.

`
}

func (c *importOpsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.broker, "broker", "", "Broker the reports belong to.")
}

func (c *importOpsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.broker == "" || f.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: -broker and at least one report path are required\n")
		return subcommands.ExitUsageError
	}
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if !m.ImportOperationPeriods(c.broker, f.Args()) {
		reportLog(m)
		return subcommands.ExitFailure
	}
	fmt.Printf("Imported %d report(s) for broker %q\n", f.NArg(), c.broker)
	return subcommands.ExitSuccess
}
