package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/grebnev/analyzer"
)

type openCmd struct {
	create bool
}

func (*openCmd) Name() string     { return "open" }
func (*openCmd) Synopsis() string { return "open an archive and make it the default one" }
func (*openCmd) Usage() string {
	return `anz open [-create] <archive.zip>

  Opens an archive and remembers it, so subsequent commands need no
  path. With -create, a missing archive is created empty.

Usage Examples:
$ anz open -create portfolio.zip

`
}

func (c *openCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.create, "create", false, "Create the archive when it does not exist.")
}

func (c *openCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one archive path\n")
		return subcommands.ExitUsageError
	}
	m := analyzer.NewManager()
	if !m.Initialize(f.Arg(0), c.create) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", openError(m))
		return subcommands.ExitFailure
	}
	fmt.Printf("Opened %q: %d brokers, %d periods\n", f.Arg(0), len(m.State.Brokers()), len(m.State.Periods()))
	return subcommands.ExitSuccess
}
