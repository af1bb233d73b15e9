package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/grebnev/analyzer"
	"github.com/grebnev/analyzer/importer"
)

type brokerAddCmd struct {
	name      string
	stateFmt  string
	opsFormat string
}

func (*brokerAddCmd) Name() string     { return "broker-add" }
func (*brokerAddCmd) Synopsis() string { return "register a broker and its report formats" }
func (*brokerAddCmd) Usage() string {
	return `anz broker-add -name <broker> -state <format> -ops <format>

  Registers a broker. The state format decodes its portfolio reports,
  the ops format its cash-flow reports. See 'anz formats' for the list.

Usage Examples:
$ anz broker-add -name alpha -state broker-xml -ops broker-ops-xml

`
}

func (c *brokerAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Broker name.")
	f.StringVar(&c.stateFmt, "state", "", "Portfolio report format.")
	f.StringVar(&c.opsFormat, "ops", "", "Operations report format.")
}

func (c *brokerAddCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintf(os.Stderr, "Error: -name is required\n")
		return subcommands.ExitUsageError
	}
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	broker := analyzer.Broker{Name: c.name, StateFormat: c.stateFmt, OperationsFormat: c.opsFormat}
	if err := m.AddBroker(broker); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Broker %q registered\n", c.name)
	return subcommands.ExitSuccess
}

type brokerRemoveCmd struct {
	name string
}

func (*brokerRemoveCmd) Name() string     { return "broker-remove" }
func (*brokerRemoveCmd) Synopsis() string { return "remove a broker and all its periods" }
func (*brokerRemoveCmd) Usage() string {
	return `anz broker-remove -name <broker>

  Removes a broker. Every one of its periods and every report it
  contributed to the archive is removed as well.

`
}

func (c *brokerRemoveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Broker name.")
}

func (c *brokerRemoveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintf(os.Stderr, "Error: -name is required\n")
		return subcommands.ExitUsageError
	}
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := m.RemoveBroker(c.name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Broker %q removed\n", c.name)
	return subcommands.ExitSuccess
}

type brokerListCmd struct{}

func (*brokerListCmd) Name() string     { return "brokers" }
func (*brokerListCmd) Synopsis() string { return "list registered brokers" }
func (*brokerListCmd) Usage() string {
	return `anz brokers

  Lists registered brokers with their report formats.

`
}

func (c *brokerListCmd) SetFlags(f *flag.FlagSet) {}

func (c *brokerListCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	b.WriteString("| Broker | State format | Operations format |\n")
	b.WriteString("|---|---|---|\n")
	for _, broker := range m.State.Brokers() {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", broker.Name, broker.StateFormat, broker.OperationsFormat)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type formatsCmd struct{}

func (*formatsCmd) Name() string     { return "formats" }
func (*formatsCmd) Synopsis() string { return "list built-in report decoders" }
func (*formatsCmd) Usage() string {
	return `anz formats

  Lists the report formats a broker can be registered with.

`
}

func (c *formatsCmd) SetFlags(f *flag.FlagSet) {}

func (c *formatsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var b strings.Builder
	b.WriteString("# Report formats\n\n")
	b.WriteString("State formats:\n\n")
	for _, id := range importer.StateFormats() {
		fmt.Fprintf(&b, "* %s\n", id)
	}
	b.WriteString("\nOperations formats:\n\n")
	for _, id := range importer.OperationsFormats() {
		fmt.Fprintf(&b, "* %s\n", id)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
