package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type tagCmd struct {
	add    string
	remove string
}

func (*tagCmd) Name() string     { return "tag" }
func (*tagCmd) Synopsis() string { return "manage the global tag list" }
func (*tagCmd) Usage() string {
	return `anz tag [-add <tag>] [-remove <tag>]

  Adds or removes tags from the global list. Without flags, lists the
  known tags. Removing a tag keeps existing asset assignments.

Usage Examples:
$ anz tag -add stock
$ anz tag

`
}

func (c *tagCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.add, "add", "", "Tag to add.")
	f.StringVar(&c.remove, "remove", "", "Tag to remove.")
}

func (c *tagCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	switch {
	case c.add != "":
		if err := m.AddTag(c.add); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Tag %q added\n", c.add)
	case c.remove != "":
		if err := m.RemoveTag(c.remove); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Tag %q removed\n", c.remove)
	default:
		var b strings.Builder
		b.WriteString("# Tags\n\n")
		for _, tag := range m.State.Tags() {
			fmt.Fprintf(&b, "* %s\n", tag)
		}
		printMarkdown(b.String())
	}
	return subcommands.ExitSuccess
}

type tagAssetCmd struct {
	isin   string
	tag    string
	remove bool
}

func (*tagAssetCmd) Name() string     { return "tag-asset" }
func (*tagAssetCmd) Synopsis() string { return "assign or unassign a tag on an instrument" }
func (*tagAssetCmd) Usage() string {
	return `anz tag-asset -isin <isin> -tag <tag> [-remove]

  Assigns a tag to an instrument, or removes the assignment with
  -remove. Assignments are keyed by ISIN and survive report removal.

Usage Examples:
$ anz tag-asset -isin US0378331005 -tag stock

`
}

func (c *tagAssetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.isin, "isin", "", "Instrument ISIN.")
	f.StringVar(&c.tag, "tag", "", "Tag to assign.")
	f.BoolVar(&c.remove, "remove", false, "Remove the assignment instead.")
}

func (c *tagAssetCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.isin == "" || c.tag == "" {
		fmt.Fprintf(os.Stderr, "Error: -isin and -tag are required\n")
		return subcommands.ExitUsageError
	}
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.remove {
		err = m.RemoveAssetTag(c.isin, c.tag)
	} else {
		err = m.AddAssetTag(c.isin, c.tag)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Tags of %s updated\n", c.isin)
	return subcommands.ExitSuccess
}
