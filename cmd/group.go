package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type groupCmd struct {
	add    string
	remove string
}

func (*groupCmd) Name() string     { return "group" }
func (*groupCmd) Synopsis() string { return "manage target allocation groups" }
func (*groupCmd) Usage() string {
	return `anz group [-add <name>] [-remove <name>]

  Adds or removes allocation groups. Without flags, lists the groups
  and their entries. Removing a group removes all its entries.

Usage Examples:
$ anz group -add core

`
}

func (c *groupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.add, "add", "", "Group to add.")
	f.StringVar(&c.remove, "remove", "", "Group to remove.")
}

func (c *groupCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	switch {
	case c.add != "":
		if err := m.AddGroup(c.add); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Group %q added\n", c.add)
	case c.remove != "":
		if err := m.RemoveGroup(c.remove); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Group %q removed\n", c.remove)
	default:
		var b strings.Builder
		b.WriteString("| Group | Tag | Target % |\n")
		b.WriteString("|---|---|---|\n")
		for _, e := range m.State.GroupEntries() {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", e.Group, e.Tag, e.Target)
		}
		printMarkdown(b.String())
	}
	return subcommands.ExitSuccess
}

type groupEntryCmd struct {
	group  string
	tag    string
	target string
	set    bool
	remove bool
}

func (*groupEntryCmd) Name() string     { return "group-entry" }
func (*groupEntryCmd) Synopsis() string { return "manage one tag entry of a group" }
func (*groupEntryCmd) Usage() string {
	return `anz group-entry -group <name> -tag <tag> [-target <percent>] [-set] [-remove]

  Adds a tag with a target share to a group. With -set, updates the
  target of an existing entry; with -remove, removes the entry.

Usage Examples:
$ anz group-entry -group core -tag stock -target 60
$ anz group-entry -group core -tag stock -target 55 -set

`
}

func (c *groupEntryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.group, "group", "", "Group name.")
	f.StringVar(&c.tag, "tag", "", "Tag of the entry.")
	f.StringVar(&c.target, "target", "0", "Target share in percent.")
	f.BoolVar(&c.set, "set", false, "Update the target of an existing entry.")
	f.BoolVar(&c.remove, "remove", false, "Remove the entry instead.")
}

func (c *groupEntryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.group == "" || c.tag == "" {
		fmt.Fprintf(os.Stderr, "Error: -group and -tag are required\n")
		return subcommands.ExitUsageError
	}
	m, err := OpenManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	switch {
	case c.remove:
		err = m.RemoveGroupEntry(c.group, c.tag)
	default:
		target, perr := decimal.NewFromString(c.target)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -target: %v\n", perr)
			return subcommands.ExitUsageError
		}
		if c.set {
			err = m.SetGroupEntryTarget(c.group, c.tag, target)
		} else {
			err = m.AddGroupEntry(c.group, c.tag, target)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Group %q updated\n", c.group)
	return subcommands.ExitSuccess
}
