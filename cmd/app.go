// Package cmd implements the CLI application to manage an investment archive.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/grebnev/analyzer"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&openCmd{}, "archive")
	c.Register(&queryCmd{}, "archive")

	c.Register(&brokerAddCmd{}, "brokers")
	c.Register(&brokerRemoveCmd{}, "brokers")
	c.Register(&brokerListCmd{}, "brokers")
	c.Register(&formatsCmd{}, "brokers")

	c.Register(&importStateCmd{}, "imports")
	c.Register(&importOpsCmd{}, "imports")
	c.Register(&periodRemoveCmd{}, "imports")
	c.Register(&periodListCmd{}, "imports")

	c.Register(&tagCmd{}, "tags")
	c.Register(&tagAssetCmd{}, "tags")
	c.Register(&groupCmd{}, "groups")
	c.Register(&groupEntryCmd{}, "groups")

	c.Register(&measurementsCmd{}, "reports")
	c.Register(&latestCmd{}, "reports")
	c.Register(&allocationCmd{}, "reports")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var archiveFile = flag.String("archive", "", "Path to the archive file. Defaults to the last opened one.")

// OpenManager initializes a manager against the selected archive: the
// -archive flag when given, the last opened archive otherwise.
func OpenManager() (*analyzer.Manager, error) {
	m := analyzer.NewManager()
	if *archiveFile != "" {
		if !m.Initialize(*archiveFile, false) {
			return nil, openError(m)
		}
		return m, nil
	}
	if !m.TryInitialize() {
		return nil, openError(m)
	}
	return m, nil
}

// reportLog dumps the manager's session log to stderr, so a failed
// operation explains itself.
func reportLog(m *analyzer.Manager) {
	for _, line := range m.Log.Lines() {
		fmt.Fprintln(os.Stderr, line)
	}
}

func openError(m *analyzer.Manager) error {
	lines := m.Log.Lines()
	if len(lines) == 0 {
		return fmt.Errorf("cannot open archive")
	}
	return fmt.Errorf("cannot open archive: %s", lines[len(lines)-1])
}
