package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/grebnev/analyzer/cmd"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// Shell completion: a no-op outside of a completion invocation.
	completion := &complete.Command{
		Flags: map[string]complete.Predictor{
			"archive": predict.Files("*.zip"),
		},
		Sub: map[string]*complete.Command{
			"open":          {Flags: map[string]complete.Predictor{"create": predict.Nothing}},
			"query":         {},
			"broker-add":    {},
			"broker-remove": {},
			"brokers":       {},
			"formats":       {},
			"import-state":  {Args: predict.Files("*")},
			"import-ops":    {Args: predict.Files("*")},
			"period-remove": {},
			"periods":       {},
			"tag":           {},
			"tag-asset":     {},
			"group":         {},
			"group-entry":   {},
			"measurements":  {},
			"latest":        {},
			"allocation":    {},
			"topic":         {},
		},
	}
	completion.Complete("anz")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
