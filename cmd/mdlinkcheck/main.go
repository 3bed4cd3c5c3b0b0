package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdlinkcheck/cmd/mdlinkcheck/commands"
	"git.home.luguber.info/inful/mdlinkcheck/internal/config"
	"git.home.luguber.info/inful/mdlinkcheck/internal/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name(config.AppName),
		kong.Description("Find broken links in Markdown documentation."),
		kong.Vars{"version": version.String()},
	)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(10)
	}

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.Errorf("%s", err)
		os.Exit(errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(errors.ValidationFailed("arguments", err.Error())))
	}

	global := &commands.Global{Logger: slog.Default(), Out: os.Stdout}
	err = ctx.Run(global, cli)
	os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err))
}
