package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/clomonitor/cmd/clomonitor/commands"
	"git.home.luguber.info/inful/clomonitor/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("clomonitor"),
		kong.Description("Monitors the health of open source project repositories: "+
			"registers projects from foundation catalogues, lints their repositories "+
			"against the check catalogue, scores and rates them, and serves the results."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
