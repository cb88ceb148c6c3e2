package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tocbuilder/cmd/tocbuilder/commands"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("tocbuilder"),
		kong.Description("Build, validate and render documentation navigation trees"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
