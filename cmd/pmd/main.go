package main

import (
	"github.com/alecthomas/kong"

	"github.com/vitaminmoo/pmd/internal/cli"
)

func main() {
	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("pmd"),
		kong.Description("Pluggable module daemon: identifies SFP+/QSFP+/QSFP28 modules and monitors their diagnostics."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&c))
}
