package main

import (
	"github.com/alecthomas/kong"
)

// CLI holds the global flags and the sub commands.
type CLI struct {
	Config   string `short:"c" help:"Config file" default:"conf/conf.toml" type:"path"`
	LogLevel string `short:"l" help:"Log level" default:"info" enum:"trace,debug,info,warn,error"`

	Import ImportCmd `cmd:"" help:"Import images as layers into an archive"`
	Export ExportCmd `cmd:"" help:"Export an archive to PNG"`
	Render RenderCmd `cmd:"" help:"Render a transformed view of an archive"`
	Thumb  ThumbCmd  `cmd:"" help:"Write a thumbnail of an archive"`
	Batch  BatchCmd  `cmd:"" help:"Export every archive in a directory"`
	Layers LayersCmd `cmd:"" help:"List or edit the layers of an archive"`
}

func parseFlags(args []string) (*CLI, *kong.Context, error) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("tilecanvas"),
		kong.Description("Tiled raster canvas tools."),
		kong.UsageOnError(),
	)
	if err != nil {
		return nil, nil, err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return nil, nil, err
	}
	return &cli, kctx, nil
}
