package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "graphstore").
		WithSynopsis("graphstore [opts] command [opts]").
		WithDescription("graphstore inspects and maintains graph storage locations.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return gsMain(cfg, cc, args)
		}).
		WithSubs(
			InspectCommand(cfg),
			GetCommand(cfg),
			BlobsCommand(cfg),
			GCCommand(cfg),
			QueryCommand(cfg),
			DiffCommand(cfg))
}

func InspectCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &InspectConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Inspect, "inspect").
		WithAliases("i").
		WithSynopsis("inspect [-y] [-color] <dir>").
		WithDescription("print the structural snapshot of a location").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return inspect(cfg, cc, args)
		})
}

func GetCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &GetConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Get, "get").
		WithAliases("g").
		WithSynopsis("get <dir> <path>").
		WithDescription("print the node at a graph path, such as $.layers[0].name").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return get(cfg, cc, args)
		})
}

func BlobsCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &BlobsConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Blobs, "blobs").
		WithAliases("b").
		WithSynopsis("blobs [-verify] <dir>").
		WithDescription("list the blobs of a location").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return blobs(cfg, cc, args)
		})
}

func GCCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &GCConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.GC, "gc").
		WithSynopsis("gc [-n] <dir>").
		WithDescription("remove blobs the structural snapshot does not reference").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return gc(cfg, cc, args)
		})
}

func QueryCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &QueryConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Query, "query").
		WithAliases("q").
		WithSynopsis("query <dir> <expr>").
		WithDescription(queryDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return query(cfg, cc, args)
		})
}

const queryDescription = `query evaluates an expression over a snapshot.

The expression sees
  root     the snapshot root as plain values. Records are maps carrying
           their type under "__class__", blob references are
           {"__extern__": id}
  counter  the blob id counter
and the functions
  getpath(p)  the value at graph path p
  refs()      the referenced blob ids

Example:
  graphstore query loc 'len(root.layers) > 2'`

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("d").
		WithSynopsis("diff [-patch] <dir> <dir>").
		WithDescription("diff the structural snapshots of two locations").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}
