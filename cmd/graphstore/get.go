package main

import (
	"fmt"

	"github.com/signadot/graphstore"
	"github.com/signadot/graphstore/ir"

	"github.com/scott-cotton/cli"
)

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		cfg.Get.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: get requires a location and a path, got %v", cli.ErrUsage, args)
	}
	path := args[1]
	if path == "" {
		return fmt.Errorf("%w: invalid path \"\"", cli.ErrUsage)
	}
	if path[0] != '$' {
		path = "$" + path
	}
	snap, err := graphstore.ReadSnapshot(args[0])
	if err != nil {
		return err
	}
	y, err := snap.Root.GetPath(path)
	if err != nil {
		return err
	}
	if y == nil {
		return fmt.Errorf("nothing at %s", path)
	}
	d, err := ir.Marshal(y)
	if err != nil {
		return err
	}
	return output(cc.Out, d, cfg.Y, false)
}
