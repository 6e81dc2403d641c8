package main

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/signadot/graphstore"
	"github.com/signadot/graphstore/ir"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
)

// openLocation opens the blob store of an existing location and returns
// the ids its snapshot references.
func openLocation(cfg *MainConfig, dir string) (*graphstore.Location, map[string]bool, error) {
	if err := location(dir); err != nil {
		return nil, nil, err
	}
	snap, err := graphstore.ReadSnapshot(dir)
	if err != nil {
		return nil, nil, err
	}
	loc, err := graphstore.Open(dir, cfg.opts...)
	if err != nil {
		return nil, nil, err
	}
	refs := map[string]bool{}
	for _, id := range ir.ExternRefs(snap.Root) {
		refs[id] = true
	}
	loc.Store().SetCounter(snap.Counter)
	return loc, refs, nil
}

func blobs(cfg *BlobsConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Blobs.Parse(cc, args)
	if err != nil {
		cfg.Blobs.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: blobs requires a location, got %v", cli.ErrUsage, args)
	}
	loc, refs, err := openLocation(cfg.MainConfig, args[0])
	if err != nil {
		return err
	}
	infos, err := loc.Store().List()
	if err != nil {
		return err
	}
	colored := colorize(cfg.Color, cc.Out)
	warn, bad := fmt.Sprint, fmt.Sprint
	if colored {
		warn = color.New(color.FgYellow).Sprint
		bad = color.New(color.FgRed).Sprint
	}
	tw := tabwriter.NewWriter(cc.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDTYPE\tSHAPE\tBYTES\tSTATUS")
	failed := 0
	for _, info := range infos {
		status := "ok"
		if !refs[info.ID] {
			status = warn("unreferenced")
		}
		if cfg.Verify {
			if err := loc.Store().Verify(info.ID); err != nil {
				cfg.logger().Debug("verify failed", "id", info.ID, "error", err)
				status = bad("corrupt")
				failed++
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", info.ID, info.DType, shapeString(info.Shape), info.Size, status)
	}
	for _, id := range slices.Sorted(maps.Keys(refs)) {
		if _, err := loc.Store().Stat(id); err != nil {
			fmt.Fprintf(tw, "%s\t\t\t\t%s\n", id, bad("missing"))
			failed++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed != 0 {
		return fmt.Errorf("%d blobs missing or corrupt", failed)
	}
	return nil
}

func shapeString(s []int) string {
	parts := make([]string, len(s))
	for i, n := range s {
		parts[i] = strconv.Itoa(n)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func gc(cfg *GCConfig, cc *cli.Context, args []string) error {
	args, err := cfg.GC.Parse(cc, args)
	if err != nil {
		cfg.GC.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: gc requires a location, got %v", cli.ErrUsage, args)
	}
	loc, refs, err := openLocation(cfg.MainConfig, args[0])
	if err != nil {
		return err
	}
	store := loc.Store()
	if cfg.DryRun {
		ids, err := store.IDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			if !refs[id] {
				fmt.Fprintln(cc.Out, filepath.Join(store.Root(), id+".blob"))
			}
		}
		return nil
	}
	store.Begin()
	for id := range refs {
		store.Mark(id)
	}
	removed, err := store.CollectGarbage()
	for _, id := range removed {
		fmt.Fprintln(cc.Out, id)
	}
	cfg.logger().Info("collected", "location", args[0], "removed", len(removed))
	return err
}
