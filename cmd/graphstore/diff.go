package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/signadot/graphstore"
	"github.com/signadot/graphstore/ir"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 locations, got %v", cli.ErrUsage, args)
	}
	a, err := snapshotJSON(args[0])
	if err != nil {
		return err
	}
	b, err := snapshotJSON(args[1])
	if err != nil {
		return err
	}
	var differs bool
	if cfg.Patch {
		differs, err = mergePatch(cc.Out, a, b)
	} else {
		differs, err = lineDiff(cc.Out, string(a), string(b), colorize(cfg.Color, cc.Out))
	}
	if err != nil {
		return err
	}
	if differs {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func snapshotJSON(dir string) ([]byte, error) {
	snap, err := graphstore.ReadSnapshot(dir)
	if err != nil {
		return nil, err
	}
	d, err := ir.Marshal(snap.Root)
	if err != nil {
		return nil, fmt.Errorf("error encoding %s: %w", dir, err)
	}
	return d, nil
}

func mergePatch(w io.Writer, a, b []byte) (bool, error) {
	p, err := jsonpatch.CreateMergePatch(a, b)
	if err != nil {
		return false, fmt.Errorf("error creating merge patch: %w", err)
	}
	if string(p) == "{}" {
		return false, nil
	}
	_, err = fmt.Fprintf(w, "%s\n", p)
	return true, err
}

func lineDiff(w io.Writer, a, b string, colored bool) (bool, error) {
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	add, del := fmt.Sprint, fmt.Sprint
	if colored {
		add = color.New(color.FgGreen).Sprint
		del = color.New(color.FgRed).Sprint
	}
	differs := false
	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		paint := fmt.Sprint
		switch d.Type {
		case diffpatch.DiffInsert:
			prefix, paint, differs = "+ ", add, true
		case diffpatch.DiffDelete:
			prefix, paint, differs = "- ", del, true
		default:
			prefix = "  "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			sb.WriteString(paint(prefix + line))
		}
	}
	if !differs {
		return false, nil
	}
	_, err := io.WriteString(w, sb.String())
	return true, err
}
