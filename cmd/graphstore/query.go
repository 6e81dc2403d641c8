package main

import (
	"encoding/json"
	"fmt"

	"github.com/signadot/graphstore"
	"github.com/signadot/graphstore/ir"

	"github.com/expr-lang/expr"
	"github.com/scott-cotton/cli"
)

func query(cfg *QueryConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Query.Parse(cc, args)
	if err != nil {
		cfg.Query.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: query requires a location and an expression, got %v", cli.ErrUsage, args)
	}
	snap, err := graphstore.ReadSnapshot(args[0])
	if err != nil {
		return err
	}
	env := map[string]any{
		"root":    plain(snap.Root),
		"counter": snap.Counter,
	}
	prg, err := expr.Compile(args[1], append(exprOpts(snap.Root), expr.Env(env))...)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	res, err := expr.Run(prg, env)
	if err != nil {
		return err
	}
	d, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return output(cc.Out, d, cfg.Y, false)
}

func exprOpts(root *ir.Node) []expr.Option {
	return []expr.Option{
		expr.Function("getpath", func(params ...any) (any, error) {
			p, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("getpath: expected a path string, got %T", params[0])
			}
			y, err := root.GetPath(p)
			if err != nil {
				return nil, err
			}
			return plain(y), nil
		}, new(func(string) any)),
		expr.Function("refs", func(params ...any) (any, error) {
			return ir.ExternRefs(root), nil
		}, new(func() []string)),
	}
}

// plain converts a node to maps, slices and primitives.
func plain(y *ir.Node) any {
	if y == nil {
		return nil
	}
	switch y.Type {
	case ir.NullType:
		return nil
	case ir.BoolType:
		return y.Bool
	case ir.StringType:
		return y.String
	case ir.NumberType:
		if y.Int64 != nil {
			return *y.Int64
		}
		if y.Uint64 != nil {
			return *y.Uint64
		}
		if y.Float64 != nil {
			return *y.Float64
		}
		return nil
	case ir.ArrayType:
		res := make([]any, len(y.Values))
		for i, v := range y.Values {
			res[i] = plain(v)
		}
		return res
	case ir.ExternType:
		return map[string]any{"__extern__": y.String}
	case ir.InlineArrayType:
		data := make([]any, len(y.Values))
		for i, v := range y.Values {
			data[i] = plain(v)
		}
		class := y.Tag
		if class == "" {
			class = ir.InlineArrayClass
		}
		return map[string]any{
			ir.ClassKey: class,
			"dtype":     y.DType,
			"shape":     y.Shape,
			"data":      data,
		}
	}
	res := make(map[string]any, len(y.Fields)+1)
	for i, f := range y.Fields {
		res[f] = plain(y.Values[i])
	}
	if y.Tag != "" {
		res[ir.ClassKey] = y.Tag
	}
	return res
}
