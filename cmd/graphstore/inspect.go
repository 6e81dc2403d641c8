package main

import (
	"fmt"
	"io"

	"github.com/signadot/graphstore"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/lexer"
	"github.com/goccy/go-yaml/printer"
	"github.com/scott-cotton/cli"
)

func inspect(cfg *InspectConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Inspect.Parse(cc, args)
	if err != nil {
		cfg.Inspect.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: inspect requires a location, got %v", cli.ErrUsage, args)
	}
	snap, err := graphstore.ReadSnapshot(args[0])
	if err != nil {
		return err
	}
	d, err := snap.Encode()
	if err != nil {
		return err
	}
	return output(cc.Out, d, cfg.Y, colorize(cfg.Color, cc.Out))
}

// output writes the json document d, converted to yaml if asked.
func output(w io.Writer, d []byte, asYAML, colored bool) error {
	if asYAML {
		y, err := yaml.JSONToYAML(d)
		if err != nil {
			return err
		}
		d = y
	}
	if len(d) == 0 || d[len(d)-1] != '\n' {
		d = append(d, '\n')
	}
	if colored {
		_, err := io.WriteString(w, colorText(string(d)))
		return err
	}
	_, err := w.Write(d)
	return err
}

func colorProp(attr color.Attribute) printer.PrintFunc {
	return func() *printer.Property {
		return &printer.Property{
			Prefix: fmt.Sprintf("\x1b[%dm", attr),
			Suffix: fmt.Sprintf("\x1b[%dm", color.Reset),
		}
	}
}

// colorText highlights json or yaml text. Json is tokenized as a yaml
// flow document.
func colorText(src string) string {
	p := printer.Printer{
		MapKey: colorProp(color.FgHiCyan),
		Anchor: colorProp(color.FgHiYellow),
		Alias:  colorProp(color.FgHiYellow),
		Bool:   colorProp(color.FgHiMagenta),
		String: colorProp(color.FgHiGreen),
		Number: colorProp(color.FgHiMagenta),
	}
	return p.PrintTokens(lexer.Tokenize(src))
}
