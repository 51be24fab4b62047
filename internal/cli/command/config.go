package command

import (
	"reflect"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stmkit/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return err
	}
	if e.format != output.FormatTable {
		return e.render(c.App.Writer, e.cfg)
	}
	t := output.NewTable("KEY", "VALUE")
	flattenInto(t, "", reflect.ValueOf(*e.cfg))
	return t.Render(c.App.Writer)
}

// flattenInto adds one row per leaf field of v, keyed by the dotted koanf
// path.
func flattenInto(t *output.Table, prefix string, v reflect.Value) {
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if fv := v.Field(i); fv.Kind() == reflect.Struct {
			flattenInto(t, key, fv)
		} else {
			t.AddRow(key, fv.Interface())
		}
	}
}
