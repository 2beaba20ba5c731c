package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by -o.
const (
	formatTable = "table"
	formatText  = "text"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTOML  = "toml"
)

// ErrUnknownFormat is returned for an unsupported -o value.
var ErrUnknownFormat = errors.New("unknown output format")

func checkFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}

	return errors.Wrapf(ErrUnknownFormat, "%q (expected one of %v)", format, allowed)
}

// encode writes v as JSON, YAML or TOML.
func encode(w io.Writer, format string, v any) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case formatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case formatYAML:
		data, err = yaml.Marshal(v)
	case formatTOML:
		data, err = toml.Marshal(v)
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}

	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", format)
	}

	_, err = w.Write(data)

	return errors.Wrap(err, "failed to write output")
}

// renderTable writes a rounded table.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	t := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleRounded),
		})),
		tablewriter.WithPadding(tw.Padding{Left: " ", Right: " "}),
	)

	t.Header(header)

	for _, row := range rows {
		if err := t.Append(row); err != nil {
			return errors.Wrap(err, "failed to append row")
		}
	}

	if err := t.Render(); err != nil {
		return errors.Wrap(err, "failed to render table")
	}

	return nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
