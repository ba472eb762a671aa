package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validFormat(f string) error {
	switch f {
	case formatTable, formatJSON, formatYAML:
		return nil
	}

	return fmt.Errorf("%w: output format %q, want table, json or yaml", shareerr.ErrInvalidInput, f)
}

// render writes v in the selected format. table prints the human form
// and is only called for the table format.
func (a *app) render(v any, table func(w io.Writer)) error {
	switch a.format {
	case formatJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	table(tw)

	return tw.Flush()
}
