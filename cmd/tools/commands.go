package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lychee-technology/legacybridge"
	"github.com/lychee-technology/legacybridge/internal"
	"github.com/spf13/cobra"
)

func (c *cli) newTranslateCmd() *cobra.Command {
	var table, query string
	cmd := &cobra.Command{
		Use:     "translate [query]",
		Short:   "Rewrite an application query into legacy names",
		Example: `  legacybridge-tools translate --table users "SELECT id, email FROM users WHERE id = 1"`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" && len(args) == 1 {
				query = args[0]
			}
			if query == "" {
				return errors.New("a query is required")
			}

			adapter, release, err := c.adapter(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			fmt.Fprintln(cmd.OutOrStdout(), adapter.PrepareQuery(table, query))
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "application table name")
	cmd.Flags().StringVarP(&query, "query", "q", "", "query text")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func (c *cli) newProjectCmd() *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Rename legacy columns of JSON rows read from stdin",
		Example: `  echo '[{"id_usuario": 1, "correo_electronico": "a@b.com"}]' | \
    legacybridge-tools project --table users`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(cmd.InOrStdin())
			if err != nil {
				return err
			}

			adapter, release, err := c.adapter(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			return writeJSON(cmd.OutOrStdout(), adapter.ProjectResults(table, rows))
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "application table name")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

type tableView struct {
	Application string                    `json:"application"`
	Legacy      string                    `json:"legacy"`
	Aliased     bool                      `json:"aliased"`
	Fields      []legacybridge.FieldAlias `json:"fields"`
}

type inspectView struct {
	Source      string                 `json:"source"`
	Tables      []tableView            `json:"tables"`
	Diagnostics []legacybridge.Finding `json:"diagnostics"`
}

func (c *cli) newInspectCmd() *cobra.Command {
	var (
		table  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the tables, field aliases and diagnostics of the mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, release, err := c.adapter(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			view := buildInspectView(c.config.Mapping.Source, adapter.Registry(), table)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			printInspectView(cmd.OutOrStdout(), view)
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "only show this application table")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func buildInspectView(source string, registry legacybridge.SchemaRegistry, only string) inspectView {
	view := inspectView{Source: source, Tables: []tableView{}, Diagnostics: []legacybridge.Finding{}}
	for _, name := range registry.ListTables() {
		if only != "" && name != only {
			continue
		}
		legacy, aliased := registry.TableAlias(name)
		if !aliased {
			legacy = name
		}
		view.Tables = append(view.Tables, tableView{
			Application: name,
			Legacy:      legacy,
			Aliased:     aliased,
			Fields:      registry.FieldMap(name).Entries(),
		})
	}
	for _, finding := range registry.Diagnostics() {
		if only != "" && finding.Table != only {
			continue
		}
		view.Diagnostics = append(view.Diagnostics, finding)
	}
	return view
}

func printInspectView(w io.Writer, view inspectView) {
	fmt.Fprintf(w, "source: %s\n", view.Source)
	for _, table := range view.Tables {
		suffix := ""
		if !table.Aliased {
			suffix = " (no table alias)"
		}
		fmt.Fprintf(w, "%s -> %s%s\n", table.Application, table.Legacy, suffix)
		for _, field := range table.Fields {
			fmt.Fprintf(w, "  %s -> %s\n", field.Application, field.Legacy)
		}
	}
	if len(view.Diagnostics) == 0 {
		return
	}
	fmt.Fprintln(w, "diagnostics:")
	printFindings(w, view.Diagnostics)
}

func printFindings(w io.Writer, findings []legacybridge.Finding) {
	for _, f := range findings {
		location := f.Table
		if f.Field != "" {
			location += "." + f.Field
		}
		fmt.Fprintf(w, "  %s %s: %s\n", f.Kind, location, f.Detail)
	}
}

func (c *cli) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check mapping documents against the document schema and registry rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				registry, err := validateFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s: invalid: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "%s: ok (%d tables, %d findings)\n", path, len(registry.ListTables()), len(registry.Diagnostics()))
				printFindings(out, registry.Diagnostics())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func validateFile(path string) (legacybridge.SchemaRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := internal.ParseMappingDocument(data)
	if err != nil {
		return nil, err
	}
	return internal.NewSchemaRegistryFromDocument(doc)
}

// readRows decodes a JSON array of objects. Numbers keep their original text.
func readRows(r io.Reader) ([]legacybridge.Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	rows := make([]legacybridge.Row, len(raw))
	for i, row := range raw {
		rows[i] = row
	}
	return rows, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
