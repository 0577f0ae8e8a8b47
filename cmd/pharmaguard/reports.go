package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pharma-guard/pharmaguard/internal/archive"
	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/render"
	"github.com/pharma-guard/pharmaguard/internal/report"
)

func newReportsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect reports kept in the configured archive",
	}

	cmd.AddCommand(
		newReportsListCmd(g),
		newReportsShowCmd(g),
		newReportsDeleteCmd(g),
		newReportsExportCmd(g),
	)
	return cmd
}

// withStore opens the archive for the duration of fn.
func withStore(cmd *cobra.Command, g *globalOptions, fn func(*app, archive.Store) error) error {
	a, err := g.load()
	if err != nil {
		return err
	}
	store, err := archive.Open(cmd.Context(), a.config, a.logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(a, store)
}

func newReportsListCmd(g *globalOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, g, func(a *app, store archive.Store) error {
				reports, err := store.List(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}
				total, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tFILE\tDRUGS")
				for _, r := range reports {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.FileName,
						strings.ReplaceAll(domain.JoinDrugs(r.Drugs), ",", ", "))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%d of %d report(s)\n", len(reports), total)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of reports")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of reports to skip")
	return cmd
}

func newReportsShowCmd(g *globalOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [report-id]",
		Short: "Render an archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, g, func(a *app, store archive.Store) error {
				rep, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if raw {
					if err := report.WriteJSON(a.out, rep); err != nil {
						return err
					}
					fmt.Fprintln(a.out)
					return nil
				}
				return render.NewTerminal(a.out).Render(rep.Results)
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the pretty-printed JSON instead of cards")
	return cmd
}

func newReportsDeleteCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [report-id]",
		Short: "Remove a report from the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, g, func(a *app, store archive.Store) error {
				return store.Delete(cmd.Context(), args[0])
			})
		},
	}
}

func newReportsExportCmd(g *globalOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every archived report as one JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, g, func(a *app, store archive.Store) error {
				if out == "" || out == "-" {
					return store.ExportJSON(cmd.Context(), a.out)
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating export file: %w", err)
				}
				if err := store.ExportJSON(cmd.Context(), f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "-", "destination file, - for stdout")
	return cmd
}
