package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

func newDrugsCmd(g *globalOptions) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "drugs",
		Short: "List the drugs that can be analyzed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load()
			if err != nil {
				return err
			}

			if remote {
				drugs, err := a.client().SupportedDrugs(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, strings.Join(drugs, "\n"))
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DRUG\tPRIMARY GENE")
			for _, d := range domain.SupportedDrugs {
				fmt.Fprintf(tw, "%s\t%s\n", d, d.PrimaryGene())
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "ask the analysis service instead of the built-in list")
	return cmd
}

func newGenesCmd(g *globalOptions) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "genes",
		Short: "List the pharmacogenes covered by the analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load()
			if err != nil {
				return err
			}

			genes := domain.SupportedGenes()
			if remote {
				if genes, err = a.client().SupportedGenes(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintln(a.out, strings.Join(genes, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "ask the analysis service instead of the built-in list")
	return cmd
}

func newHealthCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the analysis service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load()
			if err != nil {
				return err
			}

			client := a.client()
			h, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s at %s: %s (%s)\n", h.Service, h.Version, client.BaseURL(), h.Status, h.Timestamp)
			return nil
		},
	}
}
