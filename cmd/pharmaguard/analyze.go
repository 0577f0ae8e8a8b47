package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pharma-guard/pharmaguard/internal/archive"
	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/render"
	"github.com/pharma-guard/pharmaguard/internal/report"
	"github.com/pharma-guard/pharmaguard/internal/session"
	"github.com/pharma-guard/pharmaguard/internal/validator"
)

type analyzeOptions struct {
	vcfPath  string
	drugList string
	drugs    []string
	out      string
	xlsx     string
	copy     bool
	raw      bool
	save     bool
	width    int
}

func newAnalyzeCmd(g *globalOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a VCF file for the selected drugs",
		Long: `Upload a VCF file and a drug selection to the analysis service and print
one card per drug, in the order the service returns them.

Supported drugs: CODEINE, WARFARIN, CLOPIDOGREL, SIMVASTATIN, AZATHIOPRINE, FLUOROURACIL.

Example: pharmaguard analyze --vcf patient.vcf --drugs codeine,warfarin --out results/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load()
			if err != nil {
				return err
			}
			return runAnalyze(cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.vcfPath, "vcf", "", "path to the patient VCF file")
	cmd.Flags().StringVar(&opts.drugList, "drugs", "", "comma-separated drug names")
	cmd.Flags().StringArrayVar(&opts.drugs, "drug", nil, "drug name (repeatable)")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the pretty-printed JSON to this file or directory")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "write a spreadsheet export to this file or directory")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "copy the JSON to the system clipboard")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print the pretty-printed JSON instead of cards")
	cmd.Flags().BoolVar(&opts.save, "save", false, "keep the report in the configured archive")
	cmd.Flags().IntVar(&opts.width, "width", 0, "card width in columns")

	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, opts *analyzeOptions) error {
	ctx := cmd.Context()
	sess := session.New(validator.New(), a.logger)

	// Drugs first, in the order given, ignoring repeats.
	parsed, err := domain.ParseDrugList(opts.drugList)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(parsed)+len(opts.drugs))
	for _, d := range parsed {
		names = append(names, string(d))
	}
	names = append(names, opts.drugs...)
	for _, name := range names {
		d, err := domain.ParseDrug(name)
		if err != nil {
			return err
		}
		if !sess.IsSelected(d) {
			if err := sess.ToggleDrug(string(d)); err != nil {
				return err
			}
		}
	}

	if opts.vcfPath != "" {
		name := filepath.Base(opts.vcfPath)
		var content []byte
		if validator.IsVCFName(name) {
			content, err = os.ReadFile(opts.vcfPath)
			if err != nil {
				return fmt.Errorf("reading VCF file: %w", err)
			}
		}
		if err := sess.SelectFile(name, content); err != nil {
			return err
		}
	}
	if sess.CanSubmit() {
		st := sess.Snapshot()
		fmt.Fprintf(a.errOut, "Uploading %s (%s) for %s\n", st.File.Name, render.FileSizeKB(st.File.Size), domain.JoinDrugs(st.Drugs))
	}

	rep, err := sess.Submit(ctx, a.client())
	if err != nil {
		return err
	}

	if opts.raw {
		if err := report.WriteJSON(a.out, rep); err != nil {
			return err
		}
		fmt.Fprintln(a.out)
	} else {
		term := render.NewTerminal(a.out)
		if opts.width > 0 {
			term = term.WithWidth(opts.width)
		}
		if err := term.Render(rep.Results); err != nil {
			return err
		}
	}

	if opts.out != "" {
		path, err := writeArtifact(opts.out, report.JSONFileName, func(buf *bytes.Buffer) error {
			return report.WriteJSON(buf, rep)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.errOut, "Saved JSON to %s\n", path)
	}

	if opts.xlsx != "" {
		path, err := writeArtifact(opts.xlsx, report.XLSXFileName, func(buf *bytes.Buffer) error {
			return report.WriteXLSX(buf, rep)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.errOut, "Saved spreadsheet to %s\n", path)
	}

	if opts.copy {
		if err := report.CopyToClipboard(rep); err != nil {
			fmt.Fprintf(a.errOut, "Could not copy to clipboard: %v\n", err)
		} else {
			fmt.Fprintln(a.errOut, "Copied JSON to clipboard")
		}
	}

	if opts.save {
		store, err := archive.Open(ctx, a.config, a.logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(ctx, rep); err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		fmt.Fprintf(a.errOut, "Saved report %s\n", rep.ID)
	}

	return nil
}

// writeArtifact writes to target, or to defaultName inside target when it is
// an existing directory.
func writeArtifact(target, defaultName string, write func(*bytes.Buffer) error) (string, error) {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, defaultName)
	}

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	return target, nil
}
