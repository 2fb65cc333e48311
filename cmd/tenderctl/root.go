package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/tender-integrity/internal/analysis"
	"github.com/ZanzyTHEbar/tender-integrity/internal/compliance"
	"github.com/ZanzyTHEbar/tender-integrity/internal/config"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
	"github.com/ZanzyTHEbar/tender-integrity/internal/monitoring"
	"github.com/ZanzyTHEbar/tender-integrity/internal/pipeline"
)

type options struct {
	configPath string
	file       string
	format     string
}

// rootCommand builds the CLI; output goes to out, logs to stderr
func rootCommand(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "tenderctl",
		Short:         "Fraud analysis and scoring for tender snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "Tender snapshot (JSON or YAML)")
	root.PersistentFlags().StringVarP(&opts.format, "output", "o", "json", "Output format: json, table")
	_ = root.MarkPersistentFlagRequired("file")

	root.AddCommand(evaluateCommand(opts, out), analyzeCommand(opts, out))
	return root
}

func evaluateCommand(opts *options, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Analyze fraud signals, then score and rank the participants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService(opts.configPath)
			if err != nil {
				return err
			}
			tender, err := loadTender(opts.file)
			if err != nil {
				return err
			}

			res := svc.Run(cmd.Context(), tender)
			if opts.format == "table" && res.Success {
				printRanking(out, *res.Evaluation)
			} else if err := writeJSON(out, res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("%s", res.Error)
			}
			return nil
		},
	}
}

func analyzeCommand(opts *options, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run only the fraud detectors and print the risk report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService(opts.configPath)
			if err != nil {
				return err
			}
			tender, err := loadTender(opts.file)
			if err != nil {
				return err
			}

			report, err := svc.AnalyzeTender(cmd.Context(), tender)
			if err != nil {
				_ = writeJSON(out, pipeline.Failure(tender.ID, err))
				return err
			}
			if opts.format == "table" {
				printRisk(out, report)
				return nil
			}
			return writeJSON(out, report)
		},
	}
}

func buildService(configPath string) (*pipeline.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := monitoring.NewLoggerWithWriter(os.Stderr, monitoring.ParseLevel(cfg.LogLevel))

	return pipeline.NewService(
		fraud.NewAnalyzer(cfg.Thresholds, logger),
		analysis.NewEngine(compliance.NewRuleChecker(), logger),
		pipeline.WithLogger(logger),
	), nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRanking(out io.Writer, eval analysis.Evaluation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tID\tCOMPANY\tSCORE\tRISK\tQUALIFIED\tWINNER")
	for _, r := range eval.Results {
		fmt.Fprintf(w, "%d\t%d\t%s\t%.2f\t%s\t%t\t%t\n",
			r.Rank, r.ParticipantID, r.CompanyName, r.TotalScore, r.RiskLevel, r.IsQualified, r.IsWinner)
	}
	w.Flush()
}

func printRisk(out io.Writer, report fraud.Report) {
	fmt.Fprintf(out, "tender %d: total risk %.2f (%s), %d detections\n",
		report.TenderID, report.TotalRiskScore, report.RiskLevel, len(report.Detections))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tSEVERITY\tSCORE\tPARTICIPANTS")
	for _, d := range report.Detections {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%v\n", d.Type, d.Severity, d.RiskScore, d.Subject.Participants())
	}
	w.Flush()
	for _, rec := range report.Recommendations {
		fmt.Fprintln(out, "- "+rec)
	}
}
