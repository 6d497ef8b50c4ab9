package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/converter"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/storage"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/xmlwriter"
)

var mastersIn, mastersOut string

// mastersCmd turns an invoices document into a masters document.
var mastersCmd = &cobra.Command{
	Use:   "masters",
	Short: "Generate the Tally masters XML from an invoices JSON document",
	Long: `The masters command reads an invoices JSON document (as written by the
normalize command), derives the ledger set and writes the Tally "All Masters"
import document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.RequireCompany(); err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		opts := xmlwriter.DefaultGenerateOptions(cfg.CompanyName)
		opts.Indent = cfg.Indent

		stats, err := converter.MastersFile(cmd.Context(), storage.NewRouter(cfg.S3), mastersIn, mastersOut, opts)
		if err != nil {
			return err
		}

		log.Info("wrote masters",
			zap.String("source", mastersIn),
			zap.String("output", mastersOut),
			zap.Int("suppliers", stats.Suppliers),
			zap.Duration("elapsed", stats.ProcessingTime))
		fmt.Println(stats.Summary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mastersCmd)

	mastersCmd.Flags().StringVar(&mastersIn, "in", "", "Invoices JSON to read")
	mastersCmd.Flags().StringVar(&mastersOut, "out", "", "Masters XML to write")
	mastersCmd.MarkFlagRequired("in")
	mastersCmd.MarkFlagRequired("out")
}
