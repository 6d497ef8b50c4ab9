package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/converter"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/storage"
)

var normalizeIn, normalizeOut string

// normalizeCmd writes the intermediate invoices document for one report.
var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Flatten a GSTR-2B report into an invoices JSON document",
	Long: `The normalize command reads one GSTR-2B report and writes its B2B invoices
as a flat JSON list, one object per invoice. The list can be reviewed or
edited and then turned into masters with the masters command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		n, err := converter.NormalizeFile(cmd.Context(), storage.NewRouter(cfg.S3), normalizeIn, normalizeOut)
		if err != nil {
			return err
		}

		log.Info("normalized report", zap.String("source", normalizeIn), zap.String("output", normalizeOut), zap.Int("invoices", n))
		fmt.Printf("normalized %d invoice(s) to %s\n", n, normalizeOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().StringVar(&normalizeIn, "in", "", "GSTR-2B report to read")
	normalizeCmd.Flags().StringVar(&normalizeOut, "out", "", "Invoices JSON to write")
	normalizeCmd.MarkFlagRequired("in")
	normalizeCmd.MarkFlagRequired("out")
}
