package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate missing single-day reports for existing sources",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		limit, _ := cmd.Flags().GetInt("limit")

		svc, closeSvc := newService(cfg)
		defer closeSvc()

		summary, err := svc.Backfill(cmd.Context(), limit)
		if err != nil {
			log.Fatalf("backfill: %v", err)
		}
		log.Infof("backfill finished: total=%d present=%d missing=%d generated=%d failed=%d",
			summary.Total, summary.AlreadyPresent, summary.Missing, summary.Generated, summary.Failed)
	},
}

func init() {
	backfillCmd.Flags().Int("limit", 0, "Maximum number of reports to generate (0 uses BACKFILL_LIMIT)")
	rootCmd.AddCommand(backfillCmd)
}
