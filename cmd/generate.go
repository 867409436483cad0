package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"arxiv_digest/digest"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Consolidate recent daily sources into one digest report",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		days, _ := cmd.Flags().GetInt("days")
		cleanup, _ := cmd.Flags().GetBool("cleanup")
		single, _ := cmd.Flags().GetString("source")

		svc, closeSvc := newService(cfg)
		defer closeSvc()

		ctx := cmd.Context()
		var res digest.RunResult
		var err error
		if single != "" {
			res, err = svc.GenerateSingle(ctx, single)
		} else {
			res, err = svc.Run(ctx, digest.RunOptions{Days: days, Cleanup: cleanup})
		}
		if err != nil {
			log.Fatalf("generate: %v", err)
		}
		log.Infof("run %s finished: status=%s output=%s records=%d days=%d",
			res.RunID, res.Status, res.OutputName, res.RecordCount, res.DayCount)
	},
}

func init() {
	generateCmd.Flags().Int("days", 0, "Lookback window in days (capped at 10)")
	generateCmd.Flags().Bool("cleanup", true, "Run the retention sweep and index rewrite afterwards")
	generateCmd.Flags().String("source", "", "Generate a single-day report from one source file")
	rootCmd.AddCommand(generateCmd)
}
