package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Sweep old multi-day reports and rewrite the index",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if _, err := os.Stat(cfg.OutputDir); err != nil {
			log.Errorf("output directory %s: %v", cfg.OutputDir, err)
			os.Exit(1)
		}
		svc, closeSvc := newService(cfg)
		defer closeSvc()

		res, err := svc.Cleanup(cmd.Context())
		if err != nil {
			log.Fatalf("cleanup: %v", err)
		}
		log.Infof("cleanup finished: kept=%d deleted=%d", res.KeptCount, res.DeletedCount)
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
