package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"arxiv_digest/digest"
)

var fixIndexCmd = &cobra.Command{
	Use:   "fix-index",
	Short: "Rebuild the report index from the files on disk",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		diff, err := digest.FixIndex(cfg.OutputDir, cfg.IndexPath)
		if err != nil {
			log.Fatalf("fix index: %v", err)
		}
		log.Infof("index rebuilt: %d reports (%d stale removed, %d added)",
			diff.Total, len(diff.Stale), len(diff.Added))
	},
}

func init() {
	rootCmd.AddCommand(fixIndexCmd)
}
