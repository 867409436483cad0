package cmd

import (
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"arxiv_digest/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the digest service with watcher, ops API and metrics",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		a, err := app.New(cfg)
		if err != nil {
			log.Fatalf("app: %v", err)
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := a.Run(ctx); err != nil {
			log.Fatalf("serve: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
