package cmd

import (
	"github.com/spf13/cobra"

	"github.com/devendrajoshi/smartchat/internal/config"
	"github.com/devendrajoshi/smartchat/internal/logging"
	"github.com/devendrajoshi/smartchat/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	Run: func(cmd *cobra.Command, args []string) {
		logging.New()
		cfg := config.New()
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		s := server.New(cfg)
		s.RegisterRoutes()
		s.Start()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides ADDR)")
	rootCmd.AddCommand(serveCmd)
}
