package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasage-cli/internal/server"
)

var (
	serveAddr    string
	serveRuntime runtimeOptions
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dataset analysis over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}
		logger := slog.Default()
		narr, err := buildNarrator(cfg, serveRuntime, logger)
		if err != nil {
			return err
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.New(server.Config{
			MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
			MaxRows:        cfg.MaxRows,
			Narrator:       narr,
			Logger:         logger,
		})
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger.Info("starting datasage server", "addr", addr, "ai_mode", narr.Mode())
		return srv.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config server_addr)")
	serveRuntime.register(serveCmd.Flags())
}
