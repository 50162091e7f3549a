package cmd

import (
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/ghosttrack/internal/server"
)

var (
	serveAddr string
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference day-log sync server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, db := cfg.Server.Addr, cfg.Server.DB
		if serveAddr != "" {
			addr = serveAddr
		}
		if serveDB != "" {
			db = filepath.Clean(serveDB)
		}
		if cfg.LogLevel() > slog.LevelDebug {
			gin.SetMode(gin.ReleaseMode)
		}

		repo, err := server.OpenRepo(db)
		if err != nil {
			return err
		}
		defer repo.Close()

		srv, err := server.New(repo, logger)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :4000)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database file (default ~/.gtrack/server.db)")
}
