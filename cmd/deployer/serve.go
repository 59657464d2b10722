package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/GoPolymarket/vesu-deployer/internal/handler"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/logger"
	"github.com/GoPolymarket/vesu-deployer/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the read-only inspector API",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := setup(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		// deployments stay browsable before the protocol exists
		var pools handler.PoolReader
		if protocol, err := rt.deployer.LoadProtocol(ctx); err == nil {
			pools = protocol
		} else {
			logger.Warn("Protocol not loaded, pool endpoints disabled", "error", err)
		}

		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: handler.NewRouter(cfg, rt.recorder, pools),
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Inspector started", "port", cfg.Server.Port, "network", network)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		logger.Info("Shutting down inspector...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var _ handler.DeploymentLister = (*service.Recorder)(nil)
