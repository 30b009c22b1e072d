package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/piwi3910/SlitCut/internal/api"
	"github.com/piwi3910/SlitCut/internal/engine"
)

var (
	serveListen       string
	serveMaxTimeLimit time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config, :8080)")
	serveCmd.Flags().DurationVar(&serveMaxTimeLimit, "max-time-limit", time.Minute, "cap on the solve time limit of each request")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := appConfig.ListenAddr
	if serveListen != "" {
		addr = serveListen
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	planner := engine.NewPlanner(engine.WithLogger(logger))
	handler := api.NewHandler(planner, logger, serveMaxTimeLimit)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
