package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/invcache"
	"github.com/unkn0wn-root/invcache/internal/httpapi"
)

const shutdownGrace = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the users API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return opts.withApp(ctx, func(a *app) error {
				if addr == "" {
					addr = a.cfg.HTTP.Addr
				}
				return serve(ctx, a, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}

func serve(ctx context.Context, a *app, addr string) error {
	if !a.cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr: addr,
		Handler: httpapi.NewRouter(httpapi.Config{
			Users:    a.service,
			Admin:    a.admin,
			Logger:   a.log,
			Gatherer: a.registry,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", invcache.Fields{"addr": addr})
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down", nil)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}
