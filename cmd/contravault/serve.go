package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/contravault/internal/auth"
	"github.com/sandeepkv93/contravault/internal/reminders"
	"github.com/sandeepkv93/contravault/internal/web"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP JSON API.

Requires auth.jwt_secret. Google sign-in is enabled when
auth.google_client_id and auth.google_client_secret are set. Deadline
reminders are logged while reminders.enabled is true.

Examples:
  contravault serve
  CONTRAVAULT_AUTH_JWT_SECRET=s3cret contravault serve --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Server.Mode != "" {
		gin.SetMode(a.cfg.Server.Mode)
	}
	issuer, err := auth.NewIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("%w (set auth.jwt_secret or CONTRAVAULT_AUTH_JWT_SECRET)", err)
	}
	resolver := auth.NewResolver(issuer, a.cfg.Auth.CookieName)

	opts := web.Options{Location: a.loc, Logger: a.logger}
	if a.cfg.Auth.GoogleClientID != "" {
		google, err := auth.NewGoogle(auth.GoogleConfig{
			ClientID:     a.cfg.Auth.GoogleClientID,
			ClientSecret: a.cfg.Auth.GoogleClientSecret,
			RedirectURL:  a.cfg.Auth.GoogleRedirectURL,
		}, a.repo, resolver)
		if err != nil {
			return err
		}
		opts.Google = google
	} else {
		a.logger.Printf("google sign-in disabled: auth.google_client_id is empty")
	}

	if a.cfg.Reminders.Enabled {
		watcher := reminders.NewWatcher(a.repo,
			reminders.WithLead(a.cfg.Reminders.Lead),
			reminders.WithInterval(a.cfg.Reminders.Interval),
			reminders.WithLogger(a.logger),
		)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				a.logger.Printf("reminders stopped: %v", err)
			}
		}()
	}

	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	return web.NewServer(a.engine, resolver, opts).Run(ctx, addr, a.cfg.Server.ShutdownTimeout)
}
