// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"medconnect/agent/internal/server"
)

var (
	serveHTTPAddr string
	serveGRPCAddr string
)

// serveCmd runs the assistant as a long-lived service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP and gRPC",
	Long: `The serve command exposes the assistant on two surfaces:

  POST /chat, GET /health        HTTP (default :8000)
  medconnect.v1.Assistant/Chat   gRPC (default :50051), with grpc.health.v1

The live database schema is compared with the assistant's schema contract at
start-up and any drift is logged as a warning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		if serveHTTPAddr != "" {
			cfg.Server.HTTPAddr = serveHTTPAddr
		}
		if cmd.Flags().Changed("grpc-addr") {
			cfg.Server.GRPCAddr = serveGRPCAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		drift, err := a.verifySchema(checkCtx)
		cancel()
		switch {
		case err != nil:
			a.log.Warn("schema check failed", zap.Error(err))
		case len(drift) > 0:
			for _, d := range drift {
				a.log.Warn("schema drift", zap.String("drift", d.String()))
			}
		default:
			a.log.Info("schema matches contract")
		}

		rt := server.NewRuntime(server.Options{
			HTTPAddr:        cfg.Server.HTTPAddr,
			GRPCAddr:        cfg.Server.GRPCAddr,
			CORSOrigins:     cfg.Server.CORSOrigins,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}, a.orch, a.log)
		return rt.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http-addr", "", "HTTP listen address (overrides server.http_addr)")
	serveCmd.Flags().StringVar(&serveGRPCAddr, "grpc-addr", "", "gRPC listen address, empty to disable (overrides server.grpc_addr)")
}
