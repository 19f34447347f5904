// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package server exposes the assistant over HTTP and gRPC. Both surfaces hand
// each request to the same Chatter and run side by side until the context is
// cancelled or one of them fails.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"medconnect/agent/internal/workflow"
)

// Chatter answers one request. *workflow.Orchestrator satisfies it.
type Chatter interface {
	Run(ctx context.Context, req workflow.Request) workflow.Response
}

type Options struct {
	HTTPAddr string
	// GRPCAddr may be empty to disable the gRPC surface.
	GRPCAddr        string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Runtime owns the HTTP and gRPC servers.
type Runtime struct {
	opts   Options
	chat   Chatter
	http   *http.Server
	grpc   *grpc.Server
	health *health.Server
	log    *zap.Logger
}

func NewRuntime(opts Options, chat Chatter, logger *zap.Logger) *Runtime {
	opts = normalizeOptions(opts)
	r := &Runtime{opts: opts, chat: chat, log: logger}

	r.http = &http.Server{
		Addr:              opts.HTTPAddr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	r.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(logger.Named("grpc"))))
	RegisterAssistantServer(r.grpc, &assistantService{chat: chat})
	r.health = health.NewServer()
	r.health.SetServingStatus(AssistantServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(r.grpc, r.health)
	return r
}

func normalizeOptions(opts Options) Options {
	if opts.HTTPAddr == "" {
		opts.HTTPAddr = ":8000"
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return opts
}

// Run listens on the configured addresses and serves until ctx is done.
func (r *Runtime) Run(ctx context.Context) error {
	httpLn, err := net.Listen("tcp", r.opts.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", r.opts.HTTPAddr, err)
	}
	var grpcLn net.Listener
	if r.opts.GRPCAddr != "" {
		grpcLn, err = net.Listen("tcp", r.opts.GRPCAddr)
		if err != nil {
			_ = httpLn.Close()
			return fmt.Errorf("listen grpc %s: %w", r.opts.GRPCAddr, err)
		}
	}
	return r.Serve(ctx, httpLn, grpcLn)
}

// Serve serves on the given listeners until ctx is done or a server fails,
// then shuts both down. A nil grpcLn disables gRPC.
func (r *Runtime) Serve(ctx context.Context, httpLn, grpcLn net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.log.Info("http server listening", zap.String("addr", httpLn.Addr().String()))
		if err := r.http.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if grpcLn != nil {
		g.Go(func() error {
			r.log.Info("grpc server listening", zap.String("addr", grpcLn.Addr().String()))
			if err := r.grpc.Serve(grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return r.shutdown(grpcLn != nil)
	})

	err := g.Wait()
	r.log.Info("servers stopped")
	return err
}

func (r *Runtime) shutdown(withGRPC bool) error {
	r.log.Info("shutting down", zap.Duration("timeout", r.opts.ShutdownTimeout))
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.ShutdownTimeout)
	defer cancel()

	r.health.Shutdown()
	err := r.http.Shutdown(ctx)

	if withGRPC {
		done := make(chan struct{})
		go func() {
			r.grpc.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			r.grpc.Stop()
			<-done
		}
	}
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
