// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge connects the CLI to a running assistant server so a request
// can be answered remotely instead of in process.
package bridge

import (
	"context"

	"medconnect/agent/internal/bridge/grpcclient"
	"medconnect/agent/internal/workflow"
)

// Bridge is a connection to a remote assistant.
type Bridge interface {
	// Chat runs one request on the remote assistant.
	Chat(ctx context.Context, req workflow.Request) (workflow.Response, error)
	// Health fails unless the remote assistant reports SERVING.
	Health(ctx context.Context) error
	Close() error
}

// New creates a gRPC bridge to addr.
func New(addr string, useTLS bool) (Bridge, error) {
	return grpcclient.Dial(addr, useTLS)
}
