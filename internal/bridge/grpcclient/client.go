// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcclient implements bridge.Bridge over the assistant's gRPC
// service. Requests and responses travel as google.protobuf.Struct.
package grpcclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"medconnect/agent/internal/bridge/model"
	"medconnect/agent/internal/workflow"
)

const (
	serviceName = "medconnect.v1.Assistant"
	chatMethod  = "/" + serviceName + "/Chat"
)

// Client implements bridge.Bridge using the Assistant.Chat unary call.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for addr. With useTLS the server name is derived from
// addr and port 443 is assumed when none is given. Extra options are appended
// after the transport credentials.
func Dial(addr string, useTLS bool, opts ...grpc.DialOption) (*Client, error) {
	target := addr
	creds := insecure.NewCredentials()
	if useTLS {
		host := addr
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		} else {
			target = net.JoinHostPort(addr, "443")
		}
		creds = credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	}

	conn, err := grpc.NewClient(target, append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Chat sends one request and waits for the answer.
func (c *Client) Chat(ctx context.Context, req workflow.Request) (workflow.Response, error) {
	if c.conn == nil {
		return workflow.Response{}, errors.New("client not connected")
	}
	in, err := model.EncodeRequest(req)
	if err != nil {
		return workflow.Response{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, chatMethod, in, out); err != nil {
		return workflow.Response{}, err
	}
	return model.DecodeResponse(out), nil
}

// Health reports whether the assistant service is serving.
func (c *Client) Health(ctx context.Context) error {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: serviceName})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("assistant is %s", resp.GetStatus())
	}
	return nil
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
