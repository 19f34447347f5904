// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package server

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"medconnect/agent/internal/bridge/model"
)

const (
	AssistantServiceName = "medconnect.v1.Assistant"
	ChatMethod           = "/" + AssistantServiceName + "/Chat"
)

// AssistantServer is the server API for the Assistant service.
type AssistantServer interface {
	Chat(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// AssistantServiceDesc describes the Assistant service. Messages are
// google.protobuf.Struct, so no generated code is involved.
var AssistantServiceDesc = grpc.ServiceDesc{
	ServiceName: AssistantServiceName,
	HandlerType: (*AssistantServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Chat", Handler: chatHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "medconnect/v1/assistant.proto",
}

// RegisterAssistantServer registers srv on s.
func RegisterAssistantServer(s grpc.ServiceRegistrar, srv AssistantServer) {
	s.RegisterService(&AssistantServiceDesc, srv)
}

func chatHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssistantServer).Chat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ChatMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServer).Chat(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type assistantService struct {
	chat Chatter
}

func (s *assistantService) Chat(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := model.DecodeRequest(in)
	if strings.TrimSpace(req.UserInput) == "" {
		return nil, status.Error(codes.InvalidArgument, "user_input is required")
	}
	out, err := model.EncodeResponse(s.chat.Run(ctx, req))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func unaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)))
		return resp, err
	}
}
