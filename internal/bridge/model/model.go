// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines the wire shape of the assistant's gRPC Chat call.
// Requests and responses travel as google.protobuf.Struct with the same field
// names as the HTTP surface, so the server and the bridge client share these
// conversions.
package model

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"medconnect/agent/internal/intent"
	"medconnect/agent/internal/workflow"
)

// Field names on the wire.
const (
	FieldUserInput     = "user_input"
	FieldChatHistory   = "chat_history"
	FieldFinalResponse = "final_response"
	FieldIntent        = "intent"
	FieldRequestID     = "request_id"
)

// EncodeRequest converts req to its wire form.
func EncodeRequest(req workflow.Request) (*structpb.Struct, error) {
	history := make([]any, 0, len(req.History))
	for _, h := range req.History {
		history = append(history, h)
	}
	s, err := structpb.NewStruct(map[string]any{
		FieldUserInput:   req.UserInput,
		FieldChatHistory: history,
	})
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}
	return s, nil
}

// DecodeRequest reads a request from its wire form. History entries that are
// not objects are dropped.
func DecodeRequest(s *structpb.Struct) workflow.Request {
	req := workflow.Request{UserInput: s.GetFields()[FieldUserInput].GetStringValue()}
	for _, v := range s.GetFields()[FieldChatHistory].GetListValue().GetValues() {
		if m := v.GetStructValue(); m != nil {
			req.History = append(req.History, m.AsMap())
		}
	}
	return req
}

// EncodeResponse converts resp to its wire form.
func EncodeResponse(resp workflow.Response) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		FieldFinalResponse: resp.FinalResponse,
		FieldIntent:        string(resp.Intent),
		FieldRequestID:     resp.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode chat response: %w", err)
	}
	return s, nil
}

// DecodeResponse reads a response from its wire form.
func DecodeResponse(s *structpb.Struct) workflow.Response {
	f := s.GetFields()
	return workflow.Response{
		FinalResponse: f[FieldFinalResponse].GetStringValue(),
		Intent:        intent.Intent(f[FieldIntent].GetStringValue()),
		RequestID:     f[FieldRequestID].GetStringValue(),
	}
}
