package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"mercator-hq/patientseek/pkg/providers/openai"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// nopClient never reaches a backend.
type nopClient struct{}

func (nopClient) CreateChatCompletion(context.Context, *openai.ChatCompletionRequest) (*openai.ChatCompletion, error) {
	return nil, errors.New("not implemented")
}

func (nopClient) StreamChatCompletion(context.Context, *openai.ChatCompletionRequest) (openai.StreamReader, error) {
	return nil, errors.New("not implemented")
}
