//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/support-chat/internal/config"
	"github.com/janhq/support-chat/internal/domain"
	"github.com/janhq/support-chat/internal/infrastructure"
	"github.com/janhq/support-chat/internal/interfaces/httpserver"
	"github.com/janhq/support-chat/internal/interfaces/httpserver/handlers"
)

func CreateApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		handlers.NewProvider,
		httpserver.NewHTTPServer,
		NewApplication,
	)
	return nil, nil, nil
}
