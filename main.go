package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	configx "github.com/tanpawarit/showtimes-skill/pkg/config"
	logx "github.com/tanpawarit/showtimes-skill/pkg/logger"
	"github.com/tanpawarit/showtimes-skill/showtimes"
	handlerx "github.com/tanpawarit/showtimes-skill/skill/handler"
	statex "github.com/tanpawarit/showtimes-skill/skill/state"
	"github.com/tanpawarit/showtimes-skill/webhook"
)

type AppConfig struct {
	// memory | upstash | postgres
	SessionBackend string `envconfig:"SESSION_BACKEND" split_words:"true" default:"memory"`
}

func main() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))

	appCfg := configx.MustNew[AppConfig]("")

	store, err := buildStore(appCfg.SessionBackend)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session store")
	}

	finderCfg := configx.MustNew[showtimes.Config]("SHOWTIMES")
	finder := showtimes.MustNew(*finderCfg)

	h, err := handlerx.New(store, finder)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize skill handler")
	}

	serverCfg := configx.MustNew[webhook.Config]("SERVER")
	srv, err := webhook.NewServer(*serverCfg, h)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize webhook server")
	}

	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("webhook server stopped")
	}
}

func buildStore(backend string) (statex.Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		return statex.NewMemoryStore(), nil
	case "upstash":
		cfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH")
		return statex.NewUpstashRedisStore(*cfg)
	case "postgres":
		cfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
		store, err := statex.NewPostgresStore(*cfg)
		if err != nil {
			return nil, err
		}
		if err := store.Init(context.Background()); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}
