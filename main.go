package main

import (
	"strings"

	"github.com/rs/zerolog/log"

	configx "github.com/supperclub/concierge/pkg/config"
	"github.com/supperclub/concierge/pkg/forward"
	_ "github.com/supperclub/concierge/pkg/logger/autoload"
	"github.com/supperclub/concierge/planner"
	"github.com/supperclub/concierge/planner/booking"
	"github.com/supperclub/concierge/planner/consensus"
	statex "github.com/supperclub/concierge/planner/state"
	serverx "github.com/supperclub/concierge/server"
)

type AppConfig struct {
	StoreBackend string `envconfig:"STORE_BACKEND" split_words:"true" default:"memory"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("PLANNER")

	var store statex.Store
	switch strings.ToLower(appCfg.StoreBackend) {
	case "postgres":
		pgCfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
		pg, err := statex.NewPostgresStore(*pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init postgres store")
		}
		defer pg.Close()
		store = pg
	default:
		store = statex.NewMemoryStore()
	}

	detectorCfg := configx.MustNew[consensus.Config]("CONSENSUS")
	svcCfg := configx.MustNew[planner.Config]("PLANNER")
	execCfg := configx.MustNew[booking.ExecutorConfig]("EXECUTOR")

	opts := []planner.Option{
		planner.WithExecutor(booking.NewExecutor(*execCfg)),
	}

	forwardCfg := configx.MustNew[forward.Config]("FORWARD")
	if strings.TrimSpace(forwardCfg.URL) != "" {
		client, err := forward.NewClient(*forwardCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init forward client")
		}
		opts = append(opts, planner.WithForwarder(client))
	}

	svc, err := planner.New(store, *detectorCfg, *svcCfg, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("init planner service")
	}

	mcpCfg := configx.MustNew[serverx.Config]("MCP")
	s := serverx.New(svc)

	log.Info().Str("transport", mcpCfg.Transport).Str("store", appCfg.StoreBackend).Msg("concierge starting")
	if err := serverx.Run(s, *mcpCfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
