package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tanpawarit/travelai/agent/agents/orchestrator"
	"github.com/tanpawarit/travelai/agent/gateway"
	"github.com/tanpawarit/travelai/agent/llm"
	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
	"github.com/tanpawarit/travelai/agent/tool"
	configx "github.com/tanpawarit/travelai/pkg/config"
	_ "github.com/tanpawarit/travelai/pkg/logger/autoload"
	"github.com/tanpawarit/travelai/pkg/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("travelai exited")
		os.Exit(1)
	}
}

func run() error {
	llmCfg := configx.MustNew[llm.Config]("LLM")
	providerCfg := configx.MustNew[provider.Config]("")
	turnCfg := configx.MustNew[orchestrator.Config]("TURN")
	gatewayCfg := configx.MustNew[gateway.Config]("GATEWAY")
	otelCfg := configx.MustNew[telemetry.Config]("OTEL")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewProvider(ctx, *otelCfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	reasoner, err := llm.NewReasoner(ctx, *llmCfg)
	if err != nil {
		return err
	}

	registry := tool.NewRegistry(
		provider.NewWeatherClient(*providerCfg),
		provider.NewHotelClient(*providerCfg),
		provider.NewFlightClient(*providerCfg),
	)

	store := statex.NewMemoryStore(statex.WithRetention(gatewayCfg.SessionRetain))

	orch, err := orchestrator.New(store, reasoner, registry, *turnCfg)
	if err != nil {
		return err
	}

	srv, err := gateway.New(*gatewayCfg, orch, store)
	if err != nil {
		return err
	}

	log.Info().
		Str("backend", llmCfg.Backend).
		Str("model", llmCfg.Model).
		Int("max_iterations", turnCfg.MaxIterations).
		Dur("session_retain", gatewayCfg.SessionRetain).
		Msg("travelai starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		if gatewayCfg.SessionRetain <= 0 {
			return nil
		}
		return store.RunJanitor(gctx, gatewayCfg.JanitorInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("travelai shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
