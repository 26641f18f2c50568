package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/eazybank-support/account"
	"github.com/tanpawarit/eazybank-support/agent/agents/orchestrator"
	"github.com/tanpawarit/eazybank-support/agent/agents/specialist"
	llmx "github.com/tanpawarit/eazybank-support/agent/llm"
	statex "github.com/tanpawarit/eazybank-support/agent/state"
	toolx "github.com/tanpawarit/eazybank-support/agent/tool"
	"github.com/tanpawarit/eazybank-support/handoff"
	"github.com/tanpawarit/eazybank-support/openapi"
	configx "github.com/tanpawarit/eazybank-support/pkg/config"
	_ "github.com/tanpawarit/eazybank-support/pkg/logger/autoload"
	postgresx "github.com/tanpawarit/eazybank-support/pkg/postgres"
	qstashx "github.com/tanpawarit/eazybank-support/pkg/qstash"
	rabbitmqx "github.com/tanpawarit/eazybank-support/pkg/rabbitmq"
	redisx "github.com/tanpawarit/eazybank-support/pkg/redis"
	"github.com/tanpawarit/eazybank-support/server"
)

type AppConfig struct {
	AssistantEnabled bool `envconfig:"ASSISTANT_ENABLED" default:"false"`
}

type StateConfig struct {
	Backend   string        `default:"memory"`
	KeyPrefix string        `split_words:"true" default:"eazybank:conversation:"`
	TTL       time.Duration `envconfig:"TTL" default:"24h"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zerolog.DefaultContextLogger = &log.Logger

	appCfg := configx.MustNew[AppConfig]("")
	serverCfg := configx.MustNew[server.Config]("SERVER")

	db := postgresx.MustOpen(*configx.MustNew[postgresx.Config]("DATABASE"))
	defer db.Close()
	if err := postgresx.Ping(ctx, db, 5*time.Second); err != nil {
		log.Fatal().Err(err).Msg("database unreachable")
	}

	accountStore, err := account.NewBunStore(db, *configx.MustNew[account.StoreConfig]("ACCOUNT"))
	if err != nil {
		log.Fatal().Err(err).Msg("init account store")
	}
	lookupSvc, err := account.NewService(accountStore)
	if err != nil {
		log.Fatal().Err(err).Msg("init account lookup")
	}

	publicURL := serverCfg.PublicURL
	if strings.TrimSpace(publicURL) == "" {
		publicURL = serverCfg.LocalURL()
	}
	doc := openapi.MustLoad(ctx, publicURL)

	deps := server.Deps{
		Lookup:  account.NewHandler(lookupSvc),
		OpenAPI: doc,
	}
	if appCfg.AssistantEnabled {
		assistant, deliveries, cleanup := mustAssistant(ctx, doc)
		defer cleanup()
		deps.Assistant = assistant
		deps.Deliveries = deliveries
	}

	if err := server.Run(ctx, *serverCfg, server.NewRouter(deps)); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

func mustAssistant(ctx context.Context, doc *openapi.Document) (*orchestrator.Orchestrator, http.Handler, func()) {
	store, closeStore := mustStateStore(ctx)

	handoffCfg := configx.MustNew[handoff.Config]("HANDOFF")
	publisher, verifier, closePublisher := mustHandoffPublisher(*handoffCfg)
	handoffSvc, err := handoff.NewService(store, publisher, *handoffCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init handoff service")
	}

	lookup, err := toolx.NewAccountLookup(doc, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("init account lookup tool")
	}
	catalog := toolx.NewCatalog(lookup, handoffSvc)

	registry, err := specialist.NewRegistry(ctx, *configx.MustNew[llmx.Config]("OPENROUTER"), catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("init agents")
	}

	orch, err := orchestrator.New(store, registry, catalog, *configx.MustNew[orchestrator.Config]("ASSISTANT"))
	if err != nil {
		log.Fatal().Err(err).Msg("init orchestrator")
	}

	var deliveries http.Handler
	if verifier != nil {
		deliveries = handoff.NewDeliveryHandler(verifier, qstashx.SignatureHeader, handoffCfg.DeliveryURL)
	}

	log.Info().
		Str("handoff_target", publisher.Target(handoffCfg.Topic)).
		Str("lookup_endpoint", lookup.Endpoint()).
		Msg("assistant enabled")

	return orch, deliveries, func() {
		closePublisher()
		closeStore()
	}
}

func mustStateStore(ctx context.Context) (statex.Store, func()) {
	cfg := configx.MustNew[StateConfig]("STATE")
	opts := []statex.StoreOption{
		statex.WithKeyPrefix(cfg.KeyPrefix),
		statex.WithTTL(cfg.TTL),
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "memory":
		store, err := statex.NewMemoryStore(opts...)
		if err != nil {
			log.Fatal().Err(err).Msg("init memory state store")
		}
		return store, func() {}
	case "upstash":
		store, err := statex.NewUpstashRedisStore(*configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS"), opts...)
		if err != nil {
			log.Fatal().Err(err).Msg("init upstash state store")
		}
		return store, func() {}
	case "redis":
		client := redisx.MustNew(ctx, *configx.MustNew[redisx.Config]("REDIS"))
		store, err := statex.NewRedisStore(client, opts...)
		if err != nil {
			log.Fatal().Err(err).Msg("init redis state store")
		}
		return store, func() { _ = client.Close() }
	default:
		log.Fatal().Str("backend", cfg.Backend).Msg("unsupported state backend")
		return nil, nil
	}
}

// mustHandoffPublisher returns a nil verifier for backends that do not push
// deliveries back to this service.
func mustHandoffPublisher(cfg handoff.Config) (handoff.Publisher, handoff.Verifier, func()) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case handoff.BackendRabbitMQ:
		pub, err := rabbitmqx.NewPublisher(*configx.MustNew[rabbitmqx.Config]("RABBITMQ"))
		if err != nil {
			log.Fatal().Err(err).Msg("init rabbitmq publisher")
		}
		return pub, nil, func() { _ = pub.Close() }
	default:
		client := qstashx.MustNew(*configx.MustNew[qstashx.Config]("QSTASH"))
		return client, client, func() {}
	}
}
