package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.temporal.io/sdk/client"

	"github.com/flowmesh-ai/flowmesh/cli"
	"github.com/flowmesh-ai/flowmesh/config"
	"github.com/flowmesh-ai/flowmesh/engine"
	inmemengine "github.com/flowmesh-ai/flowmesh/engine/inmem"
	temporalengine "github.com/flowmesh-ai/flowmesh/engine/temporal"
	"github.com/flowmesh-ai/flowmesh/llm"
	"github.com/flowmesh-ai/flowmesh/llm/anthropic"
	"github.com/flowmesh-ai/flowmesh/llm/bedrock"
	"github.com/flowmesh-ai/flowmesh/llm/openai"
	"github.com/flowmesh-ai/flowmesh/session"
	"github.com/flowmesh-ai/flowmesh/store"
	"github.com/flowmesh-ai/flowmesh/store/mongostore"
	"github.com/flowmesh-ai/flowmesh/telemetry"
	"github.com/flowmesh-ai/flowmesh/toolregistry"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: flowmesh <config.yaml>")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "flowmesh:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := telemetry.NewNoopLogger()

	st, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("building store: %w", err)
	}

	svc, err := buildLLM(cfg.LLM)
	if err != nil {
		return fmt.Errorf("building llm service: %w", err)
	}

	eng, err := buildEngine(cfg.Engine, logger)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	agents := map[string]store.AgentConfig{
		"assistant": {
			Name:         "assistant",
			Role:         "assistant",
			Instructions: "You are a helpful assistant. Address other agents with @name when delegating.",
			AgentType:    store.AgentTypeAgentic,
		},
	}

	rt, err := session.New(ctx, session.Options{
		Store:       st,
		Agents:      agents,
		Tools:       toolregistry.NewStaticRegistry(),
		LLM:         svc,
		Engine:      eng,
		Logger:      logger,
		ToolTimeout: cfg.Tools.DefaultTimeout.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("building session runtime: %w", err)
	}

	return cli.Run(ctx, cli.Options{
		Runtime:        rt,
		ThreadExternal: "cli-session",
		SenderID:       "user",
		In:             os.Stdin,
		Out:            os.Stdout,
	})
}

func buildStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.DSN))
	if err != nil {
		return nil, err
	}
	return mongostore.New(ctx, mongostore.Options{Client: mongoClient, Database: cfg.Database})
}

func buildLLM(cfg config.LLMConfig) (llm.Service, error) {
	provider, ok := cfg.Providers[cfg.DefaultProvider]
	if !ok {
		return nil, fmt.Errorf("no provider config for %q", cfg.DefaultProvider)
	}
	switch cfg.DefaultProvider {
	case "anthropic":
		return anthropic.NewFromAPIKey(provider.APIKey, provider.DefaultModel)
	case "openai":
		return openai.NewFromAPIKey(provider.APIKey, provider.DefaultModel)
	case "bedrock":
		awsCfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(provider.Region))
		if err != nil {
			return nil, err
		}
		return bedrock.New(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{DefaultModel: provider.DefaultModel})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.DefaultProvider)
	}
}

func buildEngine(cfg config.EngineConfig, logger telemetry.Logger) (engine.Engine, error) {
	switch cfg.Driver {
	case "temporal":
		tc, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort, Namespace: cfg.Temporal.Namespace})
		if err != nil {
			return nil, err
		}
		return temporalengine.New(temporalengine.Options{
			Client:    tc,
			TaskQueue: cfg.Temporal.TaskQueue,
			Logger:    logger,
		})
	default:
		return inmemengine.New(), nil
	}
}
