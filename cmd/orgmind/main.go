package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orgmind/internal/adapter/llm"
	"orgmind/internal/adapter/store"
	"orgmind/internal/adapter/tool"
	"orgmind/internal/domain"
	"orgmind/internal/infra/config"
	"orgmind/internal/infra/logger"
	"orgmind/internal/infra/tracer"
	"orgmind/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to config file (YAML)")
		orgID      = flag.String("org", "default", "organization id")
		mode       = flag.String("mode", "chat", "one of: chat, consult, orchestrate, relevance")
		specialist = flag.String("specialist", "", "specialist key for -mode consult")
	)
	flag.Parse()

	query := flag.Arg(0)
	if query == "" {
		return fmt.Errorf("usage: orgmind [flags] \"<message>\"")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	agents, err := store.NewSQLiteAgentStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer agents.Close()

	registry, err := llm.BuildRegistry(cfg.LLM, log)
	if err != nil {
		return err
	}
	gateway := llm.NewGateway(registry, log)

	seeder := usecase.NewSeeder(agents, cfg.Seeding, log)
	if err := seeder.Seed(ctx, *orgID); err != nil {
		return fmt.Errorf("seed org %s: %w", *orgID, err)
	}

	switch *mode {
	case "chat":
		tools := tool.NewRegistry(log)
		chat := usecase.NewChatService(gateway, tools, cfg.Chat, log)
		res, err := chat.Chat(ctx, *orgID, query, nil)
		if err != nil {
			return err
		}
		fmt.Println(res.Text)
		log.Info("chat turn complete", "tokens", res.TokensUsed, "tool_calls", len(res.ToolCalls))

	case "consult":
		if *specialist == "" {
			return fmt.Errorf("-mode consult requires -specialist")
		}
		o := usecase.NewOrchestrator(gateway, agents, nil, log)
		res, err := o.ConsultSpecialist(ctx, *orgID, *specialist, query)
		if err != nil {
			return err
		}
		fmt.Println(res.Text)
		log.Info("consultation complete", "tokens", res.TokensUsed, "scopes", res.ContextScopesUsed)

	case "orchestrate":
		o := usecase.NewOrchestrator(gateway, agents, nil, log)
		res, err := o.Orchestrate(ctx, *orgID, query)
		if err != nil {
			return err
		}
		fmt.Println(res.Text)
		log.Info("orchestration complete", "agents", res.AgentsConsulted)

	case "relevance":
		roster, err := agents.ListActive(ctx, *orgID)
		if err != nil {
			return err
		}
		engine := usecase.NewRelevanceEngine(gateway, cfg.Relevance, log)
		results, err := engine.Evaluate(ctx, usecase.RelevanceEvaluation{
			Agents:  roster,
			History: []domain.Message{{Role: domain.RoleUser, Content: query}},
		})
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}

	return nil
}
