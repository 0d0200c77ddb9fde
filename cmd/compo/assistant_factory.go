package main

import (
	"context"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/compo/internal/advisor"
	"github.com/ShayCichocki/compo/internal/classify"
	"github.com/ShayCichocki/compo/internal/comfy"
	"github.com/ShayCichocki/compo/internal/config"
	"github.com/ShayCichocki/compo/internal/fusion"
	"github.com/ShayCichocki/compo/internal/orchestrator"
	"github.com/ShayCichocki/compo/internal/state"
)

// runtime bundles the wired assistant with the pieces commands need to
// reach directly.
type runtime struct {
	assistant *orchestrator.Assistant
	graph     *fusion.Bridge
	store     *state.Store
	cfg       *config.Config

	db *state.DB
}

// Close releases the assistant and its history database.
func (r *runtime) Close() {
	r.assistant.Close()
	if r.db != nil {
		r.db.Close()
	}
}

// newRuntime wires an assistant from configuration: advisor, classifier,
// compositor bridge, generation client, and iteration history. Backend
// probes run here; an unreachable backend degrades rather than fails.
// Overrides run after loading, before anything is wired.
func newRuntime(ctx context.Context, overrides ...func(*config.Config)) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for _, override := range overrides {
		override(cfg)
	}

	adv := newAdvisor(cfg)

	classifierOpts := []classify.Option{}
	if cfg.Keywords.Path != "" {
		tables, err := classify.LoadTables(cfg.Keywords.Path)
		if err != nil {
			log.Printf("[compo] keyword tables: %v, using defaults", err)
		}
		classifierOpts = append(classifierOpts, classify.WithTables(tables))
	}
	classifier := classify.New(adv, classifierOpts...)

	graph := fusion.NewBridge(ctx, fusion.NewClient(cfg.Bridge.Addr))
	gen := comfy.NewClient(ctx, cfg.ComfyUI.URL, cfg.ComfyUI.Model)

	opts := []orchestrator.Option{
		orchestrator.WithBudget(cfg.Iteration.Budget),
		orchestrator.WithGenerationOptions(comfy.Options{
			Width:          cfg.Generation.Width,
			Height:         cfg.Generation.Height,
			Steps:          cfg.Generation.Steps,
			CFG:            cfg.Generation.CFG,
			NegativePrompt: cfg.Generation.NegativePrompt,
		}),
	}

	// History is optional: a broken database should not block iteration.
	var db *state.DB
	var store *state.Store
	dbPath := cfg.History.Path
	if dbPath == "" {
		dbPath = state.DefaultDBPath()
	}
	db, err = state.Open(dbPath)
	if err != nil {
		log.Printf("[compo] iteration history unavailable: %v", err)
		db = nil
	} else if err := db.Migrate(); err != nil {
		log.Printf("[compo] iteration history unavailable: %v", err)
		db.Close()
		db = nil
	}
	if db != nil {
		store = state.NewStore(db, cfg.History.Retention)
		opts = append(opts, orchestrator.WithRecorder(store))
	}

	return &runtime{
		assistant: orchestrator.New(classifier, graph, gen, opts...),
		graph:     graph,
		store:     store,
		cfg:       cfg,
		db:        db,
	}, nil
}

// newAdvisor builds the configured planning advisor. Any failure degrades
// to nil; classification then runs on local heuristics alone.
func newAdvisor(cfg *config.Config) advisor.Advisor {
	switch cfg.Advisor.Provider {
	case "none":
		return nil
	case "copilot":
		adv, err := advisor.NewCopilotAdvisor()
		if err != nil {
			log.Printf("[compo] copilot advisor unavailable: %v", err)
			return nil
		}
		return adv
	default:
		acfg := advisor.AnthropicConfig{
			Model:         anthropic.Model(cfg.Anthropic.Model),
			UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		}
		if !cfg.Anthropic.UseAWSBedrock {
			key, err := config.GetAPIKey(cfg)
			if err != nil {
				log.Printf("[compo] anthropic advisor unavailable: %v", err)
				return nil
			}
			if err := config.ValidateAPIKey(key); err != nil {
				log.Printf("[compo] anthropic advisor unavailable (key from %s): %v",
					config.GetAPIKeySource(cfg), err)
				return nil
			}
			acfg.APIKey = key
		}
		adv, err := advisor.NewAnthropicAdvisor(acfg)
		if err != nil {
			log.Printf("[compo] anthropic advisor unavailable: %v", err)
			return nil
		}
		return adv
	}
}
