package main

import (
	"fmt"

	"shellmind/internal/agent"
	"shellmind/internal/config"
	"shellmind/internal/llm"
	"shellmind/internal/logging"
	"shellmind/internal/prompt"
	"shellmind/internal/safety"
	"shellmind/internal/store"
	"shellmind/internal/tools"
	"shellmind/internal/tools/file"
	"shellmind/internal/tools/git"
	"shellmind/internal/tools/shell"
	"shellmind/internal/tools/todo"
	"shellmind/internal/tools/web"
	"shellmind/internal/types"
)

// App bundles everything a host command needs to drive tasks.
type App struct {
	Config  *config.Config
	Agent   *agent.Agent
	Store   *store.Store
	Todos   *todo.List
	Prompts *prompt.Library
}

// Close releases the session store.
func (a *App) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
	logging.CloseAll()
}

// buildRegistry assembles the full built-in capability set.
func buildRegistry() (*tools.Registry, *todo.List, error) {
	registry := tools.NewRegistry()
	registry.MustRegister(shell.RunCommandTool())
	registry.MustRegister(shell.SystemInfoTool())
	if err := file.RegisterAll(registry); err != nil {
		return nil, nil, err
	}
	if err := web.RegisterAll(registry); err != nil {
		return nil, nil, err
	}
	if err := git.RegisterAll(registry); err != nil {
		return nil, nil, err
	}
	todos, err := todo.RegisterAll(registry)
	if err != nil {
		return nil, nil, err
	}
	return registry, todos, nil
}

// buildApp wires config, LLM client, tools, prompts, and the session
// store into a ready agent. Approver and sink come from the host.
func buildApp(cfg *config.Config, approver agent.Approver, sink agent.Sink) (*App, error) {
	ws := cfg.Execution.WorkingDirectory
	if ws == "" {
		ws = "."
	}
	if err := logging.Initialize(ws); err != nil {
		return nil, fmt.Errorf("logging init: %w", err)
	}

	client, err := llm.NewClient(llm.Provider(cfg.LLM.Provider), llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLMTimeout(),
	})
	if err != nil {
		return nil, err
	}

	registry, todos, err := buildRegistry()
	if err != nil {
		return nil, err
	}

	prompts, err := prompt.NewLibrary(cfg.Agent.PromptsDir)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Session.DatabasePath)
	if err != nil {
		return nil, err
	}

	mode := types.ModeSequential
	if cfg.Agent.ExecutionMode == string(types.ModeParallel) {
		mode = types.ModeParallel
	}

	ag, err := agent.New(agent.Options{
		LLM:                 client,
		Registry:            registry,
		Classifier:          safety.NewClassifier(),
		Prompts:             prompts,
		Approver:            approver,
		Sink:                sink,
		Store:               st,
		MaxRetries:          cfg.Agent.MaxRetries,
		ExecutionMode:       mode,
		AutoApproveModerate: cfg.Agent.AutoApproveModerate,
		SkipDiagnosis:       cfg.Agent.SkipDiagnosis,
		ToolTimeout:         cfg.ToolTimeout(),
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &App{
		Config:  cfg,
		Agent:   ag,
		Store:   st,
		Todos:   todos,
		Prompts: prompts,
	}, nil
}
