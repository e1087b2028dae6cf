package main

import (
	"context"

	"shellmind/cmd/shellmind/chat"
	"shellmind/internal/agent"
	"shellmind/internal/prompt"
)

// runInteractiveChat builds the full app and hands the terminal to the
// chat TUI. The TUI supplies its own approver and sink per task, so
// the defaults here fail closed if a task is ever run outside it.
func runInteractiveChat() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := buildApp(cfg, agent.DenyAll, agent.NopSink{})
	if err != nil {
		return err
	}
	defer app.Close()

	// Live-reload prompt overrides while the chat is open.
	if app.Prompts.Dir() != "" {
		if watcher, werr := prompt.NewWatcher(app.Prompts); werr == nil {
			ctx, stop := context.WithCancel(context.Background())
			defer stop()
			if werr := watcher.Start(ctx); werr == nil {
				defer watcher.Stop()
			}
		}
	}

	return chat.Run(chat.Config{
		Agent:   app.Agent,
		Store:   app.Store,
		Version: version,
	})
}
