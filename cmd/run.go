package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abhisek/stepwise/internal/app"
	"github.com/abhisek/stepwise/internal/cache"
	"github.com/abhisek/stepwise/internal/certificate"
	"github.com/abhisek/stepwise/internal/completion"
	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/notify"
	"github.com/abhisek/stepwise/internal/player"
	"github.com/abhisek/stepwise/internal/screens/modules"
	"github.com/abhisek/stepwise/internal/timer"
)

const (
	timerQueue  = 16
	eventQueue  = 64
	notifyQueue = 256
)

// runApp opens the store, builds the player dependencies and launches the TUI.
func runApp(cmd *cobra.Command) error {
	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	cfg, log := e.cfg, e.log

	var sessions player.QuizSessionCache = e.ps
	if cfg.Redis.Addr != "" {
		rs, err := cache.NewRedisSessions(cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, keeping quiz sessions in the database", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer rs.Close()
			sessions = rs
		}
	}

	// UI notifications must not block the player, so a full channel drops.
	events := make(chan notify.Event, eventQueue)
	toUI := notify.Func(func(_ context.Context, ev notify.Event) {
		select {
		case events <- ev:
		default:
			log.Warn("ui event dropped", "event", string(ev.Kind))
		}
	})

	certs := certificate.New(e.store, log)
	notifier := notify.NewAsync(notify.Multi{
		notify.Logging{Log: log},
		notify.Audit{Log: e.ps, Logger: log},
		certs,
		toUI,
	}, notifyQueue)
	defer notifier.Close()

	dir := content.NewDirSource(cfg.ContentDir)
	timers := timer.NewQueued(timerQueue)
	policies := cfg.Policies()

	open := func(ctx context.Context, moduleID string) (*player.Player, error) {
		return player.Open(ctx, player.Deps{
			Content:             player.Sources{e.ps, dir},
			Progress:            e.ps,
			Sessions:            sessions,
			Attempts:            e.ps,
			Feedback:            e.ps,
			Notifier:            notifier,
			Timers:              timers,
			Policies:            policies,
			Prompter:            completion.NewFeedbackPrompter(cfg.Completion.FeedbackProbability),
			DefaultPassingScore: cfg.Quiz.DefaultPassingScore,
			WriteQueue:          cfg.WriteQueue,
			Log:                 log,
		}, cfg.Learner, moduleID)
	}

	return app.Run(app.Options{
		Learner: cfg.Learner,
		Modules: modules.Deps{
			Learner: cfg.Learner,
			List: func(ctx context.Context) ([]*content.Module, error) {
				return player.ListModules(ctx, e.ps, dir)
			},
			Progress: e.ps,
			Open:     open,
			Certs:    certs,
			Attempts: e.store.AttemptRepo(),
		},
		Timers: timers,
		Events: events,
		Log:    log,
	})
}
