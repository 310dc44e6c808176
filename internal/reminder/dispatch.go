package reminder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/postmuse/internal/clock"
	"github.com/sakif/postmuse/internal/repository"
)

// Config holds the dispatch job settings.
type Config struct {
	// TemplatePath is the notification body template.
	TemplatePath string
	// Order selects mark-first or emit-first delivery.
	Order Order
}

// DefaultConfig matches the layout the scheduled workflow expects.
func DefaultConfig() Config {
	return Config{
		TemplatePath: ".github/emails/reminder_body.md",
		Order:        MarkFirst,
	}
}

// Dispatcher runs reminder passes against the store.
type Dispatcher struct {
	store    repository.ReminderRepository
	clock    clock.Clock
	zone     clock.Zone
	notifier Notifier
	config   Config
	logger   *slog.Logger
}

func NewDispatcher(
	store repository.ReminderRepository,
	clk clock.Clock,
	zone clock.Zone,
	notifier Notifier,
	cfg Config,
	logger *slog.Logger,
) *Dispatcher {
	if cfg.Order == "" {
		cfg.Order = MarkFirst
	}
	return &Dispatcher{
		store:    store,
		clock:    clk,
		zone:     zone,
		notifier: notifier,
		config:   cfg,
		logger:   logger,
	}
}

// Run performs one pass. Any returned error is fatal for the pass; a post
// whose owner is not a known user is skipped with a warning, left unmarked
// and will be selected again next time.
//
// When nothing is due, Run returns an empty batch without touching the
// store, reading the template or calling the notifier.
func (d *Dispatcher) Run(ctx context.Context) (*Batch, error) {
	batch := newBatch()
	log := d.logger.With(slog.String("run", batch.RunID.String()))

	now := d.clock.Now()
	due, err := d.store.DueReminders(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("reminder: selecting due posts: %w", err)
	}
	if len(due) == 0 {
		log.Info("no due reminders")
		return batch, nil
	}
	batch.DueCount = len(due)

	users, err := d.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("reminder: listing users: %w", err)
	}
	known := make(map[string]struct{}, len(users))
	for _, u := range users {
		known[u.Email] = struct{}{}
	}

	tmpl, err := LoadTemplate(d.config.TemplatePath)
	if err != nil {
		return nil, err
	}

	var pending []int64
	for _, r := range due {
		if _, ok := known[r.UserEmail]; !ok {
			log.Warn("skipping reminder for unknown user",
				slog.Int64("post", r.PostID),
				slog.String("user", r.UserEmail),
			)
			continue
		}

		body := tmpl.Render(r, d.zone)
		if d.config.Order == MarkFirst {
			if err := d.store.MarkReminderSent(ctx, r.PostID); err != nil {
				return nil, fmt.Errorf("reminder: marking post %d sent: %w", r.PostID, err)
			}
		} else {
			pending = append(pending, r.PostID)
		}
		batch.add(r.UserEmail, body)

		log.Info("prepared reminder",
			slog.Int64("post", r.PostID),
			slog.String("user", r.UserEmail),
			slog.String("platform", r.Platform),
			slog.String("scheduleTime", r.ScheduleTime),
		)
	}

	if err := d.notifier.Emit(ctx, batch); err != nil {
		return nil, fmt.Errorf("reminder: emitting batch: %w", err)
	}

	for _, id := range pending {
		if err := d.store.MarkReminderSent(ctx, id); err != nil {
			return nil, fmt.Errorf("reminder: marking post %d sent after emit: %w", id, err)
		}
	}

	log.Info("reminder pass complete",
		slog.Int("due", batch.DueCount),
		slog.Int("prepared", batch.Len()),
		slog.String("order", string(d.config.Order)),
	)
	return batch, nil
}
