// Package reminder implements the dispatch job: select due posts, render a
// notification body for each, mark them sent and hand the batch to a
// Notifier.
package reminder

import (
	"context"
	"fmt"
	"strings"
)

// Notifier delivers a prepared batch. It is called at most once per run and
// never when nothing was due. A batch whose posts were all skipped is still
// emitted so the run's post count is reported.
type Notifier interface {
	Emit(ctx context.Context, batch *Batch) error
}

// Order controls when posts are marked sent relative to delivery.
type Order string

const (
	// MarkFirst marks each post before the batch is emitted. A failed emit
	// loses those reminders but never sends one twice.
	MarkFirst Order = "mark-first"
	// EmitFirst emits the batch and only then marks the posts. A failure
	// while marking may cause a duplicate reminder on the next run.
	EmitFirst Order = "emit-first"
)

// ParseOrder accepts "mark-first" or "emit-first". Blank means MarkFirst.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", MarkFirst:
		return MarkFirst, nil
	case EmitFirst:
		return EmitFirst, nil
	default:
		return "", fmt.Errorf("reminder: unknown delivery order %q", s)
	}
}
