// Package repository declares the persistence contracts. The sqlite
// subpackage is the only implementation; services and the reminder
// dispatcher depend on these interfaces so they can be tested with fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/postmuse/internal/model"
)

// UserUpdate carries optional administrative edits. Nil fields are left as-is.
type UserUpdate struct {
	Role     *string
	APICalls *int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, email string, upd UserUpdate) error
	// IncrementAPICalls bumps the usage counter unless the user is a
	// regular user already at limit. It reports whether the counter moved.
	IncrementAPICalls(ctx context.Context, email string, limit int) (bool, error)
	// DeleteUser removes the user and every post they own in one transaction.
	DeleteUser(ctx context.Context, email string) error
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.ScheduledPost) error
	GetPost(ctx context.Context, id int64) (*model.ScheduledPost, error)
	ListPostsByUser(ctx context.Context, email string) ([]model.ScheduledPost, error)
	ListAllPosts(ctx context.Context) ([]model.ScheduledPost, error)
	DeletePost(ctx context.Context, id int64) error
}

// ReminderRepository is the narrow view the dispatch job needs.
type ReminderRepository interface {
	// DueReminders returns unsent posts whose reminder window
	// [schedule - lead, schedule) contains now, earliest first.
	DueReminders(ctx context.Context, now time.Time) ([]model.DueReminder, error)
	// MarkReminderSent flips the flag. Missing or already-sent ids are a no-op.
	MarkReminderSent(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]model.User, error)
}
