package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/postmuse/internal/model"
	"github.com/sakif/postmuse/internal/repository"
)

var _ repository.ReminderRepository = (*DB)(nil)

// DueReminders selects every unsent post whose reminder window contains now:
//
//	schedule - lead <= now < schedule
//
// Both sides are compared as Unix seconds, not as ISO strings, so rows
// written with a different offset or with fractional seconds still compare
// correctly. A post whose scheduled time has passed is never returned: a
// missed reminder is dropped, not sent late.
func (db *DB) DueReminders(ctx context.Context, now time.Time) ([]model.DueReminder, error) {
	nowUnix := now.Unix()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_email, platform, content, schedule_time, reminder_minutes
		FROM (
			SELECT id, user_email, platform, content, schedule_time, reminder_minutes,
			       `+scheduleEpoch+` AS schedule_epoch
			FROM scheduled_posts
			WHERE reminder_sent = 0
		)
		WHERE schedule_epoch > ?
		  AND ? >= schedule_epoch - reminder_minutes * 60
		ORDER BY schedule_epoch, id`,
		nowUnix, nowUnix,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: selecting due reminders: %w", err)
	}
	defer rows.Close()

	due := []model.DueReminder{}
	for rows.Next() {
		var r model.DueReminder
		if err := rows.Scan(
			&r.PostID,
			&r.UserEmail,
			&r.Platform,
			&r.Content,
			&r.ScheduleTime,
			&r.ReminderMinutes,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning due reminder: %w", err)
		}
		due = append(due, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating due reminders: %w", err)
	}
	return due, nil
}

// MarkReminderSent sets reminder_sent for one post. The flag only ever goes
// false → true. A post deleted since it was selected, or one already marked,
// is silently skipped.
func (db *DB) MarkReminderSent(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE scheduled_posts SET reminder_sent = 1 WHERE id = ? AND reminder_sent = 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking reminder sent for post %d: %w", id, err)
	}
	return nil
}
