package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sakif/postmuse/internal/apperror"
	"github.com/sakif/postmuse/internal/model"
	"github.com/sakif/postmuse/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

const postColumns = `id, user_email, platform, content, schedule_time, reminder_minutes, reminder_sent`

// CreatePost inserts a post and fills in its generated id.
//
// The caller hands over ScheduleTime already normalized to the fixed zone;
// this layer stores the string verbatim. ReminderSent always starts false,
// whatever the struct says.
func (db *DB) CreatePost(ctx context.Context, post *model.ScheduledPost) error {
	post.ReminderSent = false

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO scheduled_posts (user_email, platform, content, schedule_time, reminder_minutes, reminder_sent)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.UserEmail,
		post.Platform,
		post.Content,
		post.ScheduleTime,
		post.ReminderMinutes,
		false,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating scheduled post for %s: %w", post.UserEmail, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: scheduled post last insert id: %w", err)
	}
	post.ID = id
	return nil
}

// GetPost returns apperror.ErrNotFound if the id is unknown.
func (db *DB) GetPost(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM scheduled_posts WHERE id = ?`,
		id,
	)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("scheduled post", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting scheduled post %d: %w", id, err)
	}
	return p, nil
}

// ListPostsByUser returns the user's posts, earliest scheduled time first.
func (db *DB) ListPostsByUser(ctx context.Context, email string) ([]model.ScheduledPost, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM scheduled_posts
		 WHERE user_email = ?
		 ORDER BY `+scheduleEpoch+` IS NULL, `+scheduleEpoch+`, id`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing scheduled posts for %s: %w", email, err)
	}
	return collectPosts(rows)
}

// ListAllPosts is the administrative view across all users.
func (db *DB) ListAllPosts(ctx context.Context) ([]model.ScheduledPost, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM scheduled_posts ORDER BY `+scheduleEpoch+` IS NULL, `+scheduleEpoch+`, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing all scheduled posts: %w", err)
	}
	return collectPosts(rows)
}

// DeletePost removes a post regardless of owner or reminder state.
// Ownership is the caller's business.
func (db *DB) DeletePost(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM scheduled_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting scheduled post %d: %w", id, err)
	}
	return requireAffected(res, "scheduled post", strconv.FormatInt(id, 10))
}

func collectPosts(rows *sql.Rows) ([]model.ScheduledPost, error) {
	defer rows.Close()

	posts := []model.ScheduledPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning scheduled post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating scheduled posts: %w", err)
	}
	return posts, nil
}

func scanPost(row interface {
	Scan(dest ...any) error
}) (*model.ScheduledPost, error) {
	var p model.ScheduledPost
	if err := row.Scan(
		&p.ID,
		&p.UserEmail,
		&p.Platform,
		&p.Content,
		&p.ScheduleTime,
		&p.ReminderMinutes,
		&p.ReminderSent,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
