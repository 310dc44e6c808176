// Package service contains the business rules that sit between the HTTP
// handlers and the SQLite repository.
//
//	Handler (HTTP) → Service (rules, normalization) → Repository (SQL)
//
// Services accept plain values, return domain errors from apperror, and
// know nothing about HTTP. The reminder dispatch job does not go through
// this package; it talks to the repository directly through the narrow
// repository.ReminderRepository interface.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/postmuse/internal/apperror"
	"github.com/sakif/postmuse/internal/clock"
	"github.com/sakif/postmuse/internal/model"
	"github.com/sakif/postmuse/internal/repository"
)

// ScheduleService is the scheduling API: create, list and delete posts.
//
// VALIDATION BOUNDARY:
// This layer checks what the store cannot: an owner that still exists, a
// known platform, non-blank content, a positive lead time. It does NOT reject a
// scheduled time in the past, and Delete does not check ownership. Both are
// the caller's job (the HTTP handlers do it; see DeleteFor).
type ScheduleService struct {
	posts     repository.PostRepository
	users     repository.UserRepository
	zone      clock.Zone
	platforms model.Platforms
	logger    *slog.Logger
}

func NewScheduleService(
	posts repository.PostRepository,
	users repository.UserRepository,
	zone clock.Zone,
	platforms model.Platforms,
	logger *slog.Logger,
) *ScheduleService {
	return &ScheduleService{
		posts:     posts,
		users:     users,
		zone:      zone,
		platforms: platforms,
		logger:    logger,
	}
}

// Platforms returns the supported platform tags.
func (s *ScheduleService) Platforms() []string {
	return s.platforms.Tags()
}

// Create normalizes when to the fixed zone and stores a new post with
// reminderSent=false. The owner must be a registered user; a session that
// outlived its account is Forbidden.
func (s *ScheduleService) Create(
	ctx context.Context,
	owner, platform, content string,
	when time.Time,
	leadMinutes int,
) (*model.ScheduledPost, error) {
	owner = model.NormalizeEmail(owner)
	if owner == "" {
		return nil, apperror.ValidationFailed("owner", "post owner is required")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if !s.platforms.Contains(platform) {
		return nil, apperror.ValidationFailed("platform",
			fmt.Sprintf("unsupported platform %q (supported: %s)", platform, strings.Join(s.platforms.Tags(), ", ")))
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", "post content is required")
	}
	if when.IsZero() {
		return nil, apperror.ValidationFailed("scheduleTime", "schedule time is required")
	}
	if leadMinutes <= 0 {
		return nil, apperror.ValidationFailed("reminderMinutes", "reminder lead time must be a positive number of minutes")
	}
	if _, err := s.users.GetUserByEmail(ctx, owner); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("refused post for unknown owner", slog.String("owner", owner))
			return nil, apperror.Forbidden("account " + owner + " no longer exists")
		}
		return nil, fmt.Errorf("service: checking owner %s: %w", owner, err)
	}

	post := &model.ScheduledPost{
		UserEmail:       owner,
		Platform:        platform,
		Content:         content,
		ScheduleTime:    s.zone.Normalize(when),
		ReminderMinutes: leadMinutes,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to schedule post",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service: scheduling post: %w", err)
	}

	s.logger.Info("post scheduled",
		slog.Int64("id", post.ID),
		slog.String("owner", owner),
		slog.String("platform", platform),
		slog.String("scheduleTime", post.ScheduleTime),
		slog.Int("reminderMinutes", leadMinutes),
	)
	return post, nil
}

// ListForUser returns the owner's posts, earliest first.
func (s *ScheduleService) ListForUser(ctx context.Context, owner string) ([]model.ScheduledPost, error) {
	owner = model.NormalizeEmail(owner)
	if owner == "" {
		return nil, apperror.ValidationFailed("owner", "post owner is required")
	}
	posts, err := s.posts.ListPostsByUser(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("service: listing posts for %s: %w", owner, err)
	}
	return posts, nil
}

// ListAll is the administrative view, earliest first.
func (s *ScheduleService) ListAll(ctx context.Context) ([]model.ScheduledPost, error) {
	posts, err := s.posts.ListAllPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: listing all posts: %w", err)
	}
	return posts, nil
}

func (s *ScheduleService) Get(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	return s.posts.GetPost(ctx, id)
}

// Delete removes a post unconditionally.
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	if err := s.posts.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("service: deleting post %d: %w", id, err)
	}
	s.logger.Info("scheduled post deleted", slog.Int64("id", id))
	return nil
}

// DeleteFor deletes a post on behalf of actor. Owners may delete their own
// posts and admins may delete any; everyone else gets Forbidden.
func (s *ScheduleService) DeleteFor(ctx context.Context, actor, actorRole string, id int64) error {
	actor = model.NormalizeEmail(actor)
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.UserEmail != actor && actorRole != model.RoleAdmin {
		s.logger.Warn("refused to delete post of another user",
			slog.Int64("id", id),
			slog.String("owner", post.UserEmail),
			slog.String("actor", actor),
		)
		return apperror.Forbidden("post " + strconv.FormatInt(id, 10) + " belongs to another user")
	}
	return s.Delete(ctx, id)
}
