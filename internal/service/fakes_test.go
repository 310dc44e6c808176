package service

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/sakif/postmuse/internal/apperror"
	"github.com/sakif/postmuse/internal/model"
	"github.com/sakif/postmuse/internal/repository"
)

// fakeUserRepo is an in-memory repository.UserRepository keyed by email.
type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int64
	// set to simulate a database failure
	err error
	// emails whose posts were cascaded away by DeleteUser
	deleted []string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[u.Email]; ok {
		return apperror.Conflict("user", u.Email)
	}
	f.nextID++
	u.ID = f.nextID
	stored := *u
	f.users[u.Email] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) ListUsers(_ context.Context) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, email string, upd repository.UserUpdate) error {
	u, ok := f.users[email]
	if !ok {
		return apperror.NotFound("user", email)
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.APICalls != nil {
		u.APICalls = *upd.APICalls
	}
	return nil
}

func (f *fakeUserRepo) IncrementAPICalls(_ context.Context, email string, limit int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return false, apperror.NotFound("user", email)
	}
	if !u.IsAdmin() && u.APICalls >= limit {
		return false, nil
	}
	u.APICalls++
	return true, nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, email string) error {
	if _, ok := f.users[email]; !ok {
		return apperror.NotFound("user", email)
	}
	delete(f.users, email)
	f.deleted = append(f.deleted, email)
	return nil
}

// fakePostRepo is an in-memory repository.PostRepository.
type fakePostRepo struct {
	posts  map[int64]*model.ScheduledPost
	nextID int64
	err    error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*model.ScheduledPost)}
}

func (f *fakePostRepo) CreatePost(_ context.Context, p *model.ScheduledPost) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	p.ID = f.nextID
	p.ReminderSent = false
	stored := *p
	f.posts[p.ID] = &stored
	return nil
}

func (f *fakePostRepo) GetPost(_ context.Context, id int64) (*model.ScheduledPost, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", "x")
	}
	out := *p
	return &out, nil
}

func (f *fakePostRepo) list(keep func(*model.ScheduledPost) bool) []model.ScheduledPost {
	out := make([]model.ScheduledPost, 0, len(f.posts))
	for _, p := range f.posts {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakePostRepo) ListPostsByUser(_ context.Context, email string) ([]model.ScheduledPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list(func(p *model.ScheduledPost) bool { return p.UserEmail == email }), nil
}

func (f *fakePostRepo) ListAllPosts(_ context.Context) ([]model.ScheduledPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list(func(*model.ScheduledPost) bool { return true }), nil
}

func (f *fakePostRepo) DeletePost(_ context.Context, id int64) error {
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", "x")
	}
	delete(f.posts, id)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
