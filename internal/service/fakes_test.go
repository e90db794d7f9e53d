package service

import (
	"context"
	"sort"
	"sync"

	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/repository"
)

// fakeUserStore is an in-memory UserStore returning the repository
// package's sentinel errors, like the real thing.
type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[int64]*model.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}

	f.nextID++
	user.ID = f.nextID
	clone := *user
	f.byID[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// fakeSessionStore is an in-memory SessionStore.
type fakeSessionStore struct {
	mu       sync.Mutex
	byToken  map[string]*model.Session
	saveErr  error
	loadErr  error
	destroys int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{byToken: make(map[string]*model.Session)}
}

func (f *fakeSessionStore) SaveSession(_ context.Context, session *model.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *session
	f.byToken[session.Token] = &clone
	return nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, token string) (*model.Session, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byToken[token]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSessionStore) DeleteSession(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byToken, token)
	f.destroys++
	return nil
}

// fakePostStore is an in-memory PostStore. ListPosts returns newest
// first to match the real query's ORDER BY.
type fakePostStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.Post
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{byID: make(map[int64]*model.Post)}
}

func (f *fakePostStore) CreatePost(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	post.ID = f.nextID
	clone := *post
	f.byID[post.ID] = &clone
	return nil
}

func (f *fakePostStore) GetPostByID(_ context.Context, id int64) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakePostStore) GetPostForOwner(_ context.Context, id, ownerID int64) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.AuthorID != ownerID {
		return nil, repository.ErrPostNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakePostStore) PostExists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakePostStore) ListPosts(_ context.Context) ([]*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(*model.Post) bool { return true }), nil
}

func (f *fakePostStore) ListPostsByOwner(_ context.Context, ownerID int64) ([]*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(p *model.Post) bool { return p.AuthorID == ownerID }), nil
}

func (f *fakePostStore) UpdatePost(_ context.Context, id, ownerID int64, title, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.AuthorID != ownerID {
		return repository.ErrPostNotFound
	}
	p.Title = title
	p.Content = content
	return nil
}

func (f *fakePostStore) DeletePost(_ context.Context, id, ownerID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.AuthorID != ownerID {
		return 0, nil
	}
	delete(f.byID, id)
	return 1, nil
}

func (f *fakePostStore) sorted(keep func(*model.Post) bool) []*model.Post {
	var posts []*model.Post
	for _, p := range f.byID {
		if keep(p) {
			clone := *p
			posts = append(posts, &clone)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts
}
