package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/njoerd114/feedrelay/internal/model"
	"github.com/njoerd114/feedrelay/internal/users"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock post source --------------------------------------------------------

type mockPosts struct {
	mu       sync.Mutex
	posts    []model.RawPost // the whole feed in order
	comments map[int][]model.Comment
	pageErr  error // returned by FetchPage when set
	fetches  int
}

func newMockPosts(count int) *mockPosts {
	m := &mockPosts{comments: make(map[int][]model.Comment)}
	for i := 1; i <= count; i++ {
		m.posts = append(m.posts, model.RawPost{
			ID:          i,
			Title:       fmt.Sprintf("Post %d", i),
			Description: fmt.Sprintf("description %d", i),
			ImageURL:    fmt.Sprintf("http://img/%d.jpg", i),
			UserID:      100 + i,
		})
	}
	return m
}

// FetchPage serves posts[offset-1 : offset-1+limit], mirroring a 1-based feed.
func (m *mockPosts) FetchPage(_ context.Context, offset, limit int) ([]model.RawPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.pageErr != nil {
		return nil, m.pageErr
	}

	start := offset - 1
	if start < 0 || start >= len(m.posts) {
		return []model.RawPost{}, nil
	}
	end := start + limit
	if end > len(m.posts) {
		end = len(m.posts)
	}
	return m.posts[start:end], nil
}

func (m *mockPosts) FetchByID(_ context.Context, postID int) (model.RawPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.ID == postID {
			return p, nil
		}
	}
	return model.RawPost{}, fmt.Errorf("post %d not found", postID)
}

func (m *mockPosts) FetchComments(_ context.Context, postID int) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	return m.comments[postID], nil
}

func (m *mockPosts) setPageErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageErr = err
}

// --- Mock user resolver ------------------------------------------------------

type mockUsers struct {
	mu       sync.Mutex
	missing  map[int]bool // user ids that 404 (placeholder substituted)
	failing  map[int]bool // user ids whose resolution fails outright
	resolved int
}

func newMockUsers() *mockUsers {
	return &mockUsers{missing: make(map[int]bool), failing: make(map[int]bool)}
}

func (m *mockUsers) Resolve(_ context.Context, userID int) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved++

	if m.failing[userID] {
		return model.User{}, fmt.Errorf("resolving user %d: %w", userID, users.ErrResolutionFailed)
	}
	if m.missing[userID] {
		return model.PlaceholderUser(userID), nil
	}
	return model.User{
		ID:        userID,
		FirstName: "User",
		LastName:  fmt.Sprintf("%d", userID),
		ImageURL:  fmt.Sprintf("http://img/u%d.jpg", userID),
	}, nil
}

// --- Mock store --------------------------------------------------------------

type mockStore struct {
	mu          sync.Mutex
	posts       map[int]model.Post
	order       []int // insertion order of ids, unique
	upserts     int
	emptyChecks int
	storeErr    error // returned by every method when set
}

func newMockStore(seed ...model.Post) *mockStore {
	m := &mockStore{posts: make(map[int]model.Post)}
	for _, p := range seed {
		m.posts[p.ID] = p
		m.order = append(m.order, p.ID)
	}
	return m
}

func (m *mockStore) UpsertBatch(_ context.Context, batch []model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return m.storeErr
	}
	m.upserts++
	for _, p := range batch {
		if _, seen := m.posts[p.ID]; !seen {
			m.order = append(m.order, p.ID)
		}
		m.posts[p.ID] = p
	}
	return nil
}

func (m *mockStore) GetAll(_ context.Context) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	out := make([]model.Post, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.posts[id])
	}
	return out, nil
}

func (m *mockStore) GetByID(_ context.Context, postID int) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	p, ok := m.posts[postID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockStore) UpdateLikes(_ context.Context, postID int, likes []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return m.storeErr
	}
	p, ok := m.posts[postID]
	if !ok {
		return nil
	}
	p.Likes = likes
	m.posts[postID] = p
	return nil
}

func (m *mockStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return m.storeErr
	}
	m.posts = make(map[int]model.Post)
	m.order = nil
	return nil
}

func (m *mockStore) IsEmpty(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emptyChecks++
	if m.storeErr != nil {
		return false, m.storeErr
	}
	return len(m.posts) == 0, nil
}

func (m *mockStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}

func (m *mockStore) get(id int) (model.Post, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	return p, ok
}
