package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cosmoblog/cosmoblog/internal/apperr"
	"github.com/cosmoblog/cosmoblog/internal/model"
	"github.com/cosmoblog/cosmoblog/internal/repository"
)

// memPosts is an in-memory PostStore whose IncrementVisit is atomic under
// its lock, mirroring the store-level increment guarantee.
type memPosts struct {
	mu     sync.Mutex
	posts  map[string]*model.Post
	incErr error
}

func newMemPosts(posts ...*model.Post) *memPosts {
	m := &memPosts{posts: map[string]*model.Post{}}
	for _, p := range posts {
		m.posts[p.Slug] = p
	}
	return m
}

func (m *memPosts) Create(_ context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.posts[post.Slug]; exists {
		return repository.ErrDuplicateSlug
	}
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	cp := *post
	m.posts[post.Slug] = &cp
	return nil
}

func (m *memPosts) GetBySlug(_ context.Context, slug string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[slug]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memPosts) GetByID(_ context.Context, id uuid.UUID) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memPosts) List(context.Context, repository.ListOptions) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Post
	for _, p := range m.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memPosts) Update(_ context.Context, post *model.Post) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[post.Slug]; ok {
		*p = *post
		return true, nil
	}
	return false, nil
}

func (m *memPosts) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slug, p := range m.posts {
		if p.ID == id {
			delete(m.posts, slug)
			return true, nil
		}
	}
	return false, nil
}

func (m *memPosts) IncrementVisit(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return false, m.incErr
	}
	p, ok := m.posts[slug]
	if !ok {
		return false, nil
	}
	p.Visit++
	return true, nil
}

func (m *memPosts) visits(slug string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[slug]; ok {
		return p.Visit
	}
	return -1
}

type memUsers struct {
	byExternal map[string]*model.User
}

func (m *memUsers) GetByExternalID(_ context.Context, externalID string) (*model.User, error) {
	if u, ok := m.byExternal[externalID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func visitRequest(h *PostHandler, slug string) error {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/posts/"+slug, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/posts/:slug")
	c.SetParamNames("slug")
	c.SetParamValues(slug)

	return h.CountVisit(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
}

func TestCountVisit_Increments(t *testing.T) {
	store := newMemPosts(&model.Post{ID: uuid.New(), Slug: "hello-world", Visit: 5})
	h := &PostHandler{Posts: store, Log: zerolog.Nop()}

	if err := visitRequest(h, "hello-world"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := store.visits("hello-world"); got != 6 {
		t.Errorf("visit = %d, want 6", got)
	}
}

func TestCountVisit_MissingPostIs404(t *testing.T) {
	h := &PostHandler{Posts: newMemPosts(), Log: zerolog.Nop()}

	err := visitRequest(h, "nope")
	if got := apperr.From(err); got.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", got.Status)
	}
}

func TestCountVisit_IncrementFailureDoesNotBlockServing(t *testing.T) {
	store := newMemPosts(&model.Post{ID: uuid.New(), Slug: "hello-world"})
	store.incErr = errors.New("store hiccup")
	h := &PostHandler{Posts: store, Log: zerolog.Nop()}

	if err := visitRequest(h, "hello-world"); err != nil {
		t.Fatalf("increment failure should not fail the request: %v", err)
	}
}

func TestCountVisit_NoLostUpdates(t *testing.T) {
	store := newMemPosts(&model.Post{ID: uuid.New(), Slug: "hello-world", Visit: 0})
	h := &PostHandler{Posts: store, Log: zerolog.Nop()}

	const k = 100
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := visitRequest(h, "hello-world"); err != nil {
				t.Errorf("request: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := store.visits("hello-world"); got != k {
		t.Errorf("visit = %d, want exactly %d", got, k)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello World", "hello-world"},
		{"  Mixed CASE & Symbols!  ", "mixed-case-symbols"},
		{"--already--dashed--", "already-dashed"},
		{"çédille", "dille"},
		{"!!!", "post"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateWithUniqueSlug_SuffixesOnCollision(t *testing.T) {
	user := &model.User{ID: uuid.New(), ExternalID: "u1"}
	store := newMemPosts(
		&model.Post{ID: uuid.New(), Slug: "hello-world"},
		&model.Post{ID: uuid.New(), Slug: "hello-world-2"},
	)
	h := &PostHandler{Posts: store, Users: &memUsers{byExternal: map[string]*model.User{"u1": user}}, Log: zerolog.Nop()}

	post := &model.Post{UserID: user.ID, Title: "Hello World", Content: "body"}
	if err := h.createWithUniqueSlug(context.Background(), post); err != nil {
		t.Fatalf("create: %v", err)
	}
	if post.Slug != "hello-world-3" {
		t.Errorf("slug = %q, want hello-world-3", post.Slug)
	}
}
