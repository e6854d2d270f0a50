package usecase

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fixora/storefront/application/port/outbound"
	"github.com/fixora/storefront/domain/entity"
	domainerr "github.com/fixora/storefront/domain/error"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]entity.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return domainerr.ErrUsernameTaken
	}
	r.users[user.Username] = *user
	return nil
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, domainerr.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) UpdateAvatar(ctx context.Context, username, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return domainerr.ErrNotFound
	}
	u.AvatarURL = avatarURL
	r.users[username] = u
	return nil
}

func (r *memUserRepo) delete(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, username)
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// memRefreshRepo mirrors the DELETE ... RETURNING semantics of the Postgres store.
type memRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]entity.RefreshToken
	createErr error
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{tokens: make(map[string]entity.RefreshToken)}
}

func (r *memRefreshRepo) Create(ctx context.Context, token *entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *memRefreshRepo) consumeLocked(token string, now time.Time) (string, error) {
	rt, ok := r.tokens[token]
	if !ok {
		return "", domainerr.ErrInvalidRefreshToken
	}
	delete(r.tokens, token)
	if rt.IsExpired(now) {
		return "", domainerr.ErrInvalidRefreshToken
	}
	return rt.Username, nil
}

func (r *memRefreshRepo) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consumeLocked(token, now)
}

func (r *memRefreshRepo) Rotate(ctx context.Context, token string, next *entity.RefreshToken, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	username, err := r.consumeLocked(token, now)
	if err != nil {
		return "", err
	}
	next.Username = username
	r.tokens[next.Token] = *next
	return username, nil
}

func (r *memRefreshRepo) RevokeByUsername(ctx context.Context, username string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, rt := range r.tokens {
		if rt.Username == username {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *memRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, rt := range r.tokens {
		if rt.IsExpired(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *memRefreshRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// memTransactor snapshots the in-memory stores and restores them when fn fails.
type memTransactor struct {
	users  *memUserRepo
	tokens *memRefreshRepo
}

func (tx *memTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.users.mu.Lock()
	users := make(map[string]entity.User, len(tx.users.users))
	for k, v := range tx.users.users {
		users[k] = v
	}
	tx.users.mu.Unlock()

	tx.tokens.mu.Lock()
	tokens := make(map[string]entity.RefreshToken, len(tx.tokens.tokens))
	for k, v := range tx.tokens.tokens {
		tokens[k] = v
	}
	tx.tokens.mu.Unlock()

	if err := fn(ctx); err != nil {
		tx.users.mu.Lock()
		tx.users.users = users
		tx.users.mu.Unlock()
		tx.tokens.mu.Lock()
		tx.tokens.tokens = tokens
		tx.tokens.mu.Unlock()
		return err
	}
	return nil
}

type memProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products []entity.Product
	err      error
}

func (r *memProductRepo) Create(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.nextID++
	product.ID = r.nextID
	r.products = append(r.products, *product)
	return nil
}

func (r *memProductRepo) List(ctx context.Context, filter outbound.ProductFilter) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.Product
	for i := range r.products {
		p := r.products[i]
		if filter.Owner != "" && p.OwnerUsername != filter.Owner {
			continue
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	last   *entity.Product
}

func (n *recordingNotifier) Publish(event string, product *entity.Product) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.last = product
}

type fakeStorage struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (s *fakeStorage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	s.key = key
	s.contentType = contentType
	s.body = buf.Bytes()
	return "http://cdn.local/media-bucket/" + key, nil
}

type mockRateLimiter struct {
	mock.Mock
}

func (m *mockRateLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockRateLimiter) Increment(ctx context.Context, key string, window time.Duration) error {
	args := m.Called(ctx, key, window)
	return args.Error(0)
}

func (m *mockRateLimiter) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	args := m.Called(ctx, key, duration, reason)
	return args.Error(0)
}

func (m *mockRateLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockRateLimiter) GetAttempts(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}
