package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	tokens "github.com/goliatone/go-tokens"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory tokens.Users for tests and demos. It mirrors
// the Bun store's semantics: ordered refresh collections, in-place swap,
// conditional update under a single lock.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[string]*tokens.User
	refresh map[string][]string
}

var _ tokens.Users = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   map[string]*tokens.User{},
		refresh: map[string][]string{},
	}
}

func notFound(lookup string) error {
	return errors.New("record not found", errors.CategoryNotFound).
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{"lookup": lookup})
}

// GetByID implements tokens.Users.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*tokens.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, notFound("id")
	}
	return cloneUser(user), nil
}

// GetByEmail implements tokens.Users.
func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*tokens.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, notFound("email")
}

// GetByProviderID implements tokens.Users.
func (s *MemoryStore) GetByProviderID(ctx context.Context, providerUserID string) (*tokens.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.ProviderUserID != "" && user.ProviderUserID == providerUserID {
			return cloneUser(user), nil
		}
	}
	return nil, notFound("provider_user_id")
}

// Create implements tokens.Users.
func (s *MemoryStore) Create(ctx context.Context, user *tokens.User) (*tokens.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = tokens.RoleUser
	}
	if user.AvatarURL == "" {
		user.AvatarURL = tokens.DefaultAvatarURL
	}

	id := user.ID.String()
	if _, exists := s.users[id]; exists {
		return nil, errors.New("user already exists", errors.CategoryConflict).
			WithCode(errors.CodeConflict)
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, errors.New("email already registered", errors.CategoryConflict).
				WithCode(errors.CodeConflict)
		}
	}

	now := time.Now()
	user.CreatedAt = &now
	user.UpdatedAt = &now

	s.users[id] = cloneUser(user)
	return cloneUser(user), nil
}

// Update implements tokens.Users.
func (s *MemoryStore) Update(ctx context.Context, user *tokens.User) (*tokens.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := user.ID.String()
	if _, ok := s.users[id]; !ok {
		return nil, notFound("id")
	}

	now := time.Now()
	user.UpdatedAt = &now

	s.users[id] = cloneUser(user)
	return cloneUser(user), nil
}

// Delete removes the user and its refresh collection.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return notFound("id")
	}
	delete(s.users, id)
	delete(s.refresh, id)
	return nil
}

// List implements tokens.Users.
func (s *MemoryStore) List(ctx context.Context) ([]*tokens.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*tokens.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, cloneUser(user))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Email < out[j].Email
	})
	return out, nil
}

// RefreshTokens implements tokens.Users.
func (s *MemoryStore) RefreshTokens(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.refresh[userID]...), nil
}

// AppendRefreshToken implements tokens.Users.
func (s *MemoryStore) AppendRefreshToken(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refresh[userID] = append(s.refresh[userID], token)
	return nil
}

// SwapRefreshToken replaces oldToken in place. The whole operation runs
// under the store lock, so concurrent swaps of the same token serialize and
// only the first finds it.
func (s *MemoryStore) SwapRefreshToken(ctx context.Context, userID, oldToken, newToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection := s.refresh[userID]
	for i, t := range collection {
		if t == oldToken {
			collection[i] = newToken
			return nil
		}
	}
	return notFound("token")
}

// RemoveRefreshToken implements tokens.Users.
func (s *MemoryStore) RemoveRefreshToken(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection := s.refresh[userID]
	kept := collection[:0]
	for _, t := range collection {
		if t != token {
			kept = append(kept, t)
		}
	}
	s.refresh[userID] = kept
	return nil
}

// ClearRefreshTokens implements tokens.Users.
func (s *MemoryStore) ClearRefreshTokens(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.refresh, userID)
	return nil
}

// AddFavorite appends a city to the user's favorites, skipping duplicates.
func (s *MemoryStore) AddFavorite(ctx context.Context, userID, city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return notFound("id")
	}

	for _, fav := range user.Favorites {
		if fav == city {
			return nil
		}
	}
	user.Favorites = append(user.Favorites, city)
	return nil
}

// RemoveFavorite drops a city from the user's favorites.
func (s *MemoryStore) RemoveFavorite(ctx context.Context, userID, city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return notFound("id")
	}

	kept := user.Favorites[:0]
	for _, fav := range user.Favorites {
		if fav != city {
			kept = append(kept, fav)
		}
	}
	user.Favorites = kept
	return nil
}

func cloneUser(u *tokens.User) *tokens.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Favorites = append([]string(nil), u.Favorites...)
	return &clone
}
