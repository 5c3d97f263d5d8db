package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	tokens "github.com/goliatone/go-tokens"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokenRecord is the Bun model for the per-user refresh credential
// collection. The autoincrement id doubles as insertion order, so an
// UPDATE-in-place swap keeps every credential at its original position.
type RefreshTokenRecord struct {
	bun.BaseModel `bun:"table:user_refresh_tokens,alias:urt"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Token     string    `bun:"token,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

// UsersStore is the Bun-backed implementation of tokens.Users.
type UsersStore struct {
	repository.Repository[*tokens.User]
	db *bun.DB
}

var _ tokens.Users = (*UsersStore)(nil)

// NewUsersStore creates a new UsersStore
func NewUsersStore(db *bun.DB) *UsersStore {
	repo := repository.NewRepository[*tokens.User](db, repository.ModelHandlers[*tokens.User]{
		NewRecord: func() *tokens.User { return &tokens.User{} },
		GetID: func(u *tokens.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *tokens.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &UsersStore{
		Repository: repo,
		db:         db,
	}
}

// GetByID implements tokens.Users.
func (s *UsersStore) GetByID(ctx context.Context, id string) (*tokens.User, error) {
	return s.getOne(ctx, "usr.id = ?", id)
}

// GetByEmail implements tokens.Users.
func (s *UsersStore) GetByEmail(ctx context.Context, email string) (*tokens.User, error) {
	return s.getOne(ctx, "usr.email = ?", email)
}

// GetByProviderID implements tokens.Users.
func (s *UsersStore) GetByProviderID(ctx context.Context, providerUserID string) (*tokens.User, error) {
	return s.getOne(ctx, "usr.provider_user_id = ?", providerUserID)
}

func (s *UsersStore) getOne(ctx context.Context, where string, arg any) (*tokens.User, error) {
	user := &tokens.User{}
	err := s.db.NewSelect().
		Model(user).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"lookup": where,
			})
		}
		return nil, err
	}
	return user, nil
}

// Create implements tokens.Users.
func (s *UsersStore) Create(ctx context.Context, user *tokens.User) (*tokens.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = tokens.RoleUser
	}
	if user.AvatarURL == "" {
		user.AvatarURL = tokens.DefaultAvatarURL
	}
	return s.Repository.Create(ctx, user)
}

// Update implements tokens.Users.
func (s *UsersStore) Update(ctx context.Context, user *tokens.User) (*tokens.User, error) {
	return s.Repository.Update(ctx, user, repository.UpdateByID(user.ID.String()))
}

// List implements tokens.Users.
func (s *UsersStore) List(ctx context.Context) ([]*tokens.User, error) {
	var users []*tokens.User
	err := s.db.NewSelect().
		Model(&users).
		Order("usr.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// RefreshTokens returns the user's active refresh credentials in insertion
// order.
func (s *UsersStore) RefreshTokens(ctx context.Context, userID string) ([]string, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
			"user_id": userID,
		})
	}

	var out []string
	err = s.db.NewSelect().
		Model((*RefreshTokenRecord)(nil)).
		Column("token").
		Where("user_id = ?", uid).
		Order("id ASC").
		Scan(ctx, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AppendRefreshToken implements tokens.Users.
func (s *UsersStore) AppendRefreshToken(ctx context.Context, userID, token string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}

	_, err = s.db.NewInsert().
		Model(&RefreshTokenRecord{
			UserID: uid,
			Token:  token,
		}).
		Exec(ctx)
	return err
}

// SwapRefreshToken replaces oldToken with newToken as one conditional
// update. Zero matched rows means the token is already gone: rotated by a
// concurrent request, revoked, or never issued.
func (s *UsersStore) SwapRefreshToken(ctx context.Context, userID, oldToken, newToken string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}

	res, err := s.db.NewUpdate().
		Model((*RefreshTokenRecord)(nil)).
		Set("token = ?", newToken).
		Where("user_id = ? AND token = ?", uid, oldToken).
		Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"user_id": userID,
		})
	}
	return nil
}

// RemoveRefreshToken deletes one credential. Deleting a credential that is
// already gone is not an error.
func (s *UsersStore) RemoveRefreshToken(ctx context.Context, userID, token string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}

	_, err = s.db.NewDelete().
		Model((*RefreshTokenRecord)(nil)).
		Where("user_id = ? AND token = ?", uid, token).
		Exec(ctx)
	return err
}

// ClearRefreshTokens deletes every credential for the user.
func (s *UsersStore) ClearRefreshTokens(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}

	_, err = s.db.NewDelete().
		Model((*RefreshTokenRecord)(nil)).
		Where("user_id = ?", uid).
		Exec(ctx)
	return err
}

// AddFavorite appends a city to the user's favorites, skipping duplicates.
func (s *UsersStore) AddFavorite(ctx context.Context, userID, city string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	for _, fav := range user.Favorites {
		if fav == city {
			return nil
		}
	}

	user.Favorites = append(user.Favorites, city)
	_, err = s.Update(ctx, user)
	return err
}

// RemoveFavorite drops a city from the user's favorites.
func (s *UsersStore) RemoveFavorite(ctx context.Context, userID, city string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	kept := user.Favorites[:0]
	for _, fav := range user.Favorites {
		if fav != city {
			kept = append(kept, fav)
		}
	}

	user.Favorites = kept
	_, err = s.Update(ctx, user)
	return err
}
