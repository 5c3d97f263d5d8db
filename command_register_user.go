package tokens

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

type RegisterUserMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Password  string `json:"password"`
	UseHashid bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates local accounts.
type RegisterUserHandler struct {
	users Users
}

// NewRegisterUserHandler creates a new RegisterUserHandler
func NewRegisterUserHandler(users Users) *RegisterUserHandler {
	if users == nil {
		panic("register handler requires a user store")
	}
	return &RegisterUserHandler{users: users}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	role := event.Role
	if _, ok := ParseRole(role); !ok {
		role = RoleUser
	}

	user := &User{
		FirstName:    event.FirstName,
		LastName:     event.LastName,
		Email:        event.Email,
		PasswordHash: hash,
		Role:         role,
		AvatarURL:    DefaultAvatarURL,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			user.ID = id
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	created, err := h.users.Create(ctx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	return created, nil
}
