package tokens_test

import (
	"context"
	"testing"

	tokens "github.com/goliatone/go-tokens"
	"github.com/goliatone/go-tokens/repository"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	controller *tokens.AuthController
	store      *repository.MemoryStore
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	cfg := gateConfig()
	access := tokens.NewAccessTokenService(cfg, testLogger{})
	refresh := tokens.NewRefreshTokenService(cfg, testLogger{})
	store := repository.NewMemoryStore()

	issuer := tokens.NewCredentialIssuer(access, refresh, store)
	rotator := tokens.NewRefreshRotator(access, refresh, store)
	gate := tokens.Protected(cfg, access, store, testLogger{})

	controller := tokens.NewAuthController(func(c *tokens.AuthController) *tokens.AuthController {
		c.Config = cfg
		c.Users = store
		c.Issuer = issuer
		c.Rotator = rotator
		c.Gate = gate
		c.Favorites = store
		c.Logger = testLogger{}
		return c
	})

	return &controllerFixture{
		controller: controller,
		store:      store,
	}
}

func (f *controllerFixture) registerUser(t *testing.T, email, password string) *tokens.User {
	t.Helper()

	user, err := f.controller.Registrar.Execute(context.Background(), tokens.RegisterUserMessage{
		FirstName: "Ada",
		Email:     email,
		Password:  password,
	})
	require.NoError(t, err)
	return user
}

func bindPayload[T any](payload T) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		target := args.Get(0).(*T)
		*target = payload
	}
}

func TestAuthController_LoginPost(t *testing.T) {
	t.Run("valid credentials set cookies and return the user", func(t *testing.T) {
		f := newControllerFixture(t)
		user := f.registerUser(t, "ada@example.com", "correct horse battery staple")

		mockCtx := new(MockContext)
		mockCtx.On("Bind", mock.Anything).Run(bindPayload(tokens.LoginRequest{
			Email:    "ada@example.com",
			Password: "correct horse battery staple",
		})).Return(nil)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("Cookie", mock.Anything).Return()

		var body any
		mockCtx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1)
		}).Return(nil)

		err := f.controller.LoginPost(mockCtx)
		require.NoError(t, err)

		got, ok := body.(*tokens.User)
		require.True(t, ok)
		assert.Equal(t, user.ID, got.ID)

		mockCtx.AssertNumberOfCalls(t, "Cookie", 2)

		active, err := f.store.RefreshTokens(context.Background(), user.ID.String())
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})

	t.Run("bad credentials return 401 without cookies", func(t *testing.T) {
		f := newControllerFixture(t)
		f.registerUser(t, "ada@example.com", "correct horse battery staple")

		mockCtx := new(MockContext)
		mockCtx.On("Bind", mock.Anything).Run(bindPayload(tokens.LoginRequest{
			Email:    "ada@example.com",
			Password: "not the password",
		})).Return(nil)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", router.StatusUnauthorized, mock.MatchedBy(func(body any) bool {
			resp, ok := body.(tokens.ErrorResponse)
			return ok && resp.Code == tokens.TextCodeInvalidCredentials
		})).Return(nil)

		err := f.controller.LoginPost(mockCtx)
		require.NoError(t, err)
		mockCtx.AssertNotCalled(t, "Cookie", mock.Anything)
	})

	t.Run("invalid payload is a 400", func(t *testing.T) {
		f := newControllerFixture(t)

		mockCtx := new(MockContext)
		mockCtx.On("Bind", mock.Anything).Run(bindPayload(tokens.LoginRequest{
			Email: "not-an-email",
		})).Return(nil)
		mockCtx.On("JSON", router.StatusBadRequest, mock.Anything).Return(nil)

		err := f.controller.LoginPost(mockCtx)
		require.NoError(t, err)
	})
}

func TestAuthController_RegisterPost(t *testing.T) {
	t.Run("creates the account and logs it in", func(t *testing.T) {
		f := newControllerFixture(t)

		mockCtx := new(MockContext)
		mockCtx.On("Bind", mock.Anything).Run(bindPayload(tokens.RegistrationCreatePayload{
			FirstName:       "Ada",
			LastName:        "Lovelace",
			Email:           "ada@example.com",
			Password:        "correct horse battery staple",
			ConfirmPassword: "correct horse battery staple",
		})).Return(nil)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("Cookie", mock.Anything).Return()

		var body any
		mockCtx.On("JSON", router.StatusCreated, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1)
		}).Return(nil)

		err := f.controller.RegisterPost(mockCtx)
		require.NoError(t, err)

		created, ok := body.(*tokens.User)
		require.True(t, ok)
		assert.Equal(t, "ada@example.com", created.Email)

		mockCtx.AssertNumberOfCalls(t, "Cookie", 2)
	})

	t.Run("password confirmation must match", func(t *testing.T) {
		f := newControllerFixture(t)

		mockCtx := new(MockContext)
		mockCtx.On("Bind", mock.Anything).Run(bindPayload(tokens.RegistrationCreatePayload{
			FirstName:       "Ada",
			Email:           "ada@example.com",
			Password:        "correct horse battery staple",
			ConfirmPassword: "something else entirely",
		})).Return(nil)
		mockCtx.On("JSON", router.StatusBadRequest, mock.Anything).Return(nil)

		err := f.controller.RegisterPost(mockCtx)
		require.NoError(t, err)
		mockCtx.AssertNotCalled(t, "Context")
	})
}

func TestAuthController_RefreshPost(t *testing.T) {
	t.Run("rotates the session", func(t *testing.T) {
		f := newControllerFixture(t)
		user := f.registerUser(t, "ada@example.com", "correct horse battery staple")

		pair, err := f.controller.Issuer.Issue(context.Background(), user)
		require.NoError(t, err)

		mockCtx := new(MockContext)
		mockCtx.On("Cookies", "refreshToken", "").Return(pair.RefreshToken)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("Cookie", mock.Anything).Return()
		mockCtx.On("JSON", router.StatusOK, map[string]string{"status": "refreshed"}).Return(nil)

		err = f.controller.RefreshPost(mockCtx)
		require.NoError(t, err)
		mockCtx.AssertExpectations(t)

		active, err := f.store.RefreshTokens(context.Background(), user.ID.String())
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.NotEqual(t, pair.RefreshToken, active[0])
	})

	t.Run("missing cookie is a 400", func(t *testing.T) {
		f := newControllerFixture(t)

		mockCtx := new(MockContext)
		mockCtx.On("Cookies", "refreshToken", "").Return("")
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", router.StatusBadRequest, mock.MatchedBy(func(body any) bool {
			resp, ok := body.(tokens.ErrorResponse)
			return ok && resp.Code == tokens.TextCodeMissingCredential
		})).Return(nil)

		err := f.controller.RefreshPost(mockCtx)
		require.NoError(t, err)
	})

	t.Run("rotated token cannot be replayed", func(t *testing.T) {
		f := newControllerFixture(t)
		user := f.registerUser(t, "ada@example.com", "correct horse battery staple")

		pair, err := f.controller.Issuer.Issue(context.Background(), user)
		require.NoError(t, err)

		_, err = f.controller.Rotator.Rotate(context.Background(), pair.RefreshToken)
		require.NoError(t, err)

		mockCtx := new(MockContext)
		mockCtx.On("Cookies", "refreshToken", "").Return(pair.RefreshToken)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", router.StatusForbidden, mock.MatchedBy(func(body any) bool {
			resp, ok := body.(tokens.ErrorResponse)
			return ok && resp.Code == tokens.TextCodeInvalidCredential
		})).Return(nil)

		err = f.controller.RefreshPost(mockCtx)
		require.NoError(t, err)
	})
}

func TestAuthController_Logout(t *testing.T) {
	t.Run("logout revokes the presented session", func(t *testing.T) {
		f := newControllerFixture(t)
		user := f.registerUser(t, "ada@example.com", "correct horse battery staple")

		pair, err := f.controller.Issuer.Issue(context.Background(), user)
		require.NoError(t, err)
		other, err := f.controller.Issuer.Issue(context.Background(), user)
		require.NoError(t, err)

		mockCtx := new(MockContext)
		mockCtx.On("Context").Return(tokens.WithContext(context.Background(), user))
		mockCtx.On("Cookies", "refreshToken", "").Return(pair.RefreshToken)
		mockCtx.On("Cookie", mock.Anything).Return()
		mockCtx.On("JSON", router.StatusOK, map[string]string{"status": "logged out"}).Return(nil)

		err = f.controller.LogoutPost(mockCtx)
		require.NoError(t, err)

		active, err := f.store.RefreshTokens(context.Background(), user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, []string{other.RefreshToken}, active)
	})

	t.Run("logout all revokes everything", func(t *testing.T) {
		f := newControllerFixture(t)
		user := f.registerUser(t, "ada@example.com", "correct horse battery staple")

		f.controller.Issuer.Issue(context.Background(), user)
		f.controller.Issuer.Issue(context.Background(), user)

		mockCtx := new(MockContext)
		mockCtx.On("Context").Return(tokens.WithContext(context.Background(), user))
		mockCtx.On("Cookie", mock.Anything).Return()
		mockCtx.On("JSON", router.StatusOK, map[string]string{"status": "logged out everywhere"}).Return(nil)

		err := f.controller.LogoutAllPost(mockCtx)
		require.NoError(t, err)

		active, err := f.store.RefreshTokens(context.Background(), user.ID.String())
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("logout without a user is unauthenticated", func(t *testing.T) {
		f := newControllerFixture(t)

		mockCtx := new(MockContext)
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("JSON", router.StatusUnauthorized, mock.Anything).Return(nil)

		err := f.controller.LogoutPost(mockCtx)
		require.NoError(t, err)
	})
}

func TestAuthController_MeGet(t *testing.T) {
	f := newControllerFixture(t)
	user := f.registerUser(t, "ada@example.com", "correct horse battery staple")

	mockCtx := new(MockContext)
	mockCtx.On("Context").Return(tokens.WithContext(context.Background(), user))

	var body any
	mockCtx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1)
	}).Return(nil)

	err := f.controller.MeGet(mockCtx)
	require.NoError(t, err)

	got, ok := body.(*tokens.User)
	require.True(t, ok)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthController_Favorites(t *testing.T) {
	f := newControllerFixture(t)
	user := f.registerUser(t, "ada@example.com", "correct horse battery staple")

	t.Run("adds a city", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Context").Return(tokens.WithContext(context.Background(), user))
		mockCtx.On("Bind", mock.Anything).Run(bindPayload(tokens.FavoritePayload{City: "London"})).Return(nil)
		mockCtx.On("JSON", router.StatusOK, map[string]string{"status": "ok"}).Return(nil)

		err := f.controller.FavoriteAdd(mockCtx)
		require.NoError(t, err)

		got, err := f.store.GetByID(context.Background(), user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, []string{"London"}, got.Favorites)
	})

	t.Run("removes a city", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Context").Return(tokens.WithContext(context.Background(), user))
		mockCtx.On("Bind", mock.Anything).Run(bindPayload(tokens.FavoritePayload{City: "London"})).Return(nil)
		mockCtx.On("JSON", router.StatusOK, map[string]string{"status": "ok"}).Return(nil)

		err := f.controller.FavoriteRemove(mockCtx)
		require.NoError(t, err)

		got, err := f.store.GetByID(context.Background(), user.ID.String())
		require.NoError(t, err)
		assert.Empty(t, got.Favorites)
	})

	t.Run("empty payload is rejected", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Context").Return(tokens.WithContext(context.Background(), user))
		mockCtx.On("Bind", mock.Anything).Run(bindPayload(tokens.FavoritePayload{})).Return(nil)
		mockCtx.On("JSON", router.StatusBadRequest, mock.Anything).Return(nil)

		err := f.controller.FavoriteAdd(mockCtx)
		require.NoError(t, err)
	})
}

func TestAuthController_UsersGet(t *testing.T) {
	f := newControllerFixture(t)
	f.registerUser(t, "ada@example.com", "correct horse battery staple")
	f.registerUser(t, "bob@example.com", "another fine password")

	mockCtx := new(MockContext)
	mockCtx.On("Context").Return(context.Background())

	var body any
	mockCtx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1)
	}).Return(nil)

	err := f.controller.UsersGet(mockCtx)
	require.NoError(t, err)

	users, ok := body.([]*tokens.User)
	require.True(t, ok)
	assert.Len(t, users, 2)
}
