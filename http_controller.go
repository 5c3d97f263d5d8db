package tokens

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// FavoritesStore is the optional slice of the store the favorites endpoints
// need. The in-memory and Bun stores both implement it.
type FavoritesStore interface {
	AddFavorite(ctx context.Context, userID, city string) error
	RemoveFavorite(ctx context.Context, userID, city string) error
}

// RegisterAuthRoutes wires the credential endpoints into the router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register.post")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login.post")

	app.Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh.post")

	app.Post(controller.Routes.Logout, controller.LogoutPost, controller.Gate).
		SetName("auth.logout.post")

	app.Post(controller.Routes.LogoutAll, controller.LogoutAllPost, controller.Gate).
		SetName("auth.logout-all.post")

	app.Get(controller.Routes.Me, controller.MeGet, controller.Gate).
		SetName("auth.me.get")

	app.Get(controller.Routes.Users, controller.UsersGet, controller.Gate, RequireRole(RoleAdmin, controller.Logger)).
		SetName("auth.users.get")

	if controller.Favorites != nil {
		app.Post(controller.Routes.Favorites, controller.FavoriteAdd, controller.Gate).
			SetName("auth.favorites.post")
		app.Delete(controller.Routes.Favorites, controller.FavoriteRemove, controller.Gate).
			SetName("auth.favorites.delete")
	}
}

type AuthControllerRoutes struct {
	Register  string
	Login     string
	Refresh   string
	Logout    string
	LogoutAll string
	Me        string
	Users     string
	Favorites string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Config       Config
	Users        Users
	Provider     *UserProvider
	Issuer       *CredentialIssuer
	Rotator      *RefreshRotator
	Registrar    *RegisterUserHandler
	Cookies      *CookieManager
	Favorites    FavoritesStore
	Gate         router.MiddlewareFunc
	Routes       *AuthControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:  "/auth/register",
			Login:     "/auth/login",
			Refresh:   "/auth/refresh",
			Logout:    "/auth/logout",
			LogoutAll: "/auth/logout-all",
			Me:        "/auth/me",
			Users:     "/users",
			Favorites: "/favorites",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Users == nil {
		panic("Missing user store in auth controller...")
	}

	if c.Issuer == nil {
		panic("Missing CredentialIssuer in auth controller...")
	}

	if c.Rotator == nil {
		panic("Missing RefreshRotator in auth controller...")
	}

	if c.Gate == nil {
		panic("Missing authorization gate in auth controller...")
	}

	if c.Provider == nil {
		c.Provider = NewUserProvider(c.Users).WithLogger(c.Logger)
	}

	if c.Registrar == nil {
		c.Registrar = NewRegisterUserHandler(c.Users)
	}

	if c.Cookies == nil {
		c.Cookies = NewCookieManager(c.Config)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx router.Context, err error) error {
			return WriteError(ctx, c.Logger, err)
		}
	}

	return c
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrMissingCredential)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	if a.Debug {
		fmt.Println("======= TOKENS LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("===========================")
	}

	user, err := a.Provider.VerifyCredentials(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	pair, err := a.Issuer.Issue(ctx.Context(), user)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.Cookies.SetAuthCookies(ctx, pair)

	return ctx.JSON(router.StatusOK, user)
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: "failed to parse body"})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	req := RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
		UseHashid: true,
	}

	user, err := a.Registrar.Execute(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("register user: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	pair, err := a.Issuer.Issue(ctx.Context(), user)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.Cookies.SetAuthCookies(ctx, pair)

	return ctx.JSON(router.StatusCreated, user)
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	oldToken := a.Cookies.RefreshCookie(ctx)

	pair, err := a.Rotator.Rotate(ctx.Context(), oldToken)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.Cookies.SetAuthCookies(ctx, pair)

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "refreshed",
	})
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	user, ok := UserFromRouterContext(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	if refreshToken := a.Cookies.RefreshCookie(ctx); refreshToken != "" {
		if err := a.Issuer.Revoke(ctx.Context(), user.ID.String(), refreshToken); err != nil {
			return a.ErrorHandler(ctx, err)
		}
	}

	a.Cookies.ClearAuthCookies(ctx)

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "logged out",
	})
}

func (a *AuthController) LogoutAllPost(ctx router.Context) error {
	user, ok := UserFromRouterContext(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	if err := a.Issuer.RevokeAll(ctx.Context(), user.ID.String()); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.Cookies.ClearAuthCookies(ctx)

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "logged out everywhere",
	})
}

func (a *AuthController) MeGet(ctx router.Context) error {
	user, ok := UserFromRouterContext(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}
	return ctx.JSON(router.StatusOK, user)
}

func (a *AuthController) UsersGet(ctx router.Context) error {
	users, err := a.Users.List(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}
	return ctx.JSON(router.StatusOK, users)
}

// FavoritePayload is the favorites payload
type FavoritePayload struct {
	City string `form:"city" json:"city"`
}

// Validate will run validation rules
func (r FavoritePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
	)
}

func (a *AuthController) FavoriteAdd(ctx router.Context) error {
	return a.favoriteMutate(ctx, a.Favorites.AddFavorite)
}

func (a *AuthController) FavoriteRemove(ctx router.Context) error {
	return a.favoriteMutate(ctx, a.Favorites.RemoveFavorite)
}

func (a *AuthController) favoriteMutate(ctx router.Context, op func(context.Context, string, string) error) error {
	user, ok := UserFromRouterContext(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	payload := new(FavoritePayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: "failed to parse body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	if err := op(ctx.Context(), user.ID.String(), payload.City); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ValidateStringEquals builds an ozzo rule asserting equality with expected.
func ValidateStringEquals(expected string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return fmt.Errorf("values do not match")
		}
		return nil
	}
}
