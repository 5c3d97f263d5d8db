package social

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	tokens "github.com/goliatone/go-tokens"
)

// IdentityBridge connects OAuth providers to the local credential issuer.
// A completed provider flow resolves to a local user, created on first
// sight, and ends with a freshly issued credential pair.
type IdentityBridge struct {
	providers       map[string]SocialProvider
	state           StateManager
	users           tokens.Users
	issuer          *tokens.CredentialIssuer
	logger          tokens.Logger
	defaultRedirect string
}

// BridgeOption configures the bridge.
type BridgeOption func(*IdentityBridge)

// WithProvider registers a provider by its Name().
func WithProvider(p SocialProvider) BridgeOption {
	return func(b *IdentityBridge) {
		if p != nil {
			b.providers[p.Name()] = p
		}
	}
}

// WithBridgeLogger sets the logger.
func WithBridgeLogger(logger tokens.Logger) BridgeOption {
	return func(b *IdentityBridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithDefaultRedirect sets the post-auth redirect used when the state
// carries none.
func WithDefaultRedirect(url string) BridgeOption {
	return func(b *IdentityBridge) {
		b.defaultRedirect = url
	}
}

// NewIdentityBridge creates a new IdentityBridge
func NewIdentityBridge(users tokens.Users, issuer *tokens.CredentialIssuer, state StateManager, opts ...BridgeOption) *IdentityBridge {
	if users == nil {
		panic("identity bridge requires a user store")
	}
	if issuer == nil {
		panic("identity bridge requires a credential issuer")
	}
	if state == nil {
		panic("identity bridge requires a state manager")
	}

	b := &IdentityBridge{
		providers:       map[string]SocialProvider{},
		state:           state,
		users:           users,
		issuer:          issuer,
		defaultRedirect: "/",
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// ListProviders returns the registered provider names.
func (b *IdentityBridge) ListProviders() []string {
	names := make([]string, 0, len(b.providers))
	for name := range b.providers {
		names = append(names, name)
	}
	return names
}

// AuthRedirect is the outcome of BeginAuth.
type AuthRedirect struct {
	URL   string
	State string
}

// BeginAuth builds the provider authorization URL with an encrypted state
// and a PKCE challenge.
func (b *IdentityBridge) BeginAuth(ctx context.Context, providerName, redirectURL string) (*AuthRedirect, error) {
	provider, ok := b.providers[providerName]
	if !ok {
		return nil, ErrProviderNotFound
	}

	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate code verifier")
	}

	state := &OAuthState{
		Provider:     providerName,
		RedirectURL:  redirectURL,
		CodeVerifier: verifier,
	}

	encoded, err := b.state.Encode(state)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode oauth state")
	}

	url := provider.AuthCodeURL(encoded, WithPKCE(computeCodeChallenge(verifier), "S256"))

	return &AuthRedirect{
		URL:   url,
		State: encoded,
	}, nil
}

// AuthResult is the outcome of CompleteAuth.
type AuthResult struct {
	User        *tokens.User
	Pair        *tokens.TokenPair
	RedirectURL string
	IsNewUser   bool
}

// CompleteAuth finishes the OAuth flow: verifies the state, exchanges the
// code, fetches the profile, finds or creates the local user keyed by the
// provider's subject id, and issues a credential pair.
func (b *IdentityBridge) CompleteAuth(ctx context.Context, providerName, code, stateToken string) (*AuthResult, error) {
	provider, ok := b.providers[providerName]
	if !ok {
		return nil, ErrProviderNotFound
	}

	state, err := b.state.Decode(stateToken)
	if err != nil {
		return nil, err
	}

	if state.Provider != providerName {
		return nil, ErrInvalidState
	}

	var exchangeOpts []ExchangeOption
	if state.CodeVerifier != "" {
		exchangeOpts = append(exchangeOpts, WithCodeVerifier(state.CodeVerifier))
	}

	token, err := provider.Exchange(ctx, code, exchangeOpts...)
	if err != nil {
		return nil, wrapProviderError(ErrTokenExchangeFailed, providerName, "exchange", err)
	}

	profile, err := provider.UserInfo(ctx, token)
	if err != nil {
		return nil, wrapProviderError(ErrUserInfoFailed, providerName, "user_info", err)
	}

	user, isNew, err := b.findOrCreateUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	pair, err := b.issuer.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	redirect := state.RedirectURL
	if redirect == "" {
		redirect = b.defaultRedirect
	}

	return &AuthResult{
		User:        user,
		Pair:        pair,
		RedirectURL: redirect,
		IsNewUser:   isNew,
	}, nil
}

func (b *IdentityBridge) findOrCreateUser(ctx context.Context, profile *SocialProfile) (*tokens.User, bool, error) {
	user, err := b.users.GetByProviderID(ctx, profile.ProviderUserID)
	if err == nil {
		return user, false, nil
	}

	if !goerrors.IsNotFound(err) {
		return nil, false, goerrors.Wrap(err, tokens.ErrPersistence.Category, tokens.ErrPersistence.Message).
			WithTextCode(tokens.ErrPersistence.TextCode).
			WithCode(tokens.ErrPersistence.Code)
	}

	first, last := profileNames(profile)
	avatar := profile.AvatarURL
	if avatar == "" {
		avatar = tokens.DefaultAvatarURL
	}

	user = &tokens.User{
		FirstName:      first,
		LastName:       last,
		Email:          profile.Email,
		AvatarURL:      avatar,
		ProviderUserID: profile.ProviderUserID,
		Role:           tokens.RoleUser,
	}

	created, err := b.users.Create(ctx, user)
	if err != nil {
		return nil, false, goerrors.Wrap(err, tokens.ErrPersistence.Category, tokens.ErrPersistence.Message).
			WithTextCode(tokens.ErrPersistence.TextCode).
			WithCode(tokens.ErrPersistence.Code)
	}

	return created, true, nil
}

func profileNames(profile *SocialProfile) (string, string) {
	first := profile.FirstName
	last := profile.LastName

	if first == "" && profile.Name != "" {
		parts := strings.SplitN(profile.Name, " ", 2)
		first = parts[0]
		if last == "" && len(parts) > 1 {
			last = parts[1]
		}
	}

	return first, last
}
