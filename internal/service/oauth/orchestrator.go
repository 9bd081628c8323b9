package oauth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	oauthadapter "github.com/smallbiznis/valora-connect/internal/adapter/oauth"
	"github.com/smallbiznis/valora-connect/internal/domain/integration"
	"github.com/smallbiznis/valora-connect/internal/repository"
)

const (
	stateKeyPrefix       = "connect:state:"
	credentialsKeyPrefix = "connect:credentials:"

	defaultAttemptTTL = 600 * time.Second
)

// CallbackParams captures the query parameters a provider sends back to the
// redirect URI.
type CallbackParams struct {
	Code             string
	State            string
	ErrorCode        string
	ErrorDescription string
}

// Orchestrator drives the authorize -> callback -> retrieval sequence for
// every configured provider. State and verifier entries are namespaced by
// (provider, org, user) so concurrent attempts never collide, and every
// stored value carries a TTL bounding how long an abandoned flow can be
// replayed.
type Orchestrator struct {
	adapters   map[integration.Provider]oauthadapter.Adapter
	store      repository.CredentialStore
	attemptTTL time.Duration
	logger     *zap.Logger
}

// NewOrchestrator wires the orchestrator over the given adapters and store.
func NewOrchestrator(adapters []oauthadapter.Adapter, store repository.CredentialStore, attemptTTL time.Duration, logger *zap.Logger) *Orchestrator {
	if attemptTTL <= 0 {
		attemptTTL = defaultAttemptTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	byProvider := make(map[integration.Provider]oauthadapter.Adapter, len(adapters))
	for _, a := range adapters {
		byProvider[a.Provider()] = a
	}
	return &Orchestrator{
		adapters:   byProvider,
		store:      store,
		attemptTTL: attemptTTL,
		logger:     logger,
	}
}

// Authorize begins an authorization attempt: it mints the CSRF secret (and
// PKCE pair when the provider variant requires one), persists the attempt
// with a TTL, and returns the provider authorization URL.
func (o *Orchestrator) Authorize(ctx context.Context, provider integration.Provider, userID, orgID string) (string, error) {
	if userID == "" || orgID == "" {
		return "", integration.ErrInvalidRequest
	}
	adapter, ok := o.adapters[provider]
	if !ok {
		return "", integration.ErrProviderNotFound
	}

	secret, err := secureRandomString(32)
	if err != nil {
		return "", fmt.Errorf("generate state secret: %w", err)
	}

	state := integration.AuthState{
		Secret:    secret,
		UserID:    userID,
		OrgID:     orgID,
		CreatedAt: time.Now().UTC(),
	}

	challenge := ""
	if adapter.RequiresPKCE() {
		verifier, err := secureRandomString(48)
		if err != nil {
			return "", fmt.Errorf("generate pkce verifier: %w", err)
		}
		state.CodeVerifier = verifier
		challenge = pkceChallenge(verifier)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	if err := o.store.Set(ctx, stateKey(provider, orgID, userID), payload, o.attemptTTL); err != nil {
		return "", fmt.Errorf("persist state: %w", err)
	}

	encoded, err := encodeState(statePayload{Secret: secret, UserID: userID, OrgID: orgID})
	if err != nil {
		return "", err
	}

	authorizeURL, err := adapter.AuthorizeURL(encoded, challenge)
	if err != nil {
		return "", fmt.Errorf("build authorize url: %w", err)
	}

	o.logger.Info("authorization started",
		zap.String("provider", string(provider)),
		zap.String("org_id", orgID),
		zap.String("user_id", userID),
	)
	return authorizeURL, nil
}

// HandleCallback verifies the returned state against the stored attempt,
// exchanges the code, and stores the resulting credentials for one-time
// retrieval. Verification is a hard CSRF gate: a missing or mismatched
// secret fails the attempt, never bypassed.
func (o *Orchestrator) HandleCallback(ctx context.Context, provider integration.Provider, params CallbackParams) error {
	adapter, ok := o.adapters[provider]
	if !ok {
		return integration.ErrProviderNotFound
	}
	if params.ErrorCode != "" {
		return fmt.Errorf("%w: provider returned %q", integration.ErrInvalidRequest, params.ErrorCode)
	}
	if params.Code == "" || params.State == "" {
		return fmt.Errorf("%w: missing code or state parameter", integration.ErrInvalidRequest)
	}

	wire, err := decodeState(params.State)
	if err != nil {
		return fmt.Errorf("%w: malformed state parameter", integration.ErrInvalidRequest)
	}
	if wire.UserID == "" || wire.OrgID == "" {
		return fmt.Errorf("%w: state missing user/org context", integration.ErrInvalidRequest)
	}

	key := stateKey(provider, wire.OrgID, wire.UserID)
	stored, err := o.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if stored == nil {
		return integration.ErrStateMismatch
	}
	var saved integration.AuthState
	if err := json.Unmarshal(stored, &saved); err != nil {
		return fmt.Errorf("decode stored state: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(saved.Secret), []byte(wire.Secret)) != 1 {
		return integration.ErrStateMismatch
	}

	// The attempt is single-use: consume it before the exchange so a failed
	// exchange cannot be replayed with the same state.
	if err := o.store.Delete(ctx, key); err != nil {
		o.logger.Warn("failed to delete consumed state", zap.Error(err))
	}

	creds, err := adapter.Exchange(ctx, params.Code, saved.CodeVerifier)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := o.store.Set(ctx, credentialsKey(provider, wire.OrgID, wire.UserID), payload, o.attemptTTL); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}

	o.logger.Info("token exchanged",
		zap.String("provider", string(provider)),
		zap.String("org_id", wire.OrgID),
		zap.String("user_id", wire.UserID),
	)
	return nil
}

// RetrieveCredentials hands out the stored credentials exactly once; the
// read and delete are a single atomic step, so a second call (or a racing
// concurrent one) gets ErrCredentialsNotFound.
func (o *Orchestrator) RetrieveCredentials(ctx context.Context, provider integration.Provider, userID, orgID string) (*integration.Credentials, error) {
	if _, ok := o.adapters[provider]; !ok {
		return nil, integration.ErrProviderNotFound
	}
	payload, err := o.store.GetDelete(ctx, credentialsKey(provider, orgID, userID))
	if err != nil {
		return nil, fmt.Errorf("consume credentials: %w", err)
	}
	if payload == nil {
		return nil, integration.ErrCredentialsNotFound
	}
	var creds integration.Credentials
	if err := json.Unmarshal(payload, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return &creds, nil
}

func stateKey(provider integration.Provider, orgID, userID string) string {
	return fmt.Sprintf("%s%s:%s:%s", stateKeyPrefix, provider, orgID, userID)
}

func credentialsKey(provider integration.Provider, orgID, userID string) string {
	return fmt.Sprintf("%s%s:%s:%s", credentialsKeyPrefix, provider, orgID, userID)
}
