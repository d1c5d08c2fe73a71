package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/password"
	"github.com/wolfeidau/multicloud/internal/store/memory"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	stores   *memory.Stores
	clock    *testClock
	codec    *TokenCodec
	issuer   *Issuer
	gate     *Gate
	resolver *TenantResolver
	chain    *Chain
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	clock := &testClock{now: time.Now().UTC()}
	stores := memory.NewStores()

	codec, err := NewTokenCodec(TokenConfig{Secret: testSecret, Issuer: "multicloud", Now: clock.Now})
	require.NoError(t, err)

	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	opts = append([]Option{WithClock(clock.Now)}, opts...)
	gate := NewGate(codec, stores.Sessions, stores.Accounts, opts...)
	resolver := NewTenantResolver(stores.Memberships, stores.Organizations, opts...)

	return &testEnv{
		stores:   stores,
		clock:    clock,
		codec:    codec,
		issuer:   NewIssuer(stores.Accounts, stores.Sessions, hasher, codec, opts...),
		gate:     gate,
		resolver: resolver,
		chain:    NewChain(gate, resolver, opts...),
	}
}

const testPassword = "Abc12345!"

// registerAndLogin registers an account with the given email and tax id and logs it in.
func (e *testEnv) registerAndLogin(t *testing.T, email, cpf string) (*models.PublicAccount, *TokenPair) {
	t.Helper()
	ctx := context.Background()

	account, err := e.issuer.Register(ctx, RegisterInput{Name: "Test User", Email: email, CPF: cpf, Password: testPassword})
	require.NoError(t, err)

	pair, err := e.issuer.Login(ctx, email, testPassword, SessionMeta{UserAgent: "test", IPAddress: "127.0.0.1"})
	require.NoError(t, err)

	return account, pair
}

func (e *testEnv) createOrganization(t *testing.T, name string) *models.Organization {
	t.Helper()
	now := e.clock.Now()
	org := &models.Organization{ID: uuid.Must(uuid.NewV7()), Name: name, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, e.stores.Organizations.Create(context.Background(), org))
	return org
}

func (e *testEnv) addMember(t *testing.T, accountID, orgID uuid.UUID, role models.Role) {
	t.Helper()
	require.NoError(t, e.stores.Memberships.Create(context.Background(), &models.Membership{
		ID:             uuid.Must(uuid.NewV7()),
		AccountID:      accountID,
		OrganizationID: orgID,
		Role:           role,
		JoinedAt:       e.clock.Now(),
	}))
}

func requireAPIError(t *testing.T, err error, kind apierr.Kind, message string) {
	t.Helper()
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, kind, apiErr.Kind)
	require.Equal(t, []string{message}, apiErr.Messages)
}

// serve runs h against a GET request carrying the given bearer token and extra headers.
func serve(h http.Handler, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func requireEnvelope(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, status, body.StatusCode)
	require.Equal(t, message, body.Message)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})
