package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JaimeStill/tollgate/internal/accounts"
	"github.com/JaimeStill/tollgate/internal/auth"
	"github.com/JaimeStill/tollgate/internal/schema"
	"github.com/JaimeStill/tollgate/pkg/apperr"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
)

const accountID = "6f1c1f9e-3c1a-4d55-9a63-0b1f5d2e7a10"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func sql(s string) string {
	return regexp.QuoteMeta(s)
}

func testConfig(t *testing.T) *auth.Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	cfg := &auth.Config{
		PrivateKey: base64.StdEncoding.EncodeToString(pem.EncodeToMemory(&pem.Block{
			Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key),
		})),
		PublicKey: base64.StdEncoding.EncodeToString(pem.EncodeToMemory(&pem.Block{
			Type: "PUBLIC KEY", Bytes: pub,
		})),
	}
	require.NoError(t, cfg.Finalize(nil))
	return cfg
}

type fixture struct {
	mock   pgxmock.PgxPoolIface
	signer *auth.Signer
	sys    *auth.System
	hasher accounts.Bcrypt
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	signer, err := auth.NewSigner(testConfig(t))
	require.NoError(t, err)

	hasher := accounts.Bcrypt{Cost: bcrypt.MinCost}
	repo := accounts.NewRepository(mock, schema.Relations(), nil)
	return &fixture{mock: mock, signer: signer, hasher: hasher, sys: auth.New(repo, signer, hasher, discard)}
}

func (f *fixture) expectByEmail(rows *pgxmock.Rows) {
	f.mock.ExpectQuery(sql("FROM public.accounts t WHERE t.email = $1 AND t.deleted_at IS NULL")).
		WithArgs("ada@example.com").
		WillReturnRows(rows)
}

func (f *fixture) expectByID() {
	f.mock.ExpectQuery(sql("FROM public.accounts t WHERE t.deleted_at IS NULL AND t.id = $1")).
		WithArgs(accountID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email"}).AddRow(accountID, "ada@example.com"))
}

func (f *fixture) expectTokensStored() {
	f.mock.ExpectQuery(sql("UPDATE public.accounts SET access_token = $1, refresh_token = $2, updated_at = NOW() WHERE id = $3 AND deleted_at IS NULL RETURNING *")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), accountID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(accountID))
}

func TestSignerRoundTrip(t *testing.T) {
	signer, err := auth.NewSigner(testConfig(t))
	require.NoError(t, err)

	token, err := signer.Sign(accountID, auth.AccessToken)
	require.NoError(t, err)

	sub, err := signer.Verify(token, auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, accountID, sub)

	_, err = signer.Verify(token, auth.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestSignerRejectsForeignKeyAndNonUUIDSubject(t *testing.T) {
	signer, err := auth.NewSigner(testConfig(t))
	require.NoError(t, err)
	other, err := auth.NewSigner(testConfig(t))
	require.NoError(t, err)

	token, err := other.Sign(accountID, auth.AccessToken)
	require.NoError(t, err)
	_, err = signer.Verify(token, auth.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	token, err = signer.Sign("not-a-uuid", auth.AccessToken)
	require.NoError(t, err)
	_, err = signer.Verify(token, auth.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
}

func TestSignUp(t *testing.T) {
	f := newFixture(t)

	f.expectByEmail(pgxmock.NewRows([]string{"id"}))
	f.mock.ExpectQuery(sql("INSERT INTO public.accounts (id, email, password)")).
		WithArgs(pgxmock.AnyArg(), "ada@example.com", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email"}).AddRow(accountID, "ada@example.com"))
	f.expectByID()
	f.expectTokensStored()

	tokens, err := f.sys.SignUp(context.Background(), accounts.CreateCommand{
		Email:    "Ada@example.com",
		Password: "secret1",
	}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 3600, tokens.ExpiresIn)

	sub, err := f.signer.Verify(tokens.AccessToken, auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, accountID, sub)
}

func TestSignUpDuplicate(t *testing.T) {
	f := newFixture(t)

	f.expectByEmail(pgxmock.NewRows([]string{"id"}).AddRow(accountID))

	err := f.sys.SignUp(context.Background(), accounts.CreateCommand{
		Email:    "ada@example.com",
		Password: "secret1",
	}).Err()
	assert.ErrorIs(t, err, accounts.ErrAlreadyExists)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	hash, err := f.hasher.Hash("secret1")
	require.NoError(t, err)

	f.expectByEmail(pgxmock.NewRows([]string{"id", "email", "password"}).AddRow(accountID, "ada@example.com", hash))
	f.expectByID()
	f.expectTokensStored()

	tokens, err := f.sys.Login(context.Background(), auth.LoginCommand{
		Email:    "ada@example.com",
		Password: "secret1",
	}).Unwrap()
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	tests := []struct {
		name     string
		password string
		found    bool
	}{
		{"wrong password", "wrong-secret", true},
		{"unknown account", "secret1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			hash, err := f.hasher.Hash("secret1")
			require.NoError(t, err)

			rows := pgxmock.NewRows([]string{"id", "email", "password"})
			if tt.found {
				rows.AddRow(accountID, "ada@example.com", hash)
			}
			f.expectByEmail(rows)

			err = f.sys.Login(context.Background(), auth.LoginCommand{
				Email:    "ada@example.com",
				Password: tt.password,
			}).Err()
			require.ErrorIs(t, err, accounts.ErrNotFound)
			assert.Equal(t, "Account with email ada@example.com not found", apperr.MessageOf(err))
		})
	}
}

func TestRefreshRequiresStoredToken(t *testing.T) {
	f := newFixture(t)

	current, err := f.signer.Sign(accountID, auth.RefreshToken)
	require.NoError(t, err)
	stale, err := f.signer.Sign(accountID, auth.RefreshToken)
	require.NoError(t, err)

	f.mock.ExpectQuery(sql("AND t.id = $1")).
		WithArgs(accountID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "refresh_token"}).AddRow(accountID, &current))

	err = f.sys.Refresh(context.Background(), auth.RefreshCommand{RefreshToken: stale}).Err()
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshRotates(t *testing.T) {
	f := newFixture(t)

	current, err := f.signer.Sign(accountID, auth.RefreshToken)
	require.NoError(t, err)

	f.mock.ExpectQuery(sql("AND t.id = $1")).
		WithArgs(accountID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "refresh_token"}).AddRow(accountID, &current))
	f.expectByID()
	f.expectTokensStored()

	tokens, err := f.sys.Refresh(context.Background(), auth.RefreshCommand{RefreshToken: current}).Unwrap()
	require.NoError(t, err)
	assert.NotEqual(t, current, tokens.RefreshToken)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	token, err := f.signer.Sign(accountID, auth.AccessToken)
	require.NoError(t, err)

	f.expectByID()

	var caller *reqctx.Account
	h := f.sys.Authenticate(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, _ := reqctx.From(r.Context())
		caller = rc.Account
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	reqctx.Middleware()(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, caller)
	assert.Equal(t, accountID, caller.ID)
}

func TestAuthenticateRejects(t *testing.T) {
	f := newFixture(t)
	refresh, err := f.signer.Sign(accountID, auth.RefreshToken)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"refresh token", "Bearer " + refresh},
		{"garbage", "Bearer abc.def.ghi"},
	}

	h := f.sys.Authenticate(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached")
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "InvalidToken", body["name"])
		})
	}
}
