package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/cache-fest/festival-registration/events"
	"github.com/cache-fest/festival-registration/memstore"
	"github.com/cache-fest/festival-registration/qr"
	"github.com/cache-fest/festival-registration/receipt"
	"github.com/cache-fest/festival-registration/registration"
	"github.com/stretchr/testify/require"
)

var noopLogger = slog.New(slog.DiscardHandler)

var fixedNow = time.Date(2025, time.October, 16, 4, 0, 0, 0, time.UTC)

const testAdminToken = "let-me-in"

type mockSubmitter struct {
	SubmitFunc func(ctx context.Context, reg registration.Registration) (registration.Delivery, error)
}

func (m *mockSubmitter) Submit(ctx context.Context, reg registration.Registration) (registration.Delivery, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, reg)
	}
	return registration.Delivery{Strategy: "json-post", Confirmed: true, StatusCode: http.StatusOK}, nil
}

type mockVerifier struct {
	VerifyFunc func(ctx context.Context, image []byte, expected string) (registration.Verification, error)
}

func (m *mockVerifier) Verify(ctx context.Context, image []byte, expected string) (registration.Verification, error) {
	return m.VerifyFunc(ctx, image, expected)
}

type mockEmailSender struct {
	mu   sync.Mutex
	sent []email.Email
}

func (m *mockEmailSender) SendEmail(ctx context.Context, e email.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, e)
	return nil
}

type testEnv struct {
	api    *API
	server *httptest.Server
	store  *memstore.Store
	emails *mockEmailSender
}

func newTestEnv(t *testing.T, submitter registration.Submitter, verifier registration.ProofVerifier) *testEnv {
	t.Helper()

	catalog := events.FestivalCatalog()
	store := memstore.New()
	emails := &mockEmailSender{}

	deps := registration.Dependencies{
		Catalog:       catalog,
		UsedRefs:      store,
		Registrations: store,
		Submitter:     submitter,
		Verifier:      verifier,
		Receipts:      receipt.NewGenerator(catalog),
		EmailSender:   emails,
		EmailFrom:     "Cache 2025 <noreply@cache.fest>",
		Logger:        noopLogger,
		Now:           func() time.Time { return fixedNow },
	}

	a := NewAPI(deps, qr.NewRenderer(qr.WithLogger(noopLogger)), Config{
		Env:        LOCAL,
		AdminToken: testAdminToken,
	}, noopLogger)

	handler, err := a.Handler()
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		a.Close()
	})

	return &testEnv{api: a, server: server, store: store, emails: emails}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decodeResp[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
