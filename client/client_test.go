package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	envelope "github.com/vaultsandbox/envelope-go"
	"github.com/vaultsandbox/envelope-go/httpapi"
	"github.com/vaultsandbox/envelope-go/sealedmail"
	"github.com/vaultsandbox/envelope-go/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *envelope.Signer) {
	t.Helper()

	signer, err := envelope.GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner() error = %v", err)
	}
	st, err := store.New(t.TempDir(), signer)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}

	a := httpapi.New(envelope.NewServerInfo(signer.PublicKey), st,
		httpapi.WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))))
	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return srv, signer
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(baseURL, WithRetryConfig(&RetryConfig{
		MaxRetries:  2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		Multiplier:  2.0,
		RetryableOn: DefaultRetryConfig().RetryableOn,
	}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") succeeded, want error")
	}
}

func TestServerInfo(t *testing.T) {
	srv, signer := newTestServer(t)
	c := newTestClient(t, srv.URL)

	info, err := c.ServerInfo(t.Context())
	if err != nil {
		t.Fatalf("ServerInfo() error = %v", err)
	}
	pk, err := info.ServerSigPkBytes()
	if err != nil {
		t.Fatalf("ServerSigPkBytes() error = %v", err)
	}
	if string(pk) != string(signer.PublicKey) {
		t.Error("server signing key mismatch")
	}
}

func TestIngestGetDelete(t *testing.T) {
	srv, signer := newTestServer(t)
	c := newTestClient(t, srv.URL)
	ctx := t.Context()

	kp, err := envelope.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error = %v", err)
	}

	id, err := c.Ingest(ctx, "inbox", httpapi.IngestRequest{
		Metadata:           sealedmail.Metadata{From: "a@example.com", Subject: "hi"},
		Parsed:             sealedmail.Parsed{Text: "hello"},
		Raw:                []byte("From: a@example.com\r\n\r\nhello"),
		RecipientPublicKey: kp.PublicKeyB64,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if id == "" {
		t.Fatal("Ingest() returned empty id")
	}

	entries, err := c.List(ctx, "inbox")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 || entries[0].ID != id {
		t.Fatalf("List() = %+v, want one entry with id %s", entries, id)
	}

	email, err := c.GetEmail(ctx, "inbox", entries[0].Key, kp,
		envelope.WithPinnedServerKey(signer.PublicKey))
	if err != nil {
		t.Fatalf("GetEmail() error = %v", err)
	}
	if email.Parsed.Text != "hello" {
		t.Errorf("Parsed.Text = %q, want %q", email.Parsed.Text, "hello")
	}

	if err := c.Delete(ctx, "inbox", entries[0].Key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err = c.GetSealed(ctx, "inbox", entries[0].Key)
	if !IsNotFound(err) {
		t.Errorf("GetSealed() after delete = %v, want not-found", err)
	}
}

func TestGetEmail_WrongKeypair(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newTestClient(t, srv.URL)
	ctx := t.Context()

	kp, err := envelope.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error = %v", err)
	}
	if _, err := c.Ingest(ctx, "inbox", httpapi.IngestRequest{
		Parsed:             sealedmail.Parsed{Text: "secret"},
		Raw:                []byte("secret"),
		RecipientPublicKey: kp.PublicKeyB64,
	}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	entries, err := c.List(ctx, "inbox")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	other, err := envelope.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error = %v", err)
	}
	if _, err := c.GetEmail(ctx, "inbox", entries[0].Key, other); !errors.Is(err, envelope.ErrAuthenticationFailed) {
		t.Errorf("GetEmail() error = %v, want ErrAuthenticationFailed", err)
	}
}

func TestRetry_TransientServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	entries, err := c.List(t.Context(), "inbox")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v, want empty", entries)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("handler called %d times, want 3", got)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.List(t.Context(), "inbox")
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("List() error = %v, want api error 503", err)
	}
}

func TestRetry_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad input"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.List(t.Context(), "inbox")
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Message != "bad input" {
		t.Fatalf("List() error = %v, want api error with message", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("handler called %d times, want 1", got)
	}
}

func TestWaitForEmail(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newTestClient(t, srv.URL)
	ctx := t.Context()

	kp, err := envelope.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error = %v", err)
	}

	// Pre-existing email should not satisfy the wait.
	if _, err := c.Ingest(ctx, "inbox", httpapi.IngestRequest{
		Parsed:             sealedmail.Parsed{Text: "old"},
		Raw:                []byte("old"),
		RecipientPublicKey: kp.PublicKeyB64,
	}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	var newID atomic.Value
	go func() {
		time.Sleep(50 * time.Millisecond)
		id, err := c.Ingest(context.Background(), "inbox", httpapi.IngestRequest{
			Parsed:             sealedmail.Parsed{Text: "fresh"},
			Raw:                []byte("fresh"),
			RecipientPublicKey: kp.PublicKeyB64,
		})
		if err == nil {
			newID.Store(id)
		}
	}()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry, err := c.WaitForEmail(waitCtx, "inbox", &WaitConfig{
		InitialInterval: 10 * time.Millisecond,
		MaxBackoff:      50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("WaitForEmail() error = %v", err)
	}
	if want := newID.Load(); want != nil && entry.ID != want.(string) {
		t.Errorf("entry.ID = %s, want %s", entry.ID, want)
	}
}

func TestWaitForEmail_ContextCancelled(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err := c.WaitForEmail(ctx, "empty", &WaitConfig{InitialInterval: 5 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForEmail() error = %v, want DeadlineExceeded", err)
	}
}
