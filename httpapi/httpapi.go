// Package httpapi exposes the sandbox's sealed-email store over HTTP. The
// server never returns plaintext: clients fetch sealed records and the
// server-info discovery payload, and perform envelope opening themselves
// with their inbox secret key.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	envelope "github.com/vaultsandbox/envelope-go"
	"github.com/vaultsandbox/envelope-go/sealedmail"
	"github.com/vaultsandbox/envelope-go/store"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	info   envelope.ServerInfo
	store  *store.Store
	logger *slog.Logger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for request events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// New creates a new API instance serving info as the discovery payload and
// st as the sealed-email backend.
func New(info envelope.ServerInfo, st *store.Store, opts ...Option) *API {
	a := &API{
		info:  info,
		store: st,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/api/server-info", a.ServerInfo)

	r.Route("/api/mailboxes/{mailbox}/emails", func(r chi.Router) {
		r.Post("/", a.IngestEmail)
		r.Get("/", a.ListEmails)
		r.Get("/{key}", a.GetEmail)
		r.Delete("/{key}", a.DeleteEmail)
	})

	return r
}

// ServerInfo serves the signing public key and algorithm suite that clients
// need before sealing or verifying anything.
func (a *API) ServerInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.info)
}

// IngestRequest carries one captured email and the recipient key to seal it
// under. Plaintext appears here only in transit; it is sealed before any
// write to disk.
type IngestRequest struct {
	Metadata           sealedmail.Metadata `json:"metadata"`
	Parsed             sealedmail.Parsed   `json:"parsed"`
	Raw                []byte              `json:"raw"`
	RecipientPublicKey string              `json:"recipientPublicKey"`
}

// IngestResponse reports the stored record's id.
type IngestResponse struct {
	ID string `json:"id"`
}

func (a *API) IngestEmail(w http.ResponseWriter, r *http.Request) {
	mailbox := chi.URLParam(r, "mailbox")

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	recipientPk, err := envelope.DecodePublicKey(req.RecipientPublicKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipient public key")
		return
	}

	se, err := a.store.Ingest(mailbox, req.Metadata, req.Parsed, req.Raw, recipientPk)
	if err != nil {
		a.mapError(w, r, err)
		return
	}

	a.logger.Info("email sealed",
		slog.String("mailbox", mailbox),
		slog.String("id", se.ID))
	writeJSON(w, http.StatusCreated, IngestResponse{ID: se.ID})
}

// EmailEntry is one row of a mailbox listing.
type EmailEntry struct {
	Key string `json:"key"`
	ID  string `json:"id"`
}

func (a *API) ListEmails(w http.ResponseWriter, r *http.Request) {
	mailbox := chi.URLParam(r, "mailbox")

	entries, err := a.store.List(mailbox)
	if err != nil {
		a.mapError(w, r, err)
		return
	}

	out := make([]EmailEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, EmailEntry{Key: e.Key, ID: e.ID})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) GetEmail(w http.ResponseWriter, r *http.Request) {
	mailbox := chi.URLParam(r, "mailbox")
	key := chi.URLParam(r, "key")

	se, err := a.store.Get(mailbox, key)
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, se)
}

func (a *API) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	mailbox := chi.URLParam(r, "mailbox")
	key := chi.URLParam(r, "key")

	if err := a.store.Delete(mailbox, key); err != nil {
		a.mapError(w, r, err)
		return
	}

	a.logger.Info("email evicted",
		slog.String("mailbox", mailbox),
		slog.String("key", key))
	w.WriteHeader(http.StatusNoContent)
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func (a *API) mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrMailboxNotFound),
		errors.Is(err, store.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidMailbox),
		errors.Is(err, envelope.ErrInvalidKeyMaterial):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
