package client

import (
	"context"
	"net/http"
	"net/url"

	envelope "github.com/vaultsandbox/envelope-go"
	"github.com/vaultsandbox/envelope-go/httpapi"
	"github.com/vaultsandbox/envelope-go/sealedmail"
)

// ServerInfo fetches and validates the server's discovery payload.
func (c *Client) ServerInfo(ctx context.Context) (*envelope.ServerInfo, error) {
	var info envelope.ServerInfo
	if err := c.do(ctx, http.MethodGet, "/api/server-info", nil, &info); err != nil {
		return nil, err
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return &info, nil
}

// Ingest submits a captured email for sealing into the given mailbox.
func (c *Client) Ingest(ctx context.Context, mailbox string, req httpapi.IngestRequest) (string, error) {
	var out httpapi.IngestResponse
	if err := c.do(ctx, http.MethodPost, mailboxPath(mailbox), req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// List returns the entries in a mailbox.
func (c *Client) List(ctx context.Context, mailbox string) ([]httpapi.EmailEntry, error) {
	var entries []httpapi.EmailEntry
	if err := c.do(ctx, http.MethodGet, mailboxPath(mailbox), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetSealed fetches one sealed record without opening it.
func (c *Client) GetSealed(ctx context.Context, mailbox, key string) (*sealedmail.SealedEmail, error) {
	var se sealedmail.SealedEmail
	if err := c.do(ctx, http.MethodGet, mailboxPath(mailbox)+"/"+url.PathEscape(key), nil, &se); err != nil {
		return nil, err
	}
	return &se, nil
}

// GetEmail fetches a sealed record and opens it locally with the inbox
// keypair. Pass envelope.WithPinnedServerKey to reject records signed by a
// different server.
func (c *Client) GetEmail(ctx context.Context, mailbox, key string, keypair *envelope.Keypair, opts ...envelope.OpenOption) (*sealedmail.Email, error) {
	se, err := c.GetSealed(ctx, mailbox, key)
	if err != nil {
		return nil, err
	}
	return sealedmail.Open(se, keypair, opts...)
}

// Delete evicts a sealed record from the mailbox.
func (c *Client) Delete(ctx context.Context, mailbox, key string) error {
	return c.do(ctx, http.MethodDelete, mailboxPath(mailbox)+"/"+url.PathEscape(key), nil, nil)
}

func mailboxPath(mailbox string) string {
	return "/api/mailboxes/" + url.PathEscape(mailbox) + "/emails"
}
