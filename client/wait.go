package client

import (
	"context"
	"time"

	"github.com/vaultsandbox/envelope-go/httpapi"
)

// Default polling configuration values.
const (
	DefaultWaitInitialInterval   = 2 * time.Second
	DefaultWaitMaxBackoff        = 30 * time.Second
	DefaultWaitBackoffMultiplier = 1.5
	DefaultWaitJitterFactor      = 0.3
)

// WaitConfig tunes WaitForEmail's polling. The interval starts at
// InitialInterval and grows by BackoffMultiplier after each empty poll, up
// to MaxBackoff, with JitterFactor random spread to avoid synchronized
// polling across clients.
type WaitConfig struct {
	InitialInterval   time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	JitterFactor      float64
}

func (w *WaitConfig) withDefaults() WaitConfig {
	out := WaitConfig{
		InitialInterval:   DefaultWaitInitialInterval,
		MaxBackoff:        DefaultWaitMaxBackoff,
		BackoffMultiplier: DefaultWaitBackoffMultiplier,
		JitterFactor:      DefaultWaitJitterFactor,
	}
	if w == nil {
		return out
	}
	if w.InitialInterval > 0 {
		out.InitialInterval = w.InitialInterval
	}
	if w.MaxBackoff > 0 {
		out.MaxBackoff = w.MaxBackoff
	}
	if w.BackoffMultiplier > 0 {
		out.BackoffMultiplier = w.BackoffMultiplier
	}
	if w.JitterFactor > 0 {
		out.JitterFactor = w.JitterFactor
	}
	return out
}

// WaitForEmail polls the mailbox until an entry arrives that was not present
// at the first poll, and returns it. It blocks until then or until ctx is
// done. A mailbox that does not exist yet counts as empty.
func (c *Client) WaitForEmail(ctx context.Context, mailbox string, cfg *WaitConfig) (*httpapi.EmailEntry, error) {
	conf := cfg.withDefaults()

	known := make(map[string]bool)
	first := true
	interval := conf.InitialInterval

	for {
		entries, err := c.List(ctx, mailbox)
		if err != nil && !IsNotFound(err) {
			return nil, err
		}

		if first {
			for _, e := range entries {
				known[e.Key] = true
			}
			first = false
		} else {
			for _, e := range entries {
				if !known[e.Key] {
					return &e, nil
				}
			}
		}

		timer := time.NewTimer(jittered(interval, conf.JitterFactor))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * conf.BackoffMultiplier)
		if interval > conf.MaxBackoff {
			interval = conf.MaxBackoff
		}
	}
}
