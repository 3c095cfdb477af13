package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/knamoah/kasabot/internal/retry"
)

// Refresher pulls every configured source and swaps the result into the
// Store. Sources fail independently: a source that cannot be fetched keeps
// its previous content, and only when every source fails is the store left
// completely untouched.
type Refresher struct {
	store   *Store
	sources []Source
	policy  retry.Policy
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRefresher creates a Refresher. timeout bounds each fetch attempt;
// policy bounds how many attempts a source gets per refresh.
func NewRefresher(store *Store, sources []Source, policy retry.Policy, timeout time.Duration, logger zerolog.Logger) *Refresher {
	return &Refresher{
		store:   store,
		sources: sources,
		policy:  policy,
		timeout: timeout,
		logger:  logger.With().Str("component", "refresher").Logger(),
	}
}

// Refresh fetches all sources and installs a new snapshot. The error is
// non-nil only when every source failed; the caller treats it as a
// degraded condition, never as fatal.
func (r *Refresher) Refresh(ctx context.Context) error {
	if len(r.sources) == 0 {
		r.store.Replace(&Snapshot{RefreshedAt: time.Now()})
		return nil
	}

	prev := make(map[string]Document)
	for _, d := range r.store.Current().Documents {
		prev[d.SourceID] = d
	}

	docs := make([]Document, 0, len(r.sources))
	failed := 0
	for _, src := range r.sources {
		start := time.Now()
		text, err := r.fetchOne(ctx, src)
		if err != nil {
			failed++
			r.logger.Warn().
				Str("source", src.ID()).
				Dur("elapsed", time.Since(start)).
				Err(err).
				Msg("source fetch failed, retaining previous content")
			if old, ok := prev[src.ID()]; ok {
				docs = append(docs, old)
			}
			continue
		}
		r.logger.Info().
			Str("source", src.ID()).
			Int("chars", len(text)).
			Dur("elapsed", time.Since(start)).
			Msg("source fetched")
		docs = append(docs, Document{
			SourceID:  src.ID(),
			Text:      text,
			FetchedAt: time.Now(),
		})
	}

	if failed == len(r.sources) {
		// Stale-but-available beats empty: leave the store as it was.
		return fmt.Errorf("all %d knowledge sources failed", failed)
	}

	r.store.Replace(&Snapshot{
		Documents:   docs,
		RefreshedAt: time.Now(),
	})
	return nil
}

// fetchOne fetches a single source, retrying transient failures. Each
// attempt gets its own timeout.
func (r *Refresher) fetchOne(ctx context.Context, src Source) (string, error) {
	var text string
	err := r.policy.Do(ctx, func() error {
		fctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		got, err := src.Fetch(fctx)
		if err != nil {
			return err
		}
		text = got
		return nil
	})
	return text, err
}
