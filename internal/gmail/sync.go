package gmail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"

	"github.com/finchmail/finch/internal/db"
	"github.com/finchmail/finch/internal/models"
)

const (
	// fullSyncMaxResults caps how many messages per label a full sync pulls.
	fullSyncMaxResults = 100

	// searchSyncMaxResults caps how many remote search hits get cached.
	searchSyncMaxResults = 200

	// fetchBatchSize is how many messages are fetched concurrently. Batches
	// run sequentially so a large sync cannot exhaust the API quota in one
	// burst.
	fetchBatchSize = 10
)

// ErrSyncCancelled is returned when a sync run was cancelled, either by the
// caller going away or by a newer sync request superseding it.
var ErrSyncCancelled = errors.New("sync cancelled")

type syncRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Sync runs a full sync for the user. Only one sync runs per user at a time:
// a new call cancels the in-flight run and takes its place.
func (s *Service) Sync(ctx context.Context, userID string) (int, error) {
	return s.runExclusive(ctx, userID, func(runCtx context.Context) (int, error) {
		return s.SyncAll(runCtx, userID)
	})
}

// SyncChanges runs an incremental sync under the same single-flight rules as
// Sync.
func (s *Service) SyncChanges(ctx context.Context, userID string) (int, error) {
	return s.runExclusive(ctx, userID, func(runCtx context.Context) (int, error) {
		return s.SyncIncremental(runCtx, userID)
	})
}

func (s *Service) runExclusive(ctx context.Context, userID string, fn func(context.Context) (int, error)) (int, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := &syncRun{cancel: cancel, done: make(chan struct{})}
	defer close(run.done)

	s.mu.Lock()
	prev := s.running[userID]
	s.running[userID] = run
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	defer func() {
		s.mu.Lock()
		if s.running[userID] == run {
			delete(s.running, userID)
		}
		s.mu.Unlock()
	}()

	count, err := fn(runCtx)
	if err != nil && runCtx.Err() != nil {
		return count, ErrSyncCancelled
	}

	return count, err
}

// Syncing reports whether a sync is in flight for the user.
func (s *Service) Syncing(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[userID]
	return ok
}

// SyncAll pulls the newest messages from INBOX and SENT and caches them, then
// stores the account's history cursor so later syncs can be incremental.
func (s *Service) SyncAll(ctx context.Context, userID string) (int, error) {
	mbox, err := s.newMailbox(ctx, userID)
	if err != nil {
		return 0, err
	}

	// Pull both labels so the cache covers conversations from either side.
	var ids []string
	seen := make(map[string]bool)
	for _, label := range []string{"INBOX", "SENT"} {
		labelIDs, err := mbox.ListMessageIDs(ctx, label, fullSyncMaxResults)
		if err != nil {
			return 0, fmt.Errorf("failed to list %s: %w", label, err)
		}

		for _, id := range labelIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	count, err := s.fetchAndStore(ctx, mbox, userID, ids)
	if err != nil {
		return count, err
	}

	profile, err := mbox.Profile(ctx)
	if err != nil {
		return count, fmt.Errorf("failed to get profile after sync: %w", err)
	}

	if profile.HistoryId > 0 {
		cursor := fmt.Sprintf("%d", profile.HistoryId)
		if err := db.SetUserHistoryID(ctx, s.pool, userID, cursor); err != nil {
			return count, err
		}
	}

	log.Printf("SyncService: full sync for user %s cached %d messages", userID, count)

	return count, nil
}

// SyncIncremental replays the Gmail change history since the stored cursor.
// A user with no cursor, or a cursor Gmail has expired, falls back to a full
// sync.
func (s *Service) SyncIncremental(ctx context.Context, userID string) (int, error) {
	historyID, err := db.GetUserHistoryID(ctx, s.pool, userID)
	if err != nil {
		return 0, err
	}

	if historyID == nil {
		return s.SyncAll(ctx, userID)
	}

	mbox, err := s.newMailbox(ctx, userID)
	if err != nil {
		return 0, err
	}

	histories, cursor, err := mbox.History(ctx, *historyID)
	if err != nil {
		if isNotFound(err) {
			log.Printf("SyncService: history cursor expired for user %s, running full sync", userID)
			return s.SyncAll(ctx, userID)
		}
		return 0, err
	}

	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, h := range histories {
		for _, m := range h.MessagesAdded {
			if m.Message != nil {
				add(m.Message.Id)
			}
		}
		for _, m := range h.LabelsAdded {
			if m.Message != nil {
				add(m.Message.Id)
			}
		}
		for _, m := range h.LabelsRemoved {
			if m.Message != nil {
				add(m.Message.Id)
			}
		}
	}

	for _, id := range ids {
		msg, err := mbox.GetMessage(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			// The message was most likely deleted remotely; drop it from
			// the cache too.
			log.Printf("SyncService: failed to fetch changed message %s, removing from cache: %v", id, err)
			if err := db.DeleteMessage(ctx, s.pool, id); err != nil {
				return 0, err
			}
			continue
		}

		parsed := ParseMessage(msg)
		parsed.UserID = userID
		if err := db.UpsertMessage(ctx, s.pool, parsed); err != nil {
			return 0, err
		}
	}

	if cursor != "" {
		if err := db.SetUserHistoryID(ctx, s.pool, userID, cursor); err != nil {
			return 0, err
		}
	}

	if len(ids) > 0 {
		log.Printf("SyncService: incremental sync for user %s applied %d changes", userID, len(ids))
	}

	return len(ids), nil
}

// SyncSearch pushes the filter to Gmail's search and caches every hit, so the
// local query that follows sees messages that were never synced before.
func (s *Service) SyncSearch(ctx context.Context, userID string, filter *models.EmailFilter) (int, error) {
	mbox, err := s.newMailbox(ctx, userID)
	if err != nil {
		return 0, err
	}

	ids, err := mbox.Search(ctx, buildSearchQuery(filter), searchSyncMaxResults)
	if err != nil {
		return 0, err
	}

	return s.fetchAndStore(ctx, mbox, userID, ids)
}

// SyncThread fetches every message of a thread and caches it. Used to
// backfill threads where only one message made it into the sync window.
func (s *Service) SyncThread(ctx context.Context, userID, threadID string) (int, error) {
	mbox, err := s.newMailbox(ctx, userID)
	if err != nil {
		return 0, err
	}

	thread, err := mbox.GetThread(ctx, threadID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, msg := range thread.Messages {
		parsed := ParseMessage(msg)
		parsed.UserID = userID
		if err := db.UpsertMessage(ctx, s.pool, parsed); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// fetchAndStore fetches the given messages in concurrent batches and upserts
// them. A message that fails to fetch is skipped; a database failure aborts.
func (s *Service) fetchAndStore(ctx context.Context, mbox Mailbox, userID string, ids []string) (int, error) {
	var stored atomic.Int64

	for start := 0; start < len(ids); start += fetchBatchSize {
		end := min(start+fetchBatchSize, len(ids))

		g, gctx := errgroup.WithContext(ctx)
		for _, id := range ids[start:end] {
			g.Go(func() error {
				msg, err := mbox.GetMessage(gctx, id)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					log.Printf("Warning: failed to fetch message %s, skipping: %v", id, err)
					return nil
				}

				parsed := ParseMessage(msg)
				parsed.UserID = userID
				if err := db.UpsertMessage(gctx, s.pool, parsed); err != nil {
					return err
				}

				stored.Add(1)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return int(stored.Load()), err
		}
	}

	return int(stored.Load()), nil
}

// buildSearchQuery renders the filter as a Gmail search query string.
func buildSearchQuery(filter *models.EmailFilter) string {
	var parts []string

	if filter.Keyword != "" {
		parts = append(parts, filter.Keyword)
	}
	if filter.From != "" {
		parts = append(parts, "from:"+filter.From)
	}
	if filter.DateFrom != "" {
		parts = append(parts, "after:"+filter.DateFrom)
	}
	if filter.DateTo != "" {
		parts = append(parts, "before:"+filter.DateTo)
	}
	if filter.Label != "" && filter.Label != "INBOX" {
		parts = append(parts, "label:"+strings.ToLower(filter.Label))
	}

	return strings.Join(parts, " ")
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
