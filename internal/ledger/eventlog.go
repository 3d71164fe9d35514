package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/store"
	"github.com/feral-file/chain-estates/internal/types"
)

const verifyBatchSize = 500

// EventQuery filters the event log. Zero values mean no filter.
type EventQuery struct {
	Kinds      []domain.EventKind
	PropertyID *uint64
	// Address matches events where the address is the owner, seller or buyer
	Address *string
	Since   *time.Time
	Until   *time.Time
	// After returns only events with a sequence greater than After
	After  *uint64
	Limit  int
	Offset uint64
	Newest bool
}

// EventLog exposes the append-only history of committed transitions
type EventLog interface {
	// QueryEvents returns events in sequence order along with the total matching count
	QueryEvents(ctx context.Context, query EventQuery) ([]domain.Event, uint64, error)
	// VerifyHistory walks the whole log and checks sequence density and hash links
	VerifyHistory(ctx context.Context) (*domain.ChainVerification, error)
}

type eventLog struct {
	store  store.Store
	json   adapter.JSON
	sealer *store.EventSealer
}

// NewEventLog creates a new event log reader
func NewEventLog(st store.Store, json adapter.JSON, sealer *store.EventSealer) EventLog {
	return &eventLog{store: st, json: json, sealer: sealer}
}

func (l *eventLog) QueryEvents(ctx context.Context, query EventQuery) ([]domain.Event, uint64, error) {
	for _, kind := range query.Kinds {
		if !domain.IsValidEventKind(kind) {
			return nil, 0, domain.Wrapf(domain.ErrInvalidField, "unknown event kind %q", kind)
		}
	}

	filter := store.EventQueryFilter{
		Kinds:      query.Kinds,
		PropertyID: query.PropertyID,
		Since:      query.Since,
		Until:      query.Until,
		AfterID:    query.After,
		Limit:      query.Limit,
		Offset:     query.Offset,
		OrderDesc:  query.Newest,
	}
	if query.Address != nil {
		addr, err := domain.NormalizeAddress(*query.Address)
		if err != nil {
			return nil, 0, err
		}
		filter.Address = &addr
	}

	rows, total, err := l.store.GetEvents(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}

	events, err := types.ToDomainEvents(l.json, rows)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// VerifyHistory recomputes every hash from genesis. A broken link is reported in the result, not as an error.
func (l *eventLog) VerifyHistory(ctx context.Context) (*domain.ChainVerification, error) {
	result := &domain.ChainVerification{
		Valid:    true,
		HeadHash: domain.GENESIS_EVENT_HASH,
	}

	var after *uint64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, _, err := l.store.GetEvents(ctx, store.EventQueryFilter{
			AfterID: after,
			Limit:   verifyBatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load events: %w", err)
		}
		if len(rows) == 0 {
			break
		}

		for i := range rows {
			row := &rows[i]
			expected := domain.FIRST_EVENT_SEQUENCE + result.EventsChecked

			reason := ""
			switch {
			case row.ID != expected:
				reason = fmt.Sprintf("expected sequence %d, found %d", expected, row.ID)
			case row.PrevHash != result.HeadHash:
				reason = fmt.Sprintf("prev_hash %s does not link to %s", row.PrevHash, result.HeadHash)
			default:
				hash, err := l.sealer.Hash(result.HeadHash, row)
				if err != nil {
					return nil, fmt.Errorf("failed to hash event %d: %w", row.ID, err)
				}
				if hash != row.Hash {
					reason = fmt.Sprintf("hash mismatch: stored %s, computed %s", row.Hash, hash)
				}
			}

			if reason != "" {
				broken := row.ID
				result.Valid = false
				result.BrokenAt = &broken
				result.Reason = reason
				logger.WarnCtx(ctx, "Event chain verification failed",
					zap.Uint64("sequence", row.ID),
					zap.String("reason", reason))
				return result, nil
			}

			result.EventsChecked++
			result.HeadSequence = row.ID
			result.HeadHash = row.Hash
		}

		last := rows[len(rows)-1].ID
		after = &last
	}

	logger.DebugCtx(ctx, "Event chain verified",
		zap.Uint64("events_checked", result.EventsChecked),
		zap.String("head_hash", result.HeadHash))

	return result, nil
}
