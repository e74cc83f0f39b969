// Package projection builds collections of decoded events from two discovery strategies.
package projection

import (
	"context"
	"time"

	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/decoder"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HistoryPageSize caps the number of creation transactions scanned by All. The scan runs newest
// first, so events created before the newest HistoryPageSize creations are not listed. An unordered
// transaction query returns ascending order and would list the oldest page instead.
const HistoryPageSize = 50

// Projection lists events owned by an address or created through the event module.
type Projection struct {
	reader     types.ObjectReader
	deployment *types.Deployment
	clock      clockwork.Clock
	logger     *logrus.Logger
}

// NewProjection creates a projection over a chain reader.
//
// Parameters:
// - reader: the chain object reader.
// - deployment: the contract deployment whose events are listed.
// - clock: the clock stamping events without a known creation time.
// - logger: the logger for skipped objects.
//
// Returns:
// - *Projection: the projection.
func NewProjection(reader types.ObjectReader, deployment *types.Deployment, clock clockwork.Clock, logger *logrus.Logger) *Projection {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Projection{
		reader:     reader,
		deployment: deployment,
		clock:      clock,
		logger:     logger,
	}
}

// Owned lists the events owned by an address, following every page.
//
// Parameters:
// - ctx: the context for managing the requests.
// - owner: the owner address; empty returns an empty list.
//
// Returns:
// - []types.Event: a freshly allocated, de-duplicated list in node order.
// - error: a transport error; undecodable objects are skipped.
func (p *Projection) Owned(ctx context.Context, owner string) ([]types.Event, error) {
	if owner == "" {
		return []types.Event{}, nil
	}

	structType := p.deployment.EventStructType()
	now := p.clock.Now()

	var events []types.Event
	var cursor *string
	for {
		page, err := p.reader.GetOwnedObjects(ctx, owner, structType, cursor, types.MaxObjectsPerRequest)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list events owned by %s", owner)
		}
		for _, obj := range page.Data {
			if event, ok := p.decode(obj, now); ok {
				events = append(events, event)
			}
		}
		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	return Merge(events), nil
}

// All lists the events created by the newest HistoryPageSize creation transactions, newest first.
//
// Parameters:
// - ctx: the context for managing the requests.
//
// Returns:
// - []types.Event: a freshly allocated, de-duplicated list.
// - error: a transport error; undecodable objects are skipped.
func (p *Projection) All(ctx context.Context) ([]types.Event, error) {
	page, err := p.reader.QueryTransactionBlocks(ctx, types.TransactionQuery{
		MoveFunction: types.MoveFunctionFilter{
			Package:  p.deployment.EventPackageID,
			Module:   p.deployment.EventModule,
			Function: types.FnCreateEvent,
		},
		ShowObjectChanges: true,
		Limit:             HistoryPageSize,
		Descending:        true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query event creations")
	}

	structType, err := decoder.NormalizeStructType(p.deployment.EventStructType())
	if err != nil {
		return nil, err
	}

	var ids []string
	createdAt := make(map[string]time.Time)
	for _, block := range page.Data {
		for _, change := range block.ObjectChanges {
			if change.Type != types.ObjectChangeCreated {
				continue
			}
			if changeType, err := decoder.NormalizeStructType(change.ObjectType); err != nil || changeType != structType {
				continue
			}
			if _, seen := createdAt[change.ObjectID]; seen {
				continue
			}
			ids = append(ids, change.ObjectID)
			if block.TimestampMs > 0 {
				createdAt[change.ObjectID] = time.UnixMilli(int64(block.TimestampMs))
			} else {
				createdAt[change.ObjectID] = time.Time{}
			}
		}
	}

	now := p.clock.Now()
	events := make([]types.Event, 0, len(ids))
	for start := 0; start < len(ids); start += types.MaxObjectsPerRequest {
		end := start + types.MaxObjectsPerRequest
		if end > len(ids) {
			end = len(ids)
		}

		objects, err := p.reader.MultiGetObjects(ctx, ids[start:end])
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch events")
		}
		for i, obj := range objects {
			ts := now
			if i < end-start {
				if known := createdAt[ids[start+i]]; !known.IsZero() {
					ts = known
				}
			}
			if event, ok := p.decode(obj, ts); ok {
				events = append(events, event)
			}
		}
	}

	return Merge(events), nil
}

// decode decodes one event and logs skipped objects.
func (p *Projection) decode(obj types.ObjectResponse, createdAt time.Time) (types.Event, bool) {
	event, err := decoder.DecodeEvent(obj, p.deployment.EventStructType(), createdAt)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"error": err,
		}).Debug("Skipping undecodable event")
		return types.Event{}, false
	}
	return event, true
}

// Merge concatenates event lists, keeping the first occurrence of every id.
func Merge(lists ...[]types.Event) []types.Event {
	seen := make(map[string]struct{})
	out := []types.Event{}
	for _, list := range lists {
		for _, event := range list {
			if _, ok := seen[event.ID]; ok {
				continue
			}
			seen[event.ID] = struct{}{}
			out = append(out, event)
		}
	}
	return out
}
