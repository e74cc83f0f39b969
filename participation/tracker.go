// Package participation derives which events an account joined and submitted proof for.
package participation

import (
	"context"
	"sort"

	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/decoder"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Tracker reads the participant and submission records owned by an account.
type Tracker struct {
	reader     types.ObjectReader
	deployment *types.Deployment
	logger     *logrus.Logger
}

// NewTracker creates a participation tracker.
func NewTracker(reader types.ObjectReader, deployment *types.Deployment, logger *logrus.Logger) *Tracker {
	return &Tracker{
		reader:     reader,
		deployment: deployment,
		logger:     logger,
	}
}

// Load lists the account's records and maps each to its event.
//
// An account counts as joined to every event it holds a participant or a submission record for, so
// submitted events are always a subset of joined events.
//
// Parameters:
// - ctx: the context for managing the requests.
// - address: the account; empty returns empty facts.
//
// Returns:
// - types.Participation: freshly allocated facts.
// - error: a transport error; undecodable records are skipped.
func (t *Tracker) Load(ctx context.Context, address string) (types.Participation, error) {
	facts := types.EmptyParticipation(address)
	if address == "" {
		return facts, nil
	}

	participants, err := t.records(ctx, address, t.deployment.ParticipantStructType())
	if err != nil {
		return types.Participation{}, errors.Wrap(err, "failed to list participant records")
	}
	submissions, err := t.records(ctx, address, t.deployment.SubmissionStructType())
	if err != nil {
		return types.Participation{}, errors.Wrap(err, "failed to list submission records")
	}

	facts.ParticipantObjects = participants
	facts.SubmissionObjects = submissions

	joined := make(map[string]struct{}, len(participants)+len(submissions))
	for eventID := range participants {
		joined[eventID] = struct{}{}
	}
	for eventID := range submissions {
		joined[eventID] = struct{}{}
		facts.SubmittedEventIDs = append(facts.SubmittedEventIDs, eventID)
	}
	for eventID := range joined {
		facts.JoinedEventIDs = append(facts.JoinedEventIDs, eventID)
	}
	sort.Strings(facts.JoinedEventIDs)
	sort.Strings(facts.SubmittedEventIDs)

	return facts, nil
}

// records maps event ids to the record objects of one struct type, following every page.
func (t *Tracker) records(ctx context.Context, address, structType string) (map[string]string, error) {
	out := make(map[string]string)

	var cursor *string
	for {
		page, err := t.reader.GetOwnedObjects(ctx, address, structType, cursor, types.MaxObjectsPerRequest)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Data {
			eventID, objectID, err := decoder.DecodeEventRef(obj, structType)
			if err != nil {
				t.logger.WithFields(logrus.Fields{
					"owner": address,
					"error": err,
				}).Debug("Skipping undecodable record")
				continue
			}
			if _, exists := out[eventID]; !exists {
				out[eventID] = objectID
			}
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return out, nil
		}
		cursor = page.NextCursor
	}
}
