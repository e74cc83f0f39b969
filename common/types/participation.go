package types

import "math/big"

// Participation holds the per-user facts derived from participant and submission records.
type Participation struct {
	Address            string            `json:"address"`
	JoinedEventIDs     []string          `json:"joinedEventIds"`
	SubmittedEventIDs  []string          `json:"submittedEventIds"`
	ParticipantObjects map[string]string `json:"participantObjects"`
	SubmissionObjects  map[string]string `json:"submissionObjects"`
}

// EmptyParticipation returns facts with empty, non-nil collections.
func EmptyParticipation(address string) Participation {
	return Participation{
		Address:            address,
		JoinedEventIDs:     []string{},
		SubmittedEventIDs:  []string{},
		ParticipantObjects: map[string]string{},
		SubmissionObjects:  map[string]string{},
	}
}

// HasJoined reports whether the user joined the event.
func (p Participation) HasJoined(eventID string) bool {
	return contains(p.JoinedEventIDs, eventID)
}

// HasSubmitted reports whether the user submitted proof for the event.
func (p Participation) HasSubmitted(eventID string) bool {
	return contains(p.SubmittedEventIDs, eventID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// BalanceSnapshot holds base currency and token balances of an account.
type BalanceSnapshot struct {
	Address  string   `json:"address"`
	Base     float64  `json:"base"`
	Token    float64  `json:"token"`
	BaseRaw  *big.Int `json:"baseRaw"`
	TokenRaw *big.Int `json:"tokenRaw"`
}

// EmptyBalanceSnapshot returns the zero snapshot used when no account is connected.
func EmptyBalanceSnapshot(address string) BalanceSnapshot {
	return BalanceSnapshot{
		Address:  address,
		BaseRaw:  big.NewInt(0),
		TokenRaw: big.NewInt(0),
	}
}
