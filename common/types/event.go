package types

import (
	"encoding/json"
	"strings"
	"time"
)

// EventStatus is the claim state of an event.
type EventStatus string

const (
	// EventStatusOpen is the status of an event whose reward has not been claimed.
	EventStatusOpen EventStatus = "OPEN"
	// EventStatusClaimed is the status of an event whose reward has been claimed.
	EventStatusClaimed EventStatus = "CLAIMED"
)

// RewardAsset is the asset locked as an event reward.
type RewardAsset string

const (
	RewardAssetSUI     RewardAsset = "SUI"
	RewardAssetRUN     RewardAsset = "RUN"
	RewardAssetUnknown RewardAsset = "UNKNOWN"
)

// ParseRewardAsset converts the on-chain asset label to RewardAsset. LIFE is the token's
// on-chain module name and maps to RUN.
func ParseRewardAsset(s string) RewardAsset {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUI":
		return RewardAssetSUI
	case "RUN", "LIFE":
		return RewardAssetRUN
	default:
		return RewardAssetUnknown
	}
}

// Event is the decoded view of an on-chain quest.
//
// Fields:
// - ID: the object id of the event.
// - Name, Description, Instructions, ImageURL: decoded text fields.
// - Creator: the address that created the event.
// - RewardAmount: the locked reward in display units.
// - RewardAsset: the asset of the locked reward.
// - RewardClaimed: the on-chain claim flag; Status is derived from it.
// - VaultID: the container holding the locked reward.
// - Winner: the winner address, empty until one is chosen on chain.
// - ParticipantsCount: best effort, not backed by on-chain state.
// - CreatedAt: timestamp of the creating transaction when known, projection time otherwise.
type Event struct {
	ID                string
	Name              string
	Description       string
	Instructions      string
	ImageURL          string
	Creator           string
	RewardAmount      float64
	RewardAsset       RewardAsset
	RewardClaimed     bool
	VaultID           string
	Winner            string
	ParticipantsCount int
	CreatedAt         time.Time
}

// Status returns CLAIMED iff the claim flag is set.
func (e Event) Status() EventStatus {
	if e.RewardClaimed {
		return EventStatusClaimed
	}
	return EventStatusOpen
}

type eventJSON struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Creator           string      `json:"creator"`
	Description       string      `json:"description"`
	Instructions      string      `json:"instructions"`
	RewardAmount      float64     `json:"rewardAmount"`
	RewardAsset       RewardAsset `json:"rewardAsset"`
	Status            EventStatus `json:"status"`
	ImageURL          string      `json:"imageUrl"`
	ParticipantsCount int         `json:"participantsCount"`
	CreatedAt         int64       `json:"createdAt"`
	VaultID           string      `json:"vaultId"`
	Winner            string      `json:"winner,omitempty"`
}

// MarshalJSON renders the event with its derived status.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:                e.ID,
		Name:              e.Name,
		Creator:           e.Creator,
		Description:       e.Description,
		Instructions:      e.Instructions,
		RewardAmount:      e.RewardAmount,
		RewardAsset:       e.RewardAsset,
		Status:            e.Status(),
		ImageURL:          e.ImageURL,
		ParticipantsCount: e.ParticipantsCount,
		CreatedAt:         e.CreatedAt.UnixMilli(),
		VaultID:           e.VaultID,
		Winner:            e.Winner,
	})
}
