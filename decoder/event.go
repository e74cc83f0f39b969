package decoder

import (
	"time"

	"github.com/pkg/errors"

	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/types"
)

// UnknownEventName is used when an event carries no readable name.
const UnknownEventName = "Unknown Event"

// DecodeEvent converts an object response into an Event.
//
// Parameters:
// - obj: the object response, fetched with content.
// - structType: the expected Event struct tag, empty to skip the check.
// - createdAt: the creation time to record on the event.
//
// Returns:
// - types.Event: the decoded event.
// - error: ErrUndecodable, wrapped with the reason, when the object does not have the Event shape.
func DecodeEvent(obj types.ObjectResponse, structType string, createdAt time.Time) (types.Event, error) {
	if obj.Data == nil {
		return types.Event{}, undecodable("missing object data")
	}
	content := obj.Data.Content
	if content == nil {
		return types.Event{}, undecodable("object %s has no content", obj.Data.ObjectID)
	}
	if content.DataType != types.MoveObjectDataType {
		return types.Event{}, undecodable("object %s content is %q", obj.Data.ObjectID, content.DataType)
	}
	if structType != "" && !sameStructType(content.Type, structType) {
		return types.Event{}, undecodable("object %s has type %s", obj.Data.ObjectID, content.Type)
	}
	fields := content.Fields
	if fields == nil {
		return types.Event{}, undecodable("object %s has no fields", obj.Data.ObjectID)
	}

	id := obj.Data.ObjectID
	if id == "" {
		var ok bool
		if id, ok = ID(fields["id"]); !ok {
			return types.Event{}, undecodable("object has no id")
		}
	}

	name := BytesToString(fields["name"])
	if name == "" {
		name = UnknownEventName
	}
	rewardRaw, _ := Uint64(fields["reward_amount"])
	creator, _ := Address(fields["creator"])
	vaultID, _ := ID(fields["vault_id"])
	winner, _ := OptionAddress(fields["winner"])

	return types.Event{
		ID:            id,
		Name:          name,
		Description:   BytesToString(fields["description"]),
		Instructions:  BytesToString(fields["instructions"]),
		ImageURL:      BytesToString(fields["image_url"]),
		Creator:       creator,
		RewardAmount:  ToDisplay(rewardRaw),
		RewardAsset:   types.ParseRewardAsset(BytesToString(fields["reward_asset"])),
		RewardClaimed: Bool(fields["reward_claimed"]),
		VaultID:       vaultID,
		Winner:        winner,
		CreatedAt:     createdAt,
	}, nil
}

// DecodeEventRef reads the event id a per-user record (participant or submission) points to.
//
// Parameters:
// - obj: the object response, fetched with content.
// - structType: the expected struct tag, empty to skip the check.
//
// Returns:
// - string: the event id from the record's event_id field.
// - string: the record's own object id.
// - error: ErrUndecodable when the record does not have the expected shape.
func DecodeEventRef(obj types.ObjectResponse, structType string) (string, string, error) {
	if obj.Data == nil || obj.Data.Content == nil {
		return "", "", undecodable("missing object content")
	}
	content := obj.Data.Content
	if content.DataType != types.MoveObjectDataType {
		return "", "", undecodable("object %s content is %q", obj.Data.ObjectID, content.DataType)
	}
	if structType != "" && !sameStructType(content.Type, structType) {
		return "", "", undecodable("object %s has type %s", obj.Data.ObjectID, content.Type)
	}
	eventID, ok := ID(content.Fields["event_id"])
	if !ok {
		return "", "", undecodable("object %s has no event_id", obj.Data.ObjectID)
	}
	return eventID, obj.Data.ObjectID, nil
}

// sameStructType compares struct tags, tolerating short and long forms of the package address.
func sameStructType(a, b string) bool {
	if a == b {
		return true
	}
	na, errA := NormalizeStructType(a)
	nb, errB := NormalizeStructType(b)
	return errA == nil && errB == nil && na == nb
}

func undecodable(format string, args ...any) error {
	return errors.Wrapf(commonErrors.ErrUndecodable, format, args...)
}

func invalidAmount(v float64) error {
	return errors.Wrapf(commonErrors.ErrInvalidAmount, "%v", v)
}
