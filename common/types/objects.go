package types

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// MaxObjectsPerRequest is the node limit for multi-object fetches.
const MaxObjectsPerRequest = 50

// Uint64String is a u64 rendered by the node either as a JSON string or as a JSON number.
type Uint64String uint64

func (u *Uint64String) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*u = 0
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid u64 %q", s)
	}
	*u = Uint64String(v)
	return nil
}

func (u Uint64String) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

// ObjectResponse is the node response for a single object.
type ObjectResponse struct {
	Data  *ObjectData     `json:"data,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

// ObjectData holds the object reference, owner and parsed Move content.
type ObjectData struct {
	ObjectID string         `json:"objectId"`
	Version  Uint64String   `json:"version"`
	Digest   string         `json:"digest"`
	Type     string         `json:"type,omitempty"`
	Owner    *ObjectOwner   `json:"owner,omitempty"`
	Content  *ObjectContent `json:"content,omitempty"`
}

// ObjectContent is the parsed content of an object; Fields is kept loosely typed because field
// shapes depend on the Move struct.
type ObjectContent struct {
	DataType string         `json:"dataType"`
	Type     string         `json:"type"`
	Fields   map[string]any `json:"fields"`
}

// MoveObjectDataType is the content variant carrying struct fields.
const MoveObjectDataType = "moveObject"

// ObjectOwner is the owner enum of an object. The node renders Immutable as a bare string and
// every other variant as a single-key object.
type ObjectOwner struct {
	AddressOwner         string
	ObjectOwner          string
	Shared               bool
	InitialSharedVersion uint64
	Immutable            bool
}

func (o *ObjectOwner) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "Immutable" {
			return errors.Errorf("unknown owner kind: %s", s)
		}
		o.Immutable = true
	case '{':
		var raw struct {
			AddressOwner *string `json:"AddressOwner"`
			ObjectOwner  *string `json:"ObjectOwner"`
			Shared       *struct {
				InitialSharedVersion Uint64String `json:"initial_shared_version"`
			} `json:"Shared"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		switch {
		case raw.AddressOwner != nil:
			o.AddressOwner = *raw.AddressOwner
		case raw.ObjectOwner != nil:
			o.ObjectOwner = *raw.ObjectOwner
		case raw.Shared != nil:
			o.Shared = true
			o.InitialSharedVersion = uint64(raw.Shared.InitialSharedVersion)
		default:
			return errors.Errorf("unknown owner kind: %s", data)
		}
	default:
		return errors.Errorf("unknown owner kind: %v", data)
	}
	return nil
}

// ObjectPage is one page of an owned-objects listing.
type ObjectPage struct {
	Data        []ObjectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

// Coin is a single coin object.
type Coin struct {
	CoinType     string       `json:"coinType"`
	CoinObjectID string       `json:"coinObjectId"`
	Version      Uint64String `json:"version"`
	Digest       string       `json:"digest"`
	Balance      Uint64String `json:"balance"`
}

// CoinPage is one page of a coin listing.
type CoinPage struct {
	Data        []Coin  `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// MoveFunctionFilter selects transactions that called a given entry point.
type MoveFunctionFilter struct {
	Package  string `json:"package"`
	Module   string `json:"module,omitempty"`
	Function string `json:"function,omitempty"`
}

// TransactionQuery describes a transaction history query.
type TransactionQuery struct {
	MoveFunction      MoveFunctionFilter
	ShowObjectChanges bool
	Cursor            *string
	Limit             uint
	Descending        bool
}

// ObjectChange is one entry of a transaction's object-change list.
type ObjectChange struct {
	Type       string `json:"type"`
	ObjectID   string `json:"objectId"`
	ObjectType string `json:"objectType"`
	Sender     string `json:"sender"`
}

// ObjectChangeCreated is the change type of newly created objects.
const ObjectChangeCreated = "created"

// ExecutionStatus is the status reported in transaction effects.
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// GasCostSummary is the gas usage reported in transaction effects.
type GasCostSummary struct {
	ComputationCost Uint64String `json:"computationCost"`
	StorageCost     Uint64String `json:"storageCost"`
	StorageRebate   Uint64String `json:"storageRebate"`
}

// TransactionEffects is the subset of effects this library reads.
type TransactionEffects struct {
	Status  ExecutionStatus `json:"status"`
	GasUsed GasCostSummary  `json:"gasUsed"`
}

// TransactionBlock is a transaction as returned by history queries and execution.
type TransactionBlock struct {
	Digest        string              `json:"digest"`
	TimestampMs   Uint64String        `json:"timestampMs"`
	Checkpoint    Uint64String        `json:"checkpoint"`
	Effects       *TransactionEffects `json:"effects,omitempty"`
	ObjectChanges []ObjectChange      `json:"objectChanges,omitempty"`
}

// TransactionBlockPage is one page of a transaction history query.
type TransactionBlockPage struct {
	Data        []TransactionBlock `json:"data"`
	NextCursor  *string            `json:"nextCursor"`
	HasNextPage bool               `json:"hasNextPage"`
}

// DryRunResult is the response of a dry run.
type DryRunResult struct {
	Effects TransactionEffects `json:"effects"`
}
