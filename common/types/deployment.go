package types

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// SuiCoinType is the coin type of the base currency.
	SuiCoinType = "0x2::sui::SUI"

	// DefaultTokenRate is the number of token units bought with one base unit.
	DefaultTokenRate = uint64(1000)
	// DefaultCreationFee is the event creation fee in raw token units (10 tokens with 9 decimals).
	DefaultCreationFee = uint64(10_000_000_000)
	// DefaultPriceRateField is the field of the price object holding the rate.
	DefaultPriceRateField = "run_per_sui"
)

// Entry point names of the event and token modules.
const (
	FnCreateEvent        = "create_event"
	FnJoinEvent          = "join_event"
	FnSubmitProof        = "submit_proof"
	FnClaimReward        = "claim_reward"
	FnVerifyParticipants = "verify_participants"
	FnBuyToken           = "buy_life"
)

// Struct names published by the event module.
const (
	EventStructName       = "Event"
	ParticipantStructName = "Participant"
	SubmissionStructName  = "Submission"
)

// Deployment holds the identifiers of a published contract deployment.
//
// Fields:
// - EventPackageID: the package containing the event module.
// - TokenPackageID: the package containing the token module.
// - EventModule: the event module name.
// - TokenModule: the token module name.
// - TokenStruct: the one-time witness struct naming the token coin type.
// - TokenVaultID, TokenPriceID, TokenStateID: shared objects of the token module.
// - TokenRate: token units bought per base unit, must match the price object on chain.
// - PriceRateField: the field of the price object holding the on-chain rate.
// - CreationFee: the event creation fee in raw token units.
type Deployment struct {
	EventPackageID string
	TokenPackageID string
	EventModule    string
	TokenModule    string
	TokenStruct    string
	TokenVaultID   string
	TokenPriceID   string
	TokenStateID   string
	TokenRate      uint64
	PriceRateField string
	CreationFee    uint64
}

// Validate checks that every identifier required to build transactions is present.
func (d *Deployment) Validate() error {
	if d == nil {
		return errors.New("deployment is nil")
	}
	required := map[string]string{
		"event package id": d.EventPackageID,
		"token package id": d.TokenPackageID,
		"event module":     d.EventModule,
		"token module":     d.TokenModule,
		"token struct":     d.TokenStruct,
		"token vault id":   d.TokenVaultID,
		"token price id":   d.TokenPriceID,
		"token state id":   d.TokenStateID,
	}
	for name, value := range required {
		if value == "" {
			return errors.Errorf("deployment: %s is empty", name)
		}
	}
	if d.TokenRate == 0 {
		return errors.New("deployment: token rate must be positive")
	}
	return nil
}

// EventStructType returns the struct tag of Event objects.
func (d *Deployment) EventStructType() string {
	return d.eventStruct(EventStructName)
}

// ParticipantStructType returns the struct tag of per-user participant records.
func (d *Deployment) ParticipantStructType() string {
	return d.eventStruct(ParticipantStructName)
}

// SubmissionStructType returns the struct tag of per-user submission records.
func (d *Deployment) SubmissionStructType() string {
	return d.eventStruct(SubmissionStructName)
}

// TokenCoinType returns the coin type of the in-app token.
func (d *Deployment) TokenCoinType() string {
	return fmt.Sprintf("%s::%s::%s", d.TokenPackageID, d.TokenModule, d.TokenStruct)
}

// EventTarget returns the fully qualified target of an event module function.
func (d *Deployment) EventTarget(function string) string {
	return fmt.Sprintf("%s::%s::%s", d.EventPackageID, d.EventModule, function)
}

// TokenTarget returns the fully qualified target of a token module function.
func (d *Deployment) TokenTarget(function string) string {
	return fmt.Sprintf("%s::%s::%s", d.TokenPackageID, d.TokenModule, function)
}

func (d *Deployment) eventStruct(name string) string {
	return fmt.Sprintf("%s::%s::%s", d.EventPackageID, d.EventModule, name)
}
