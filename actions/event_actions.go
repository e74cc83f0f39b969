package actions

import (
	"context"
	"math/big"

	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/decoder"
	"github.com/ClipFinance/quest-lib/querycache"
	"github.com/pkg/errors"
)

// CreateEventInput holds the fields of a new event. The reward is locked in SUI.
type CreateEventInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Instructions string  `json:"instructions"`
	ImageURL     string  `json:"imageUrl"`
	RewardAmount float64 `json:"rewardAmount"`
}

// CreateEvent pays the creation fee in tokens and locks the reward split from the gas coin.
//
// Parameters:
// - ctx: the context for managing the requests.
// - in: the event fields and the reward in display units.
// - opts: the caller callbacks.
//
// Returns:
// - *types.TransactionResult: the executed transaction.
// - error: a precondition failure (no signer, invalid amount, insufficient token balance) or
//   ErrSubmissionFailed.
func (b *Builder) CreateEvent(ctx context.Context, in CreateEventInput, opts Options) (*types.TransactionResult, error) {
	return b.run(ctx, action{
		name:           types.FnCreateEvent,
		successMessage: "Event created successfully! Fee paid & Reward locked.",
		failureMessage: "Failed to create event.",
		affected:       []querycache.Group{querycache.GroupBalance, querycache.GroupAllEvents},
		compose: func(ctx context.Context, tx *ptb.Transaction, signer string) error {
			reward, err := decoder.ToRaw(in.RewardAmount)
			if err != nil {
				return err
			}

			coins, err := b.chain.GetCoins(ctx, signer, b.deployment.TokenCoinType())
			if err != nil {
				return errors.Wrap(err, "failed to list token coins")
			}
			fee := b.deployment.CreationFee
			if len(coins) == 0 || coinTotal(coins).Cmp(new(big.Int).SetUint64(fee)) < 0 {
				return errors.Wrapf(commonErrors.ErrInsufficientBalance, "creating an event costs %g tokens", decoder.ToDisplay(fee))
			}

			primary := tx.Object(coins[0].CoinObjectID)
			if len(coins) > 1 {
				sources := make([]ptb.Argument, 0, len(coins)-1)
				for _, coin := range coins[1:] {
					sources = append(sources, tx.Object(coin.CoinObjectID))
				}
				tx.MergeCoins(primary, sources...)
			}
			feeCoin := tx.SplitCoins(primary, tx.PureU64(fee))[0]
			rewardCoin := tx.SplitCoins(tx.Gas(), tx.PureU64(reward))[0]

			tx.MoveCall(b.deployment.EventTarget(types.FnCreateEvent),
				tx.PureString(in.Name),
				tx.PureString(in.Description),
				tx.PureString(in.Instructions),
				tx.PureString(in.ImageURL),
				tx.PureU64(reward),
				rewardCoin,
				feeCoin,
			)
			return nil
		},
	}, opts)
}

// JoinEvent registers the signer as a participant of an event.
func (b *Builder) JoinEvent(ctx context.Context, eventID string, opts Options) (*types.TransactionResult, error) {
	return b.run(ctx, action{
		name:           types.FnJoinEvent,
		successMessage: "Joined Event!",
		failureMessage: "Failed to join event.",
		compose: func(_ context.Context, tx *ptb.Transaction, _ string) error {
			tx.MoveCall(b.deployment.EventTarget(types.FnJoinEvent), tx.Object(eventID))
			return nil
		},
	}, opts)
}

// SubmitProof submits a proof link for an event the signer joined.
//
// Parameters:
// - ctx: the context for managing the requests.
// - eventID: the event.
// - proofLink: the link to the proof.
// - facts: the signer's participation, which must hold a participant record for the event.
// - opts: the caller callbacks.
//
// Returns:
// - *types.TransactionResult: the executed transaction.
// - error: ErrWalletNotConnected, ErrMissingParticipant or ErrSubmissionFailed.
func (b *Builder) SubmitProof(ctx context.Context, eventID, proofLink string, facts types.Participation, opts Options) (*types.TransactionResult, error) {
	return b.run(ctx, action{
		name:           types.FnSubmitProof,
		successMessage: "Proof Submitted!",
		failureMessage: "Failed to submit proof.",
		compose: func(_ context.Context, tx *ptb.Transaction, _ string) error {
			participant := facts.ParticipantObjects[eventID]
			if participant == "" {
				return errors.Wrapf(commonErrors.ErrMissingParticipant, "%s", eventID)
			}
			tx.MoveCall(b.deployment.EventTarget(types.FnSubmitProof),
				tx.Object(eventID),
				tx.PureString(proofLink),
				tx.Object(participant),
			)
			return nil
		},
	}, opts)
}

// ClaimReward claims the reward of an event with the signer's submission.
//
// Parameters:
// - ctx: the context for managing the requests.
// - event: the event, carrying its vault.
// - facts: the signer's participation, which must hold a submission record for the event.
// - opts: the caller callbacks.
//
// Returns:
// - *types.TransactionResult: the executed transaction.
// - error: ErrWalletNotConnected, ErrMissingSubmission or ErrSubmissionFailed.
func (b *Builder) ClaimReward(ctx context.Context, event types.Event, facts types.Participation, opts Options) (*types.TransactionResult, error) {
	return b.run(ctx, action{
		name:           types.FnClaimReward,
		successMessage: "Reward claimed successfully! Winner selected.",
		failureMessage: "Failed to claim reward.",
		affected:       []querycache.Group{querycache.GroupBalance, querycache.GroupAllEvents},
		compose: func(_ context.Context, tx *ptb.Transaction, _ string) error {
			submission := facts.SubmissionObjects[event.ID]
			if submission == "" {
				return errors.Wrapf(commonErrors.ErrMissingSubmission, "%s", event.ID)
			}
			if event.VaultID == "" {
				return errors.Wrapf(commonErrors.ErrObjectNotFound, "event %s has no vault", event.ID)
			}
			tx.MoveCall(b.deployment.EventTarget(types.FnClaimReward),
				tx.Object(event.ID),
				tx.Object(event.VaultID),
				tx.Object(submission),
			)
			return nil
		},
	}, opts)
}

// VerifyParticipants asks the event module to verify the participants of an event.
func (b *Builder) VerifyParticipants(ctx context.Context, eventID string, opts Options) (*types.TransactionResult, error) {
	return b.run(ctx, action{
		name:           types.FnVerifyParticipants,
		successMessage: "Participants verified.",
		failureMessage: "Failed to verify participants.",
		affected:       []querycache.Group{querycache.GroupAllEvents},
		compose: func(_ context.Context, tx *ptb.Transaction, _ string) error {
			tx.MoveCall(b.deployment.EventTarget(types.FnVerifyParticipants), tx.Object(eventID))
			return nil
		},
	}, opts)
}

func coinTotal(coins []types.Coin) *big.Int {
	total := new(big.Int)
	for _, coin := range coins {
		total.Add(total, new(big.Int).SetUint64(uint64(coin.Balance)))
	}
	return total
}
