// Package actions builds, submits and follows up every mutating quest action.
package actions

import (
	"context"
	"time"

	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/querycache"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultSettleDelay is the wait between a successful action and the follow-up reads.
const DefaultSettleDelay = time.Second

// Refresher is the cache side of a completed action.
type Refresher interface {
	Invalidate(groups ...querycache.Group)
	RefetchGroupsAfter(ctx context.Context, delay time.Duration, groups ...querycache.Group) error
}

// Options carries the caller callbacks of one action.
//
// Fields:
// - OnSuccess: called with the executed transaction after the follow-up reads.
// - OnError: called with the failure.
// - Notify: receives a user-facing message for both outcomes.
type Options struct {
	OnSuccess func(result *types.TransactionResult)
	OnError   func(err error)
	Notify    func(message string, kind types.NotificationKind)
}

// Groups affected by every action: ownership listings and the records derived from them.
var ownershipGroups = []querycache.Group{querycache.GroupOwnedObjects, querycache.GroupParticipation}

// Groups re-read after the settle delay.
var settleGroups = []querycache.Group{querycache.GroupAllEvents, querycache.GroupOwnedObjects, querycache.GroupParticipation}

// Builder composes the transaction of every action and submits it through the chain.
type Builder struct {
	chain       types.Chain
	deployment  *types.Deployment
	refresher   Refresher
	settleDelay time.Duration
	logger      *logrus.Logger
}

// NewBuilder creates an action builder for the deployment configured on the chain.
//
// Parameters:
// - chain: the chain used to read coins and submit transactions.
// - refresher: the cache invalidated after successful actions, nil to skip refreshing.
// - settleDelay: the wait before follow-up reads.
// - logger: the logger for action outcomes.
//
// Returns:
// - *Builder: the builder.
// - error: an error if the chain carries no valid deployment.
func NewBuilder(chain types.Chain, refresher Refresher, settleDelay time.Duration, logger *logrus.Logger) (*Builder, error) {
	if chain == nil || chain.GetConfig() == nil {
		return nil, commonErrors.ErrInvalidConfig
	}
	deployment := chain.GetConfig().Deployment
	if err := deployment.Validate(); err != nil {
		return nil, errors.Wrap(commonErrors.ErrInvalidConfig, err.Error())
	}
	return &Builder{
		chain:       chain,
		deployment:  deployment,
		refresher:   refresher,
		settleDelay: settleDelay,
		logger:      logger,
	}, nil
}

// action describes one run of an action.
type action struct {
	name           string
	successMessage string
	failureMessage string
	affected       []querycache.Group
	// compose checks preconditions and adds the commands; it runs only with a connected signer.
	compose func(ctx context.Context, tx *ptb.Transaction, signer string) error
}

// run executes an action and reports its outcome through the options.
func (b *Builder) run(ctx context.Context, a action, opts Options) (*types.TransactionResult, error) {
	log := b.logger.WithFields(logrus.Fields{
		"action":   a.name,
		"actionID": uuid.NewString(),
		"network":  b.chain.GetConfig().Network,
	})

	result, err := b.submit(ctx, a)
	if err != nil {
		log.WithField("error", err).Warn("Action failed")
		notify(opts, messageFor(err, a.failureMessage), types.NotifyError)
		if opts.OnError != nil {
			opts.OnError(err)
		}
		return result, err
	}

	log.WithFields(logrus.Fields{
		"digest":  result.Digest,
		"gasUsed": result.GasUsed,
	}).Info("Action executed")
	notify(opts, a.successMessage, types.NotifySuccess)

	if b.refresher != nil {
		b.refresher.Invalidate(append(append([]querycache.Group{}, ownershipGroups...), a.affected...)...)
		if err := b.refresher.RefetchGroupsAfter(ctx, b.settleDelay, settleGroups...); err != nil {
			log.WithField("error", err).Warn("Refresh after action failed")
		}
	}

	if opts.OnSuccess != nil {
		opts.OnSuccess(result)
	}
	return result, nil
}

// submit checks the signer, composes the transaction and sends it.
func (b *Builder) submit(ctx context.Context, a action) (*types.TransactionResult, error) {
	signer := b.chain.SignerAddress()
	if signer == "" {
		return nil, commonErrors.ErrWalletNotConnected
	}

	tx := ptb.New()
	if err := a.compose(ctx, tx, signer); err != nil {
		if commonErrors.IsPrecondition(err) {
			return nil, err
		}
		return nil, errors.Wrapf(commonErrors.ErrSubmissionFailed, "%s: %v", a.name, err)
	}
	if err := tx.Err(); err != nil {
		return nil, errors.Wrapf(commonErrors.ErrSubmissionFailed, "%s: %v", a.name, err)
	}

	result, err := b.chain.SendTransaction(ctx, tx)
	if err != nil {
		if commonErrors.IsPrecondition(err) {
			return result, err
		}
		return result, errors.Wrapf(commonErrors.ErrSubmissionFailed, "%s: %v", a.name, err)
	}
	return result, nil
}

func notify(opts Options, message string, kind types.NotificationKind) {
	if opts.Notify != nil {
		opts.Notify(message, kind)
	}
}

// messageFor returns the message of err, or fallback when err carries none.
func messageFor(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
