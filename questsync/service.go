// Package questsync wires the chain, the query cache, the read models and the action builder.
package questsync

import (
	"context"
	"sync"
	"time"

	"github.com/ClipFinance/quest-lib/actions"
	"github.com/ClipFinance/quest-lib/balances"
	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/decoder"
	"github.com/ClipFinance/quest-lib/participation"
	"github.com/ClipFinance/quest-lib/projection"
	"github.com/ClipFinance/quest-lib/querycache"
	lru "github.com/hashicorp/golang-lru"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// BalanceRecorder stores balance snapshots of the signer.
type BalanceRecorder interface {
	RecordBalances(ctx context.Context, network, tokenCoinType string, snapshot types.BalanceSnapshot) error
}

// DefaultMaxWatched is the default bound on watched accounts besides the signer.
const DefaultMaxWatched = 128

// Options configures polling and the post-action settle delay.
type Options struct {
	OwnedEvents   querycache.Options
	AllEvents     querycache.Options
	Participation querycache.Options
	Balances      querycache.Options
	SettleDelay   time.Duration
	// MaxWatched bounds the accounts other than the signer that keep polling queries. The least
	// recently read account is dropped first.
	MaxWatched int

	// Clock drives staleness, polling and the settle delay; nil uses the real clock.
	Clock clockwork.Clock
	// Recorder, when set, receives every balance snapshot of the signer.
	Recorder BalanceRecorder
}

// DefaultOptions returns the default polling cadence.
func DefaultOptions() Options {
	return Options{
		OwnedEvents:   querycache.Options{StaleTime: 10 * time.Second, RefetchInterval: 10 * time.Second},
		AllEvents:     querycache.Options{StaleTime: 10 * time.Second, RefetchInterval: 15 * time.Second},
		Participation: querycache.Options{StaleTime: 10 * time.Second, RefetchInterval: 10 * time.Second},
		Balances:      querycache.Options{StaleTime: 5 * time.Second, RefetchInterval: 5 * time.Second},
		SettleDelay:   actions.DefaultSettleDelay,
		MaxWatched:    DefaultMaxWatched,
	}
}

// Service is the synchronization layer of one network.
type Service struct {
	chain      types.Chain
	deployment *types.Deployment
	options    Options
	logger     *logrus.Logger

	cache      *querycache.Cache
	projection *projection.Projection
	tracker    *participation.Tracker
	balances   *balances.Loader
	actions    *actions.Builder

	signer       string
	watchedMutex sync.Mutex
	watched      *lru.Cache
}

// New creates the service and registers the queries of the events listing and of the signer.
//
// Parameters:
// - chain: the chain of the network, carrying the deployment in its configuration.
// - logger: the logger shared by every component.
// - options: polling cadence and settle delay.
//
// Returns:
// - *Service: the service, not polling until Start.
// - error: an error if the deployment is invalid or a query cannot be registered.
func New(chain types.Chain, logger *logrus.Logger, options Options) (*Service, error) {
	if chain == nil || chain.GetConfig() == nil {
		return nil, commonErrors.ErrInvalidConfig
	}
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.MaxWatched <= 0 {
		options.MaxWatched = DefaultMaxWatched
	}

	signer := chain.SignerAddress()
	if signer != "" {
		normalized, err := ptb.NormalizeAddress(signer)
		if err != nil {
			return nil, errors.Wrapf(commonErrors.ErrInvalidAddress, "signer %s: %v", signer, err)
		}
		signer = normalized
	}

	cache, err := querycache.NewCache(options.Clock, logger)
	if err != nil {
		return nil, err
	}
	builder, err := actions.NewBuilder(chain, cache, options.SettleDelay, logger)
	if err != nil {
		return nil, err
	}

	deployment := chain.GetConfig().Deployment
	s := &Service{
		chain:      chain,
		deployment: deployment,
		options:    options,
		logger:     logger,
		cache:      cache,
		projection: projection.NewProjection(chain, deployment, options.Clock, logger),
		tracker:    participation.NewTracker(chain, deployment, logger),
		balances:   balances.NewLoader(chain, deployment),
		actions:    builder,
		signer:     signer,
	}
	s.watched, err = lru.NewWithEvict(options.MaxWatched, func(key, _ interface{}) {
		s.unwatch(key.(string))
	})
	if err != nil {
		return nil, err
	}

	err = cache.Register(querycache.Key{Group: querycache.GroupAllEvents}, func(ctx context.Context) (interface{}, error) {
		return s.projection.All(ctx)
	}, options.AllEvents)
	if err != nil {
		return nil, err
	}

	if signer != "" {
		if err := s.register(signer); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Watch registers the owned events, participation and balance queries of an address. Watching an
// address twice is a no-op. The signer is always watched; other accounts are kept up to
// MaxWatched and the least recently read one stops polling when the bound is exceeded.
func (s *Service) Watch(address string) error {
	_, err := s.watch(address)
	return err
}

// watch normalizes the address and makes sure its queries are registered.
func (s *Service) watch(address string) (string, error) {
	normalized, err := ptb.NormalizeAddress(address)
	if err != nil {
		return "", errors.Wrapf(commonErrors.ErrInvalidAddress, "%s: %v", address, err)
	}
	if normalized == s.signer {
		return normalized, nil
	}

	s.watchedMutex.Lock()
	defer s.watchedMutex.Unlock()

	if _, ok := s.watched.Get(normalized); ok {
		return normalized, nil
	}
	if err := s.register(normalized); err != nil {
		return "", err
	}
	s.watched.Add(normalized, struct{}{})
	s.logger.WithField("owner", normalized).Debug("Watching account")
	return normalized, nil
}

// register adds the three account queries, rolling back on failure.
func (s *Service) register(address string) error {
	err := s.cache.Register(ownedKey(address), func(ctx context.Context) (interface{}, error) {
		return s.projection.Owned(ctx, address)
	}, s.options.OwnedEvents)
	if err != nil {
		s.unwatch(address)
		return err
	}
	err = s.cache.Register(participationKey(address), func(ctx context.Context) (interface{}, error) {
		return s.tracker.Load(ctx, address)
	}, s.options.Participation)
	if err != nil {
		s.unwatch(address)
		return err
	}
	err = s.cache.Register(balanceKey(address), func(ctx context.Context) (interface{}, error) {
		return s.loadBalances(ctx, address)
	}, s.options.Balances)
	if err != nil {
		s.unwatch(address)
		return err
	}
	return nil
}

func (s *Service) unwatch(address string) {
	s.cache.Unregister(ownedKey(address))
	s.cache.Unregister(participationKey(address))
	s.cache.Unregister(balanceKey(address))
	s.logger.WithField("owner", address).Debug("Stopped watching account")
}

// Start starts polling.
func (s *Service) Start(ctx context.Context) {
	s.cache.Start(ctx)
}

// Stop stops polling and closes the chain.
func (s *Service) Stop() error {
	err := s.cache.Stop()
	s.chain.Close()
	return err
}

// Events lists the events created through the event module, followed by the signer's owned events
// the creation history did not reach.
func (s *Service) Events(ctx context.Context) ([]types.Event, error) {
	all, err := querycache.Get[[]types.Event](ctx, s.cache, querycache.Key{Group: querycache.GroupAllEvents})
	if err != nil {
		return nil, err
	}

	signer := s.chain.SignerAddress()
	if signer == "" {
		return projection.Merge(all), nil
	}
	owned, err := s.OwnedEvents(ctx, signer)
	if err != nil {
		return nil, err
	}
	return projection.Merge(all, owned), nil
}

// Event returns one event, from the listing when present, otherwise read from the chain.
func (s *Service) Event(ctx context.Context, id string) (types.Event, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return types.Event{}, err
	}
	for _, event := range events {
		if event.ID == id {
			return event, nil
		}
	}

	obj, err := s.chain.GetObject(ctx, id)
	if err != nil {
		return types.Event{}, err
	}
	event, err := decoder.DecodeEvent(*obj, s.deployment.EventStructType(), s.options.Clock.Now())
	if err != nil {
		return types.Event{}, errors.Wrapf(commonErrors.ErrObjectNotFound, "event %s: %v", id, err)
	}
	return event, nil
}

// OwnedEvents lists the events owned by an address.
func (s *Service) OwnedEvents(ctx context.Context, address string) ([]types.Event, error) {
	if address == "" {
		return []types.Event{}, nil
	}
	normalized, err := s.watch(address)
	if err != nil {
		return nil, err
	}
	return querycache.Get[[]types.Event](ctx, s.cache, ownedKey(normalized))
}

// Participation returns the participation facts of an address.
func (s *Service) Participation(ctx context.Context, address string) (types.Participation, error) {
	if address == "" {
		return types.EmptyParticipation(""), nil
	}
	normalized, err := s.watch(address)
	if err != nil {
		return types.Participation{}, err
	}
	return querycache.Get[types.Participation](ctx, s.cache, participationKey(normalized))
}

// Balances returns the balance snapshot of an address.
func (s *Service) Balances(ctx context.Context, address string) (types.BalanceSnapshot, error) {
	if address == "" {
		return types.EmptyBalanceSnapshot(""), nil
	}
	normalized, err := s.watch(address)
	if err != nil {
		return types.BalanceSnapshot{}, err
	}
	return querycache.Get[types.BalanceSnapshot](ctx, s.cache, balanceKey(normalized))
}

// Refresh refetches every registered query and waits for them.
func (s *Service) Refresh(ctx context.Context) error {
	return s.cache.RefetchGroupsAfter(ctx, 0)
}

// Queries returns the state of every registered query.
func (s *Service) Queries() []querycache.Status {
	keys := s.cache.Keys()
	out := make([]querycache.Status, 0, len(keys))
	for _, key := range keys {
		if status, ok := s.cache.Status(key); ok {
			out = append(out, status)
		}
	}
	return out
}

// Actions returns the action builder.
func (s *Service) Actions() *actions.Builder {
	return s.actions
}

// Signer returns the signer address, empty for a read-only service.
func (s *Service) Signer() string {
	return s.chain.SignerAddress()
}

// Network returns the network name.
func (s *Service) Network() string {
	return s.chain.GetConfig().Network
}

// Healthy reports the node connection state.
func (s *Service) Healthy() bool {
	return s.chain.Healthy()
}

// CreateEvent creates an event from the signer's account.
func (s *Service) CreateEvent(ctx context.Context, in actions.CreateEventInput, opts actions.Options) (*types.TransactionResult, error) {
	return s.actions.CreateEvent(ctx, in, opts)
}

// JoinEvent joins an event.
func (s *Service) JoinEvent(ctx context.Context, eventID string, opts actions.Options) (*types.TransactionResult, error) {
	return s.actions.JoinEvent(ctx, eventID, opts)
}

// VerifyParticipants verifies the participants of an event.
func (s *Service) VerifyParticipants(ctx context.Context, eventID string, opts actions.Options) (*types.TransactionResult, error) {
	return s.actions.VerifyParticipants(ctx, eventID, opts)
}

// BuyToken swaps base currency for tokens.
func (s *Service) BuyToken(ctx context.Context, in actions.BuyTokenInput, opts actions.Options) (*types.TransactionResult, error) {
	return s.actions.BuyToken(ctx, in, opts)
}

// SubmitProof submits a proof with the signer's cached participant record.
func (s *Service) SubmitProof(ctx context.Context, eventID, proofLink string, opts actions.Options) (*types.TransactionResult, error) {
	facts, err := s.Participation(ctx, s.Signer())
	if err != nil {
		return nil, err
	}
	return s.actions.SubmitProof(ctx, eventID, proofLink, facts, opts)
}

// ClaimReward claims the reward of an event with the signer's cached submission record.
func (s *Service) ClaimReward(ctx context.Context, eventID string, opts actions.Options) (*types.TransactionResult, error) {
	event, err := s.Event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	facts, err := s.Participation(ctx, s.Signer())
	if err != nil {
		return nil, err
	}
	return s.actions.ClaimReward(ctx, event, facts, opts)
}

// loadBalances loads a snapshot and hands the signer's snapshot to the recorder.
func (s *Service) loadBalances(ctx context.Context, address string) (types.BalanceSnapshot, error) {
	snapshot, err := s.balances.Load(ctx, address)
	if err != nil {
		return snapshot, err
	}

	if s.options.Recorder != nil && address == s.signer {
		err := s.options.Recorder.RecordBalances(ctx, s.Network(), s.deployment.TokenCoinType(), snapshot)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"owner": address,
				"error": err,
			}).Warn("Failed to record balances")
		}
	}
	return snapshot, nil
}

func ownedKey(address string) querycache.Key {
	return querycache.Key{Group: querycache.GroupOwnedObjects, Params: address}
}

func participationKey(address string) querycache.Key {
	return querycache.Key{Group: querycache.GroupParticipation, Params: address}
}

func balanceKey(address string) querycache.Key {
	return querycache.Key{Group: querycache.GroupBalance, Params: address}
}
