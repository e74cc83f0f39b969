package questsync

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ClipFinance/quest-lib/actions"
	"github.com/ClipFinance/quest-lib/common/chaintest"
	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/querycache"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu        sync.Mutex
	snapshots []types.BalanceSnapshot
	network   string
	coinType  string
	err       error
}

func (f *fakeRecorder) RecordBalances(_ context.Context, network, coinType string, snapshot types.BalanceSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.network = network
	f.coinType = coinType
	f.snapshots = append(f.snapshots, snapshot)
	return f.err
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func newTestService(t *testing.T, chain *chaintest.Chain, recorder BalanceRecorder) *Service {
	logger, _ := test.NewNullLogger()
	options := DefaultOptions()
	options.Clock = clockwork.NewFakeClock()
	options.SettleDelay = 0
	if recorder != nil {
		options.Recorder = recorder
	}
	service, err := New(chain, logger, options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Stop() })
	return service
}

func createEvent(chain *chaintest.Chain, id, name string) {
	deployment := chaintest.Deployment()
	chain.AddObject("", chaintest.EventObject(id, name, 2_000_000_000, false))
	chain.AddTransaction(deployment.EventTarget(types.FnCreateEvent), types.TransactionBlock{
		TimestampMs: 1_700_000_000_000,
		ObjectChanges: []types.ObjectChange{
			{Type: types.ObjectChangeCreated, ObjectID: id, ObjectType: deployment.EventStructType()},
		},
	})
}

func TestNewRegistersQueries(t *testing.T) {
	readOnly := newTestService(t, chaintest.New(chaintest.Config(), ""), nil)
	require.Len(t, readOnly.Queries(), 1)

	signed := newTestService(t, chaintest.New(chaintest.Config(), chaintest.Alice), nil)
	require.Len(t, signed.Queries(), 4)
	require.Equal(t, chaintest.Alice, signed.Signer())
	require.Equal(t, "testnet", signed.Network())

	require.NoError(t, signed.Watch(chaintest.Alice))
	require.Len(t, signed.Queries(), 4)
	require.NoError(t, signed.Watch("0xb0b"))
	require.Len(t, signed.Queries(), 7)
	require.NoError(t, signed.Watch("0x0000000000000000000000000000000000000000000000000000000000000b0b"))
	require.Len(t, signed.Queries(), 7)
}

func TestWatchRejectsInvalidAddress(t *testing.T) {
	service := newTestService(t, chaintest.New(chaintest.Config(), ""), nil)

	for _, address := range []string{"", "0x", "0xzz", "bob", "0x" + strings.Repeat("a", 65)} {
		err := service.Watch(address)
		require.ErrorIs(t, err, commonErrors.ErrInvalidAddress, address)
	}
	_, err := service.Balances(context.Background(), "0xnot-hex")
	require.ErrorIs(t, err, commonErrors.ErrInvalidAddress)
	require.Len(t, service.Queries(), 1)
}

func TestWatchBounded(t *testing.T) {
	logger, _ := test.NewNullLogger()
	options := DefaultOptions()
	options.Clock = clockwork.NewFakeClock()
	options.MaxWatched = 4
	service, err := New(chaintest.New(chaintest.Config(), chaintest.Alice), logger, options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Stop() })

	for i := 1; i <= 100; i++ {
		require.NoError(t, service.Watch(fmt.Sprintf("0x%x", i)))
		require.LessOrEqual(t, len(service.Queries()), 1+3+3*options.MaxWatched)
	}
	require.Len(t, service.Queries(), 1+3+3*options.MaxWatched)

	// the signer stays watched and the oldest accounts are dropped
	require.True(t, service.cache.Registered(balanceKey(chaintest.Alice)))
	first, err := ptb.NormalizeAddress("0x1")
	require.NoError(t, err)
	require.False(t, service.cache.Registered(ownedKey(first)))
	require.False(t, service.cache.Registered(participationKey(first)))
	require.False(t, service.cache.Registered(balanceKey(first)))
	last, err := ptb.NormalizeAddress("0x64")
	require.NoError(t, err)
	require.True(t, service.cache.Registered(balanceKey(last)))

	// reading an evicted account watches it again
	_, err = service.Balances(context.Background(), "0x1")
	require.NoError(t, err)
	require.True(t, service.cache.Registered(balanceKey(first)))
	require.Len(t, service.Queries(), 1+3+3*options.MaxWatched)
}

func TestNewInvalidDeployment(t *testing.T) {
	logger, _ := test.NewNullLogger()
	config := chaintest.Config()
	config.Deployment.EventPackageID = ""

	_, err := New(chaintest.New(config, ""), logger, DefaultOptions())
	require.ErrorIs(t, err, commonErrors.ErrInvalidConfig)

	_, err = New(nil, logger, DefaultOptions())
	require.ErrorIs(t, err, commonErrors.ErrInvalidConfig)
}

func TestEventsMergesOwned(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), chaintest.Alice)
	createEvent(chain, "0xe1", "history")
	chain.AddObject(chaintest.Alice, chaintest.EventObject("0xe1", "history", 2_000_000_000, false))
	chain.AddObject(chaintest.Alice, chaintest.EventObject("0xe2", "owned", 1_000_000_000, false))
	service := newTestService(t, chain, nil)

	events, err := service.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "0xe1", events[0].ID)
	require.Equal(t, "0xe2", events[1].ID)

	// served from the cache while fresh
	_, err = service.Events(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, chain.Calls("QueryTransactionBlocks"))
}

func TestEvent(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	createEvent(chain, "0xe1", "listed")
	chain.AddObject("", chaintest.EventObject("0xe5", "unlisted", 0, true))
	chain.AddObject("", chaintest.RecordObject("0xd1", chaintest.Deployment().SubmissionStructType(), "0xe1"))
	service := newTestService(t, chain, nil)

	event, err := service.Event(context.Background(), "0xe1")
	require.NoError(t, err)
	require.Equal(t, "listed", event.Name)

	event, err = service.Event(context.Background(), "0xe5")
	require.NoError(t, err)
	require.Equal(t, "unlisted", event.Name)
	require.Equal(t, types.EventStatusClaimed, event.Status())

	_, err = service.Event(context.Background(), "0xd1")
	require.ErrorIs(t, err, commonErrors.ErrObjectNotFound)
}

func TestAccountReads(t *testing.T) {
	deployment := chaintest.Deployment()
	chain := chaintest.New(chaintest.Config(), "")
	chain.AddObject("0xb0b", chaintest.RecordObject("0xb1", deployment.ParticipantStructType(), "0xe1"))
	chain.SetBalance("0xb0b", types.SuiCoinType, big.NewInt(3_000_000_000))
	service := newTestService(t, chain, nil)

	facts, err := service.Participation(context.Background(), "0xb0b")
	require.NoError(t, err)
	require.True(t, facts.HasJoined("0xe1"))

	snapshot, err := service.Balances(context.Background(), "0xb0b")
	require.NoError(t, err)
	require.Equal(t, 3.0, snapshot.Base)

	owned, err := service.OwnedEvents(context.Background(), "0xb0b")
	require.NoError(t, err)
	require.Empty(t, owned)

	empty, err := service.Participation(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, empty.JoinedEventIDs)
	require.Len(t, service.Queries(), 4)
}

func TestBalancesRecorded(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), chaintest.Alice)
	chain.SetBalance(chaintest.Alice, types.SuiCoinType, big.NewInt(1_000_000_000))
	recorder := &fakeRecorder{err: errors.New("db down")}
	service := newTestService(t, chain, recorder)

	snapshot, err := service.Balances(context.Background(), chaintest.Alice)
	require.NoError(t, err)
	require.Equal(t, 1.0, snapshot.Base)
	require.Equal(t, 1, recorder.count())
	require.Equal(t, "testnet", recorder.network)
	require.Equal(t, chaintest.Deployment().TokenCoinType(), recorder.coinType)

	// other accounts are not recorded
	_, err = service.Balances(context.Background(), "0xb0b")
	require.NoError(t, err)
	require.Equal(t, 1, recorder.count())
}

func TestSubmitProofUsesParticipation(t *testing.T) {
	deployment := chaintest.Deployment()
	chain := chaintest.New(chaintest.Config(), chaintest.Alice)
	service := newTestService(t, chain, nil)

	_, err := service.SubmitProof(context.Background(), "0xe1", "https://example.com/proof", actions.Options{})
	require.ErrorIs(t, err, commonErrors.ErrMissingParticipant)
	require.Empty(t, chain.Sent())

	chain.AddObject(chaintest.Alice, chaintest.RecordObject("0xb1", deployment.ParticipantStructType(), "0xe1"))
	require.NoError(t, service.Refresh(context.Background()))

	result, err := service.SubmitProof(context.Background(), "0xe1", "https://example.com/proof", actions.Options{})
	require.NoError(t, err)
	require.Equal(t, types.TxDone, result.Status)
	require.Len(t, chain.Sent(), 1)
}

func TestClaimReward(t *testing.T) {
	deployment := chaintest.Deployment()
	chain := chaintest.New(chaintest.Config(), chaintest.Alice)
	createEvent(chain, "0xe1", "quest")
	chain.AddObject(chaintest.Alice, chaintest.RecordObject("0xd1", deployment.SubmissionStructType(), "0xe1"))
	service := newTestService(t, chain, nil)

	result, err := service.ClaimReward(context.Background(), "0xe1", actions.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, result.Digest)

	_, err = service.ClaimReward(context.Background(), "0xe9", actions.Options{})
	require.ErrorIs(t, err, commonErrors.ErrObjectNotFound)
}

func TestRefresh(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), chaintest.Alice)
	service := newTestService(t, chain, nil)

	require.NoError(t, service.Refresh(context.Background()))
	require.Equal(t, 1, chain.Calls("QueryTransactionBlocks"))
	require.Equal(t, 2, chain.Calls("GetBalance"))

	for _, status := range service.Queries() {
		require.Equal(t, querycache.StateFresh, status.State, status.Key.String())
	}

	chain.Fail("GetBalance", errors.New("node down"))
	require.Error(t, service.Refresh(context.Background()))
}

func TestStopClosesChain(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	chain.SetHealthy(true)
	logger, _ := test.NewNullLogger()
	service, err := New(chain, logger, DefaultOptions())
	require.NoError(t, err)
	require.True(t, service.Healthy())

	service.Start(context.Background())
	require.NoError(t, service.Stop())
	require.True(t, chain.Closed())
	require.False(t, service.Healthy())
}
