package projection

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ClipFinance/quest-lib/common/chaintest"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestProjection(chain *chaintest.Chain) *Projection {
	logger, _ := test.NewNullLogger()
	return NewProjection(chain, chaintest.Deployment(), clockwork.NewFakeClockAt(now), logger)
}

func createTarget() string {
	return chaintest.Deployment().EventTarget(types.FnCreateEvent)
}

func created(id, objectType string) types.ObjectChange {
	return types.ObjectChange{Type: types.ObjectChangeCreated, ObjectID: id, ObjectType: objectType}
}

func TestOwnedEmptyAddress(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	events, err := newTestProjection(chain).Owned(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, events)
	require.Empty(t, events)
	require.Zero(t, chain.Calls("GetOwnedObjects"))
}

func TestOwnedFollowsPages(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	for i := 0; i < types.MaxObjectsPerRequest+5; i++ {
		chain.AddObject(chaintest.Alice, chaintest.EventObject(fmt.Sprintf("0xe%03d", i), "quest", 1_000_000_000, false))
	}

	events, err := newTestProjection(chain).Owned(context.Background(), chaintest.Alice)
	require.NoError(t, err)
	require.Len(t, events, types.MaxObjectsPerRequest+5)
	require.Equal(t, 2, chain.Calls("GetOwnedObjects"))
	require.Equal(t, "0xe000", events[0].ID)
	require.Equal(t, now, events[0].CreatedAt)
	require.Equal(t, 1.0, events[0].RewardAmount)
}

func TestOwnedSkipsUndecodable(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	chain.AddObject(chaintest.Alice, chaintest.EventObject("0xe1", "first", 0, false))
	broken := chaintest.EventObject("0xe2", "broken", 0, false)
	broken.Content.DataType = "package"
	chain.AddObject(chaintest.Alice, broken)
	chain.AddObject(chaintest.Alice, chaintest.EventObject("0xe3", "third", 0, true))

	events, err := newTestProjection(chain).Owned(context.Background(), chaintest.Alice)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "0xe1", events[0].ID)
	require.Equal(t, "0xe3", events[1].ID)
	require.Equal(t, types.EventStatusClaimed, events[1].Status())
}

func TestOwnedTransportError(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	chain.Fail("GetOwnedObjects", errors.New("connection refused"))

	_, err := newTestProjection(chain).Owned(context.Background(), chaintest.Alice)
	require.Error(t, err)
}

func TestAllFromHistory(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	eventType := chaintest.Deployment().EventStructType()

	chain.AddObject("", chaintest.EventObject("0xe1", "older", 0, false))
	chain.AddObject("", chaintest.EventObject("0xe2", "newer", 0, false))
	chain.AddTransaction(createTarget(), types.TransactionBlock{
		TimestampMs:   1_700_000_000_000,
		ObjectChanges: []types.ObjectChange{created("0xe1", eventType), created("0xc0", "0x2::coin::Coin<0x2::sui::SUI>")},
	})
	chain.AddTransaction(createTarget(), types.TransactionBlock{
		TimestampMs: 1_700_000_100_000,
		ObjectChanges: []types.ObjectChange{
			created("0xe2", eventType),
			{Type: "mutated", ObjectID: "0xe1", ObjectType: eventType},
		},
	})

	events, err := newTestProjection(chain).All(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "0xe2", events[0].ID)
	require.Equal(t, "0xe1", events[1].ID)
	require.Equal(t, time.UnixMilli(1_700_000_100_000), events[0].CreatedAt)
	require.Equal(t, 1, chain.Calls("MultiGetObjects"))
}

func TestAllSkipsMissingAndMalformed(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	eventType := chaintest.Deployment().EventStructType()

	chain.AddObject("", chaintest.EventObject("0xe1", "kept", 0, false))
	chain.AddTransaction(createTarget(), types.TransactionBlock{
		ObjectChanges: []types.ObjectChange{created("0xe1", eventType), created("0xdead", eventType), created("0xe1", eventType)},
	})

	events, err := newTestProjection(chain).All(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "0xe1", events[0].ID)
	require.Equal(t, now, events[0].CreatedAt)
}

func TestAllScansOnePage(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	eventType := chaintest.Deployment().EventStructType()

	for i := 0; i < HistoryPageSize+10; i++ {
		id := fmt.Sprintf("0xe%03d", i)
		chain.AddObject("", chaintest.EventObject(id, id, 0, false))
		chain.AddTransaction(createTarget(), types.TransactionBlock{
			ObjectChanges: []types.ObjectChange{created(id, eventType)},
		})
	}

	events, err := newTestProjection(chain).All(context.Background())
	require.NoError(t, err)
	require.Len(t, events, HistoryPageSize)
	require.Equal(t, fmt.Sprintf("0xe%03d", HistoryPageSize+9), events[0].ID)
	require.Equal(t, 1, chain.Calls("QueryTransactionBlocks"))
}

func TestAllReturnsFreshCollections(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	chain.AddObject("", chaintest.EventObject("0xe1", "quest", 0, false))
	chain.AddTransaction(createTarget(), types.TransactionBlock{
		ObjectChanges: []types.ObjectChange{created("0xe1", chaintest.Deployment().EventStructType())},
	})

	p := newTestProjection(chain)
	first, err := p.All(context.Background())
	require.NoError(t, err)
	first[0].Name = "changed"

	second, err := p.All(context.Background())
	require.NoError(t, err)
	require.Equal(t, "quest", second[0].Name)
}

func TestMerge(t *testing.T) {
	a := []types.Event{{ID: "1", Name: "a1"}, {ID: "2", Name: "a2"}}
	b := []types.Event{{ID: "2", Name: "b2"}, {ID: "3", Name: "b3"}, {ID: "1", Name: "b1"}}

	merged := Merge(a, b)
	require.Len(t, merged, 3)
	require.Equal(t, "a1", merged[0].Name)
	require.Equal(t, "a2", merged[1].Name)
	require.Equal(t, "b3", merged[2].Name)

	require.NotNil(t, Merge())
	require.Empty(t, Merge(nil, nil))
}
