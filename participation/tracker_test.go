package participation

import (
	"context"
	"testing"

	"github.com/ClipFinance/quest-lib/common/chaintest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestTracker(chain *chaintest.Chain) *Tracker {
	logger, _ := test.NewNullLogger()
	return NewTracker(chain, chaintest.Deployment(), logger)
}

func TestLoadEmptyAddress(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	facts, err := newTestTracker(chain).Load(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, facts.JoinedEventIDs)
	require.NotNil(t, facts.SubmittedEventIDs)
	require.Empty(t, facts.JoinedEventIDs)
	require.Zero(t, chain.Calls("GetOwnedObjects"))
}

func TestLoad(t *testing.T) {
	deployment := chaintest.Deployment()
	chain := chaintest.New(chaintest.Config(), "")
	chain.AddObject(chaintest.Alice, chaintest.RecordObject("0xp1", deployment.ParticipantStructType(), "0xe2"))
	chain.AddObject(chaintest.Alice, chaintest.RecordObject("0xp2", deployment.ParticipantStructType(), "0xe1"))
	chain.AddObject(chaintest.Alice, chaintest.RecordObject("0xs1", deployment.SubmissionStructType(), "0xe1"))
	// a submission without a participant record still counts as joined
	chain.AddObject(chaintest.Alice, chaintest.RecordObject("0xs2", deployment.SubmissionStructType(), "0xe3"))
	// records of other accounts are ignored
	chain.AddObject("0xb0b", chaintest.RecordObject("0xp9", deployment.ParticipantStructType(), "0xe9"))

	facts, err := newTestTracker(chain).Load(context.Background(), chaintest.Alice)
	require.NoError(t, err)
	require.Equal(t, chaintest.Alice, facts.Address)
	require.Equal(t, []string{"0xe1", "0xe2", "0xe3"}, facts.JoinedEventIDs)
	require.Equal(t, []string{"0xe1", "0xe3"}, facts.SubmittedEventIDs)
	require.Equal(t, "0xp2", facts.ParticipantObjects["0xe1"])
	require.Equal(t, "0xs1", facts.SubmissionObjects["0xe1"])
	require.True(t, facts.HasJoined("0xe3"))
	require.False(t, facts.HasSubmitted("0xe2"))

	for _, id := range facts.SubmittedEventIDs {
		require.True(t, facts.HasJoined(id))
	}
}

func TestLoadSkipsMalformedRecords(t *testing.T) {
	deployment := chaintest.Deployment()
	chain := chaintest.New(chaintest.Config(), "")
	chain.AddObject(chaintest.Alice, chaintest.MoveObject("0xp1", deployment.ParticipantStructType(), map[string]any{"other": 1}))
	chain.AddObject(chaintest.Alice, chaintest.RecordObject("0xp2", deployment.ParticipantStructType(), "0xe2"))

	facts, err := newTestTracker(chain).Load(context.Background(), chaintest.Alice)
	require.NoError(t, err)
	require.Equal(t, []string{"0xe2"}, facts.JoinedEventIDs)
}

func TestLoadTransportError(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	chain.Fail("GetOwnedObjects", errors.New("timeout"))

	_, err := newTestTracker(chain).Load(context.Background(), chaintest.Alice)
	require.Error(t, err)
}
