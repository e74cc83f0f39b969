package balances

import (
	"context"
	"math/big"
	"testing"

	"github.com/ClipFinance/quest-lib/common/chaintest"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyAddress(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	snapshot, err := NewLoader(chain, chaintest.Deployment()).Load(context.Background(), "")
	require.NoError(t, err)
	require.Zero(t, snapshot.Base)
	require.Zero(t, snapshot.Token)
	require.Equal(t, "0", snapshot.BaseRaw.String())
	require.Zero(t, chain.Calls("GetBalance"))
}

func TestLoad(t *testing.T) {
	deployment := chaintest.Deployment()
	chain := chaintest.New(chaintest.Config(), "")
	chain.SetBalance(chaintest.Alice, types.SuiCoinType, big.NewInt(2_500_000_000))
	chain.SetBalance(chaintest.Alice, deployment.TokenCoinType(), big.NewInt(15_000_000_000))

	snapshot, err := NewLoader(chain, deployment).Load(context.Background(), chaintest.Alice)
	require.NoError(t, err)
	require.Equal(t, chaintest.Alice, snapshot.Address)
	require.Equal(t, 2.5, snapshot.Base)
	require.Equal(t, 15.0, snapshot.Token)
	require.Equal(t, "15000000000", snapshot.TokenRaw.String())
}

func TestLoadError(t *testing.T) {
	chain := chaintest.New(chaintest.Config(), "")
	chain.Fail("GetBalance", errors.New("node down"))

	_, err := NewLoader(chain, chaintest.Deployment()).Load(context.Background(), chaintest.Alice)
	require.Error(t, err)
}
