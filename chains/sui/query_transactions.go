package sui

import (
	"context"

	"github.com/ClipFinance/quest-lib/chains/sui/utils"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/pkg/errors"
)

// QueryTransactionBlocks queries the transaction history filtered by called Move function.
//
// Parameters:
// - ctx: the context for managing the request.
// - query: the filter, page size and ordering.
//
// Returns:
// - *types.TransactionBlockPage: one page of transaction blocks.
// - error: an error if the request fails.
func (s *sui) QueryTransactionBlocks(ctx context.Context, query types.TransactionQuery) (*types.TransactionBlockPage, error) {
	if query.MoveFunction.Package == "" {
		return nil, errors.New("move function filter requires a package")
	}
	limit := query.Limit
	if limit == 0 {
		limit = pageLimit
	}

	params := utils.TransactionBlockResponseQuery{
		Filter: &utils.TransactionFilter{
			MoveFunction: &utils.MoveFunction{
				Package:  query.MoveFunction.Package,
				Module:   utils.Optional(query.MoveFunction.Module),
				Function: utils.Optional(query.MoveFunction.Function),
			},
		},
		Options: &utils.TransactionBlockResponseOptions{
			ShowObjectChanges: query.ShowObjectChanges,
		},
	}

	var page types.TransactionBlockPage
	if err := s.call(ctx, &page, "suix_queryTransactionBlocks", params, query.Cursor, limit, query.Descending); err != nil {
		return nil, err
	}
	return &page, nil
}

// getTransactionBlock fetches an executed transaction with its effects and object changes.
func (s *sui) getTransactionBlock(ctx context.Context, digest string) (*types.TransactionBlock, error) {
	var block types.TransactionBlock
	options := utils.TransactionBlockResponseOptions{ShowEffects: true, ShowObjectChanges: true}
	if err := s.call(ctx, &block, "sui_getTransactionBlock", digest, options); err != nil {
		return nil, err
	}
	return &block, nil
}
