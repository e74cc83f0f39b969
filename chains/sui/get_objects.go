package sui

import (
	"context"

	"github.com/ClipFinance/quest-lib/chains/sui/utils"
	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/pkg/errors"
)

// fullObjectOptions requests type, owner and parsed content.
var fullObjectOptions = utils.ObjectDataOptions{
	ShowType:    true,
	ShowOwner:   true,
	ShowContent: true,
}

// GetObject fetches a single object with its owner and content.
//
// Parameters:
// - ctx: the context for managing the request.
// - id: the object id.
//
// Returns:
// - *types.ObjectResponse: the object response.
// - error: ErrObjectNotFound when the node returns no data, or the transport error.
func (s *sui) GetObject(ctx context.Context, id string) (*types.ObjectResponse, error) {
	var resp types.ObjectResponse
	if err := s.call(ctx, &resp, "sui_getObject", id, fullObjectOptions); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, errors.Wrapf(commonErrors.ErrObjectNotFound, "%s: %s", id, string(resp.Error))
	}
	return &resp, nil
}

// MultiGetObjects fetches up to MaxObjectsPerRequest objects in one request.
//
// Parameters:
// - ctx: the context for managing the request.
// - ids: the object ids.
//
// Returns:
// - []types.ObjectResponse: one response per id in request order; missing objects carry an error and no data.
// - error: an error if the request fails or too many ids are given.
func (s *sui) MultiGetObjects(ctx context.Context, ids []string) ([]types.ObjectResponse, error) {
	if len(ids) == 0 {
		return []types.ObjectResponse{}, nil
	}
	if len(ids) > types.MaxObjectsPerRequest {
		return nil, errors.Errorf("at most %d objects per request, got %d", types.MaxObjectsPerRequest, len(ids))
	}

	var resp []types.ObjectResponse
	if err := s.call(ctx, &resp, "sui_multiGetObjects", ids, fullObjectOptions); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetOwnedObjects lists one page of objects owned by an address and matching a struct tag.
//
// Parameters:
// - ctx: the context for managing the request.
// - owner: the owner address.
// - structType: the struct tag to filter on.
// - cursor: the cursor of the previous page, nil for the first page.
// - limit: the page size, zero for the default.
//
// Returns:
// - *types.ObjectPage: the page of objects.
// - error: an error if the request fails.
func (s *sui) GetOwnedObjects(ctx context.Context, owner, structType string, cursor *string, limit uint) (*types.ObjectPage, error) {
	if limit == 0 {
		limit = pageLimit
	}

	query := utils.ObjectResponseQuery{Options: &fullObjectOptions}
	if structType != "" {
		query.Filter = &utils.ObjectFilter{StructType: structType}
	}

	var page types.ObjectPage
	if err := s.call(ctx, &page, "suix_getOwnedObjects", owner, query, cursor, limit); err != nil {
		return nil, err
	}
	return &page, nil
}

// resolveObjects turns object ids into transaction inputs: shared objects by initial shared version,
// everything else by its latest reference.
//
// Parameters:
// - ctx: the context for managing the request.
// - ids: the object ids used as transaction inputs.
//
// Returns:
// - map[string]ptb.ObjectArg: the resolved inputs keyed by id.
// - error: ErrObjectNotFound if an object does not exist.
func (s *sui) resolveObjects(ctx context.Context, ids []string) (map[string]ptb.ObjectArg, error) {
	resolved := make(map[string]ptb.ObjectArg, len(ids))

	for start := 0; start < len(ids); start += types.MaxObjectsPerRequest {
		end := start + types.MaxObjectsPerRequest
		if end > len(ids) {
			end = len(ids)
		}

		objects, err := s.MultiGetObjects(ctx, ids[start:end])
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve transaction objects")
		}
		if len(objects) != end-start {
			return nil, errors.Errorf("requested %d objects, node returned %d", end-start, len(objects))
		}

		for i, obj := range objects {
			id := ids[start+i]
			if obj.Data == nil {
				return nil, errors.Wrapf(commonErrors.ErrObjectNotFound, "%s", id)
			}
			resolved[id] = toObjectArg(obj.Data)
		}
	}

	return resolved, nil
}

// toObjectArg converts object data to a transaction input.
func toObjectArg(data *types.ObjectData) ptb.ObjectArg {
	if data.Owner != nil && data.Owner.Shared {
		return ptb.ObjectArg{
			Shared:               true,
			InitialSharedVersion: data.Owner.InitialSharedVersion,
			Mutable:              true,
		}
	}
	return ptb.ObjectArg{
		Ref: ptb.ObjectRef{
			ObjectID: data.ObjectID,
			Version:  uint64(data.Version),
			Digest:   data.Digest,
		},
	}
}
