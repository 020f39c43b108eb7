package profile

import (
	"context"

	"github.com/kscalelabs/storefront/internal/services/web/integration/storeapi"
	apperrors "github.com/kscalelabs/storefront/internal/services/web/platform/errors"
)

// Gateway reads and writes user records on the store API.
type Gateway interface {
	Me(ctx context.Context) (UserRecord, error)
	PublicUser(ctx context.Context, userID string) (UserRecord, error)
	UpdateMe(ctx context.Context, update UpdateRequest) (UserRecord, error)
}

// StoreClient is the subset of the store API client used by profiles.
type StoreClient interface {
	Me(ctx context.Context) (storeapi.User, error)
	PublicUser(ctx context.Context, userID string) (storeapi.User, error)
	UpdateMe(ctx context.Context, update storeapi.UserUpdate) (storeapi.User, error)
}

// NewStoreGateway adapts client, or returns an unavailable gateway when nil.
func NewStoreGateway(client StoreClient) Gateway {
	if client == nil {
		return unavailableGateway{}
	}
	return storeGateway{client: client}
}

type storeGateway struct {
	client StoreClient
}

func (g storeGateway) Me(ctx context.Context) (UserRecord, error) {
	user, err := g.client.Me(ctx)
	if err != nil {
		return UserRecord{}, err
	}
	return recordFromStore(user), nil
}

func (g storeGateway) PublicUser(ctx context.Context, userID string) (UserRecord, error) {
	user, err := g.client.PublicUser(ctx, userID)
	if err != nil {
		return UserRecord{}, err
	}
	return recordFromStore(user), nil
}

func (g storeGateway) UpdateMe(ctx context.Context, update UpdateRequest) (UserRecord, error) {
	user, err := g.client.UpdateMe(ctx, storeapi.UserUpdate{
		FirstName: update.FirstName,
		LastName:  update.LastName,
		Bio:       update.Bio,
	})
	if err != nil {
		return UserRecord{}, err
	}
	return recordFromStore(user), nil
}

func recordFromStore(user storeapi.User) UserRecord {
	return UserRecord{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

type unavailableGateway struct{}

func (unavailableGateway) Me(context.Context) (UserRecord, error) {
	return UserRecord{}, apperrors.E(apperrors.KindUnavailable, "store api is not configured")
}

func (unavailableGateway) PublicUser(context.Context, string) (UserRecord, error) {
	return UserRecord{}, apperrors.E(apperrors.KindUnavailable, "store api is not configured")
}

func (unavailableGateway) UpdateMe(context.Context, UpdateRequest) (UserRecord, error) {
	return UserRecord{}, apperrors.E(apperrors.KindUnavailable, "store api is not configured")
}
