// internal/services/event_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintforge/assetledger/internal/models"
)

func TestFeedIsOrderedAndCursored(t *testing.T) {
	env := newTestEnv(t)
	creator := uuid.New()

	for i := 0; i < 5; i++ {
		env.mintAsset(t, creator, 0)
	}

	events, err := env.events.Feed(0, "", 100)
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].ID, events[i-1].ID)
	}

	// resume from a cursor
	tail, err := env.events.Feed(events[2].ID, "", 100)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, events[3].ID, tail[0].ID)
}

func TestFeedFiltersByType(t *testing.T) {
	env := newTestEnv(t)
	creator := uuid.New()

	asset := env.mintAsset(t, creator, 0)
	_, err := env.assets.SetSaleTerms(asset.ID, creator, &SaleTermsRequest{Price: 10, ForSale: true})
	require.NoError(t, err)

	minted, err := env.events.Feed(0, models.EventAssetMinted, 100)
	require.NoError(t, err)
	require.Len(t, minted, 1)
	assert.Equal(t, models.EventAssetMinted, minted[0].Type)

	priced, err := env.events.Feed(0, models.EventAssetPriceChanged, 100)
	require.NoError(t, err)
	require.Len(t, priced, 1)
	require.NotNil(t, priced[0].AssetID)
	assert.Equal(t, asset.ID, *priced[0].AssetID)
	assert.Equal(t, creator, priced[0].Actor)
}

func TestFeedLimitClamped(t *testing.T) {
	env := newTestEnv(t)
	creator := uuid.New()

	for i := 0; i < 3; i++ {
		env.mintAsset(t, creator, 0)
	}

	events, err := env.events.Feed(0, "", 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
