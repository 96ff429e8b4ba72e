package cartrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/repository"
	cartrepo "github.com/fazamuttaqien/lendora/internal/repository/cart"
	"github.com/fazamuttaqien/lendora/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CartRepositoryTestSuite struct {
	suite.Suite
	ctx            context.Context
	mr             *miniredis.Miniredis
	cartRepository repository.CartRepository
}

func (suite *CartRepositoryTestSuite) SetupTest() {
	suite.ctx = context.Background()

	mr, client := testutil.Redis(suite.T())
	suite.mr = mr

	meter, tracer, log := testutil.Telemetry("cart-repository")
	suite.cartRepository = cartrepo.NewCartRepository(client, 7*24*time.Hour, meter, tracer, log)
}

func (suite *CartRepositoryTestSuite) TestSetAndGet_OrderedByProduct() {
	require.NoError(suite.T(), suite.cartRepository.SetItem(suite.ctx, 7, domain.CartItem{ProductID: 3, Name: "Fridge", Price: 95000, Quantity: 1}))
	require.NoError(suite.T(), suite.cartRepository.SetItem(suite.ctx, 7, domain.CartItem{ProductID: 1, Name: "Phone", Price: 45000, Quantity: 2}))

	items, err := suite.cartRepository.Get(suite.ctx, 7)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 2)
	assert.Equal(suite.T(), uint64(1), items[0].ProductID)
	assert.Equal(suite.T(), 2, items[0].Quantity)

	assert.True(suite.T(), suite.mr.Exists("cart:7"))
	assert.Equal(suite.T(), 7*24*time.Hour, suite.mr.TTL("cart:7"))
}

func (suite *CartRepositoryTestSuite) TestGetItem() {
	require.NoError(suite.T(), suite.cartRepository.SetItem(suite.ctx, 7, domain.CartItem{ProductID: 1, Name: "Phone", Price: 45000, Quantity: 2}))

	item, err := suite.cartRepository.GetItem(suite.ctx, 7, 1)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), item)
	assert.Equal(suite.T(), "Phone", item.Name)

	missing, err := suite.cartRepository.GetItem(suite.ctx, 7, 2)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), missing)
}

func (suite *CartRepositoryTestSuite) TestRemoveAndClear() {
	require.NoError(suite.T(), suite.cartRepository.SetItem(suite.ctx, 7, domain.CartItem{ProductID: 1, Quantity: 1}))
	require.NoError(suite.T(), suite.cartRepository.SetItem(suite.ctx, 7, domain.CartItem{ProductID: 2, Quantity: 1}))

	require.NoError(suite.T(), suite.cartRepository.RemoveItem(suite.ctx, 7, 1))
	require.NoError(suite.T(), suite.cartRepository.RemoveItem(suite.ctx, 7, 99))

	items, err := suite.cartRepository.Get(suite.ctx, 7)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 1)
	assert.Equal(suite.T(), uint64(2), items[0].ProductID)

	require.NoError(suite.T(), suite.cartRepository.Clear(suite.ctx, 7))
	assert.False(suite.T(), suite.mr.Exists("cart:7"))

	empty, err := suite.cartRepository.Get(suite.ctx, 7)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), empty)
}

func (suite *CartRepositoryTestSuite) TestCartsAreIsolatedAndExpire() {
	require.NoError(suite.T(), suite.cartRepository.SetItem(suite.ctx, 7, domain.CartItem{ProductID: 1, Quantity: 1}))

	other, err := suite.cartRepository.Get(suite.ctx, 8)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), other)

	suite.mr.FastForward(8 * 24 * time.Hour)

	expired, err := suite.cartRepository.Get(suite.ctx, 7)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), expired)
}

func (suite *CartRepositoryTestSuite) TestCorruptEntry() {
	suite.mr.HSet("cart:7", "1", "{not json")

	_, err := suite.cartRepository.Get(suite.ctx, 7)
	assert.Error(suite.T(), err)
}

func TestCartRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CartRepositoryTestSuite))
}
