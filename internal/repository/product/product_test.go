package productrepo_test

import (
	"context"
	"testing"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/repository"
	productrepo "github.com/fazamuttaqien/lendora/internal/repository/product"
	"github.com/fazamuttaqien/lendora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ProductRepositoryTestSuite struct {
	suite.Suite
	db                *gorm.DB
	ctx               context.Context
	productRepository repository.ProductRepository
}

func (suite *ProductRepositoryTestSuite) SetupSuite() {
	suite.db = testutil.SQLite(suite.T(), "productrepo")
	suite.ctx = context.Background()

	meter, tracer, log := testutil.Telemetry("product-repository")
	suite.productRepository = productrepo.NewProductRepository(suite.db, meter, tracer, log)
}

func (suite *ProductRepositoryTestSuite) SetupTest() {
	testutil.Truncate(suite.db)
}

func (suite *ProductRepositoryTestSuite) seed() []domain.Product {
	var out []domain.Product
	for _, p := range []domain.Product{
		{SKU: "PHN-001", Name: "Galaxy A15", Description: "Android smartphone", Category: "Phones", Price: 45000},
		{SKU: "LAP-002", Name: "IdeaPad 3", Description: "15 inch laptop", Category: "Computers", Price: 120000},
		{SKU: "FRG-003", Name: "Double Door Fridge", Description: "Frost free", Category: "Appliances", Price: 95000},
	} {
		stored, err := suite.productRepository.Upsert(suite.ctx, &p)
		require.NoError(suite.T(), err)
		out = append(out, *stored)
	}
	return out
}

func (suite *ProductRepositoryTestSuite) TestUpsert_UpdatesBySKU() {
	products := suite.seed()

	changed := products[0]
	changed.ID = 0
	changed.Price = 42000
	stored, err := suite.productRepository.Upsert(suite.ctx, &changed)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), products[0].ID, stored.ID)
	assert.Equal(suite.T(), 42000.0, stored.Price)

	all, err := suite.productRepository.FindAll(suite.ctx, "", "")
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), all, 3)
}

func (suite *ProductRepositoryTestSuite) TestFindAll_Filters() {
	suite.seed()

	phones, err := suite.productRepository.FindAll(suite.ctx, "phones", "")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), phones, 1)
	assert.Equal(suite.T(), "PHN-001", phones[0].SKU)

	laptops, err := suite.productRepository.FindAll(suite.ctx, "", "LAPTOP")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), laptops, 1)
	assert.Equal(suite.T(), "LAP-002", laptops[0].SKU)
}

func (suite *ProductRepositoryTestSuite) TestFindByID() {
	products := suite.seed()

	found, err := suite.productRepository.FindByID(suite.ctx, products[1].ID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), found)
	assert.Equal(suite.T(), "IdeaPad 3", found.Name)

	missing, err := suite.productRepository.FindByID(suite.ctx, 9999)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), missing)
}

func (suite *ProductRepositoryTestSuite) TestFindByIDs_SkipsUnknown() {
	products := suite.seed()

	found, err := suite.productRepository.FindByIDs(suite.ctx, []uint64{products[0].ID, products[2].ID, 9999})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), found, 2)

	none, err := suite.productRepository.FindByIDs(suite.ctx, nil)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), none)
}

func TestProductRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ProductRepositoryTestSuite))
}
