package customerrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/model"
	"github.com/fazamuttaqien/lendora/internal/repository"
	customerrepo "github.com/fazamuttaqien/lendora/internal/repository/customer"
	"github.com/fazamuttaqien/lendora/internal/testutil"
	"github.com/fazamuttaqien/lendora/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type CustomerRepositoryTestSuite struct {
	suite.Suite
	db                 *gorm.DB
	ctx                context.Context
	customerRepository repository.CustomerRepository
}

func (suite *CustomerRepositoryTestSuite) SetupSuite() {
	suite.db = testutil.SQLite(suite.T(), "customerrepo")
	suite.ctx = context.Background()

	meter, tracer, log := testutil.Telemetry("customer-repository")
	suite.customerRepository = customerrepo.NewCustomerRepository(suite.db, meter, tracer, log)
}

func (suite *CustomerRepositoryTestSuite) SetupTest() {
	testutil.Truncate(suite.db)
}

func (suite *CustomerRepositoryTestSuite) seed(email, nationalID string) *model.Customer {
	customer := testutil.Customer(email, nationalID)
	require.NoError(suite.T(), suite.db.Create(customer).Error)
	return customer
}

func (suite *CustomerRepositoryTestSuite) TestCreateCustomer_Success() {
	customer := &domain.Customer{
		Email:       "rudo@example.com",
		Password:    "hashed",
		FullName:    "Rudo Chikore",
		NationalID:  "63123456A17",
		Phone:       "0772000111",
		DateOfBirth: time.Date(1992, 3, 4, 0, 0, 0, 0, time.UTC),
		Role:        domain.CustomerRole,
		KYCStatus:   domain.KYCNotSubmitted,
	}

	data, err := suite.customerRepository.CreateCustomer(suite.ctx, customer)

	require.NoError(suite.T(), err)
	assert.NotZero(suite.T(), data.ID)

	var saved model.Customer
	require.NoError(suite.T(), suite.db.First(&saved, data.ID).Error)
	assert.Equal(suite.T(), "rudo@example.com", saved.Email)
	assert.Equal(suite.T(), model.KYCNotSubmitted, saved.KYCStatus)
}

func (suite *CustomerRepositoryTestSuite) TestCreateCustomer_DuplicateEmail() {
	suite.seed("dup@example.com", "11111111")

	_, err := suite.customerRepository.CreateCustomer(suite.ctx, &domain.Customer{
		Email:      "dup@example.com",
		Password:   "hashed",
		FullName:   "Someone Else",
		NationalID: "22222222",
		Phone:      "0772000111",
		Role:       domain.CustomerRole,
		KYCStatus:  domain.KYCNotSubmitted,
	})

	assert.Error(suite.T(), err)
}

func (suite *CustomerRepositoryTestSuite) TestFindByID_Success() {
	seeded := suite.seed("tendai@example.com", "12345678")

	result, err := suite.customerRepository.FindByID(suite.ctx, seeded.ID)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), result)
	assert.Equal(suite.T(), seeded.Email, result.Email)
	assert.Equal(suite.T(), domain.KYCNotSubmitted, result.KYCStatus)
}

func (suite *CustomerRepositoryTestSuite) TestFindByID_NotFound() {
	result, err := suite.customerRepository.FindByID(suite.ctx, 999999)

	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), result)
}

func (suite *CustomerRepositoryTestSuite) TestFindByEmail() {
	seeded := suite.seed("tendai@example.com", "12345678")

	found, err := suite.customerRepository.FindByEmail(suite.ctx, "tendai@example.com")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), found)
	assert.Equal(suite.T(), seeded.ID, found.ID)

	missing, err := suite.customerRepository.FindByEmail(suite.ctx, "nobody@example.com")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), missing)
}

func (suite *CustomerRepositoryTestSuite) TestFindByNationalID() {
	seeded := suite.seed("tendai@example.com", "12345678")

	found, err := suite.customerRepository.FindByNationalID(suite.ctx, "12345678")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), found)
	assert.Equal(suite.T(), seeded.ID, found.ID)
}

func (suite *CustomerRepositoryTestSuite) TestUpdate_OnlyProfileFields() {
	seeded := suite.seed("tendai@example.com", "12345678")

	err := suite.customerRepository.Update(suite.ctx, &domain.Customer{
		ID:              seeded.ID,
		Email:           "changed@example.com",
		FullName:        "Tendai M. Moyo",
		Phone:           "0779999999",
		EmploymentType:  domain.PrivateSectorEmployment,
		ECNumber:        "EC-123",
		MonthlyIncome:   12000,
		MonthlyExpenses: 4000,
		KYCStatus:       domain.KYCVerified,
	})
	require.NoError(suite.T(), err)

	var saved model.Customer
	require.NoError(suite.T(), suite.db.First(&saved, seeded.ID).Error)
	assert.Equal(suite.T(), "Tendai M. Moyo", saved.FullName)
	assert.Equal(suite.T(), 12000.0, saved.MonthlyIncome)
	assert.Equal(suite.T(), "EC-123", saved.ECNumber)
	assert.Equal(suite.T(), "tendai@example.com", saved.Email)
	assert.Equal(suite.T(), model.KYCNotSubmitted, saved.KYCStatus)
}

func (suite *CustomerRepositoryTestSuite) TestUpdate_NotFound() {
	err := suite.customerRepository.Update(suite.ctx, &domain.Customer{ID: 424242, FullName: "Ghost"})

	assert.ErrorIs(suite.T(), err, common.ErrCustomerNotFound)
}

func (suite *CustomerRepositoryTestSuite) TestSubmitKYC_ReplacesDocuments() {
	seeded := suite.seed("tendai@example.com", "12345678")

	first := []domain.KYCDocument{
		{Type: domain.DocumentNationalID, URL: "https://cdn.example.com/id-1.jpg"},
		{Type: domain.DocumentSelfie, URL: "https://cdn.example.com/selfie-1.jpg"},
	}
	require.NoError(suite.T(), suite.customerRepository.SubmitKYC(suite.ctx, seeded.ID, first, 0))

	second := []domain.KYCDocument{
		{Type: domain.DocumentNationalID, URL: "https://cdn.example.com/id-2.jpg"},
		{Type: domain.DocumentSelfie, URL: "https://cdn.example.com/selfie-2.jpg"},
		{Type: domain.DocumentPayslip, URL: "https://cdn.example.com/payslip.pdf"},
	}
	require.NoError(suite.T(), suite.customerRepository.SubmitKYC(suite.ctx, seeded.ID, second, 8750.5))

	customer, err := suite.customerRepository.FindByID(suite.ctx, seeded.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.KYCPending, customer.KYCStatus)
	assert.Equal(suite.T(), 8750.5, customer.VerifiedMonthlyIncome)
	require.Len(suite.T(), customer.KYCDocuments, 3)
	for _, doc := range customer.KYCDocuments {
		assert.NotContains(suite.T(), doc.URL, "-1.")
	}
}

func (suite *CustomerRepositoryTestSuite) TestSubmitKYC_UnknownCustomerRollsBack() {
	err := suite.customerRepository.SubmitKYC(suite.ctx, 777, []domain.KYCDocument{
		{Type: domain.DocumentNationalID, URL: "https://cdn.example.com/id.jpg"},
	}, 0)

	assert.ErrorIs(suite.T(), err, common.ErrCustomerNotFound)

	var count int64
	suite.db.Model(&model.KYCDocument{}).Count(&count)
	assert.Zero(suite.T(), count)
}

func (suite *CustomerRepositoryTestSuite) TestSetKYCStatus() {
	seeded := suite.seed("tendai@example.com", "12345678")

	require.NoError(suite.T(), suite.customerRepository.SetKYCStatus(suite.ctx, seeded.ID, domain.KYCRejected, "blurry selfie"))

	var saved model.Customer
	require.NoError(suite.T(), suite.db.First(&saved, seeded.ID).Error)
	assert.Equal(suite.T(), model.KYCRejected, saved.KYCStatus)
	assert.Equal(suite.T(), "blurry selfie", saved.KYCRejectReason)

	err := suite.customerRepository.SetKYCStatus(suite.ctx, 999, domain.KYCVerified, "")
	assert.ErrorIs(suite.T(), err, common.ErrCustomerNotFound)
}

func TestCustomerRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CustomerRepositoryTestSuite))
}
