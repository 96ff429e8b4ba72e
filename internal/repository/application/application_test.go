package applicationrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/model"
	"github.com/fazamuttaqien/lendora/internal/repository"
	applicationrepo "github.com/fazamuttaqien/lendora/internal/repository/application"
	"github.com/fazamuttaqien/lendora/internal/testutil"
	"github.com/fazamuttaqien/lendora/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ApplicationRepositoryTestSuite struct {
	suite.Suite
	db                    *gorm.DB
	ctx                   context.Context
	applicationRepository repository.ApplicationRepository

	customer *model.Customer
	lender   *model.Lender
}

func (suite *ApplicationRepositoryTestSuite) SetupSuite() {
	suite.db = testutil.SQLite(suite.T(), "applicationrepo")
	suite.ctx = context.Background()

	meter, tracer, log := testutil.Telemetry("application-repository")
	suite.applicationRepository = applicationrepo.NewApplicationRepository(suite.db, meter, tracer, log)
}

func (suite *ApplicationRepositoryTestSuite) SetupTest() {
	testutil.Truncate(suite.db)

	suite.customer = testutil.Customer("tendai@example.com", "12345678")
	require.NoError(suite.T(), suite.db.Create(suite.customer).Error)

	suite.lender = testutil.Lender("quickcash")
	require.NoError(suite.T(), suite.db.Create(suite.lender).Error)
}

func (suite *ApplicationRepositoryTestSuite) newApplication(ref string, appliedAt time.Time) *domain.LoanApplication {
	return &domain.LoanApplication{
		Reference:           ref,
		CustomerID:          suite.customer.ID,
		LenderID:            suite.lender.ID,
		Amount:              50000,
		TermMonths:          12,
		InterestRatePercent: 12,
		MonthlyPayment:      4442,
		Purpose:             "School fees",
		MonthlyIncome:       30000,
		MonthlyExpenses:     15000,
		Status:              domain.ApplicationPending,
		AppliedAt:           appliedAt,
	}
}

func (suite *ApplicationRepositoryTestSuite) TestCreate_WritesFirstStatusUpdate() {
	created, err := suite.applicationRepository.Create(suite.ctx, suite.newApplication("APP-1", time.Now()), "Submitted")

	require.NoError(suite.T(), err)
	assert.NotZero(suite.T(), created.ID)
	require.Len(suite.T(), created.StatusUpdates, 1)
	assert.Equal(suite.T(), "Submitted", created.StatusUpdates[0].Message)
	assert.Equal(suite.T(), domain.ApplicationPending, created.StatusUpdates[0].Status)

	found, err := suite.applicationRepository.FindByID(suite.ctx, created.ID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), found.Lender)
	assert.Equal(suite.T(), "quickcash", found.Lender.Code)
	assert.Equal(suite.T(), "APP-1", found.Reference)
}

func (suite *ApplicationRepositoryTestSuite) TestFindByID_NotFound() {
	found, err := suite.applicationRepository.FindByID(suite.ctx, 4040)

	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), found)
}

func (suite *ApplicationRepositoryTestSuite) TestFindPaginatedByCustomerID() {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	for i, ref := range []string{"APP-A", "APP-B", "APP-C"} {
		_, err := suite.applicationRepository.Create(suite.ctx, suite.newApplication(ref, base.Add(time.Duration(i)*time.Hour)), "Submitted")
		require.NoError(suite.T(), err)
	}

	page, total, err := suite.applicationRepository.FindPaginatedByCustomerID(suite.ctx, suite.customer.ID, domain.Params{Page: 1, Limit: 2})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), total)
	require.Len(suite.T(), page, 2)
	assert.Equal(suite.T(), "APP-C", page[0].Reference)
	assert.Equal(suite.T(), "APP-B", page[1].Reference)

	rest, _, err := suite.applicationRepository.FindPaginatedByCustomerID(suite.ctx, suite.customer.ID, domain.Params{Page: 2, Limit: 2})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), rest, 1)
	assert.Equal(suite.T(), "APP-A", rest[0].Reference)

	approved, total, err := suite.applicationRepository.FindPaginatedByCustomerID(suite.ctx, suite.customer.ID, domain.Params{Status: "APPROVED"})
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), total)
	assert.Empty(suite.T(), approved)
}

func (suite *ApplicationRepositoryTestSuite) TestUpdateStatus_Transitions() {
	created, err := suite.applicationRepository.Create(suite.ctx, suite.newApplication("APP-1", time.Now().UTC().Add(-time.Hour)), "Submitted")
	require.NoError(suite.T(), err)

	approvedAt := time.Now().Add(-30 * time.Minute).UTC().Truncate(time.Second)
	require.NoError(suite.T(), suite.applicationRepository.UpdateStatus(suite.ctx, created.ID,
		domain.ApplicationPending, domain.ApplicationUnderReview, "Documents received", approvedAt.Add(-time.Minute)))
	require.NoError(suite.T(), suite.applicationRepository.UpdateStatus(suite.ctx, created.ID,
		domain.ApplicationUnderReview, domain.ApplicationApproved, "Approved", approvedAt))

	found, err := suite.applicationRepository.FindByID(suite.ctx, created.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.ApplicationApproved, found.Status)
	require.NotNil(suite.T(), found.ApprovedAt)
	assert.True(suite.T(), approvedAt.Equal(found.ApprovedAt.UTC()))
	assert.Nil(suite.T(), found.DisbursedAt)

	updates, err := suite.applicationRepository.FindStatusUpdates(suite.ctx, created.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), updates, 3)
	assert.Equal(suite.T(), "Approved", updates[0].Message)
	assert.Equal(suite.T(), "Submitted", updates[2].Message)
}

func (suite *ApplicationRepositoryTestSuite) TestUpdateStatus_StaleAndMissing() {
	created, err := suite.applicationRepository.Create(suite.ctx, suite.newApplication("APP-1", time.Now()), "Submitted")
	require.NoError(suite.T(), err)

	err = suite.applicationRepository.UpdateStatus(suite.ctx, created.ID,
		domain.ApplicationUnderReview, domain.ApplicationApproved, "Approved", time.Now())
	assert.ErrorIs(suite.T(), err, common.ErrStaleApplication)

	err = suite.applicationRepository.UpdateStatus(suite.ctx, 9999,
		domain.ApplicationPending, domain.ApplicationUnderReview, "Review", time.Now())
	assert.ErrorIs(suite.T(), err, common.ErrApplicationNotFound)

	updates, err := suite.applicationRepository.FindStatusUpdates(suite.ctx, created.ID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), updates, 1)
}

func TestApplicationRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ApplicationRepositoryTestSuite))
}
