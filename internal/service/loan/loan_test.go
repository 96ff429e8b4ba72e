package loansrv_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/model"
	applicationrepo "github.com/fazamuttaqien/lendora/internal/repository/application"
	customerrepo "github.com/fazamuttaqien/lendora/internal/repository/customer"
	lenderrepo "github.com/fazamuttaqien/lendora/internal/repository/lender"
	"github.com/fazamuttaqien/lendora/internal/service"
	loansrv "github.com/fazamuttaqien/lendora/internal/service/loan"
	"github.com/fazamuttaqien/lendora/internal/testutil"
	"github.com/fazamuttaqien/lendora/pkg/common"
	"github.com/fazamuttaqien/lendora/pkg/loancalc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

type LoanServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	ctx         context.Context
	loanService service.LoanService

	customer *model.Customer
	lender   *model.Lender
	product  *model.LoanProduct
}

func (suite *LoanServiceTestSuite) SetupSuite() {
	suite.db = testutil.SQLite(suite.T(), "loansrv")
	suite.ctx = context.Background()

	meter, tracer, log := testutil.Telemetry("loan-service")
	suite.loanService = loansrv.NewLoanService(
		lenderrepo.NewLenderRepository(suite.db, meter, tracer, log),
		applicationrepo.NewApplicationRepository(suite.db, meter, tracer, log),
		customerrepo.NewCustomerRepository(suite.db, meter, tracer, log),
		loancalc.New(loancalc.DefaultPolicy()),
		loansrv.Settings{
			EligibilityRatePercent: 12,
			DefaultMonthlyIncome:   30000,
			DefaultMonthlyExpenses: 15000,
		},
		meter, tracer, log,
		loansrv.WithClock(func() time.Time { return fixedNow }),
	)
}

func (suite *LoanServiceTestSuite) SetupTest() {
	testutil.Truncate(suite.db)

	suite.customer = testutil.Customer("tendai@example.com", "12345678")
	require.NoError(suite.T(), suite.db.Create(suite.customer).Error)

	suite.lender = testutil.Lender("quickcash")
	require.NoError(suite.T(), suite.db.Create(suite.lender).Error)

	suite.product = &model.LoanProduct{
		LenderID:            suite.lender.ID,
		Name:                "Salary Advance",
		MinAmount:           10000,
		MaxAmount:           60000,
		InterestRatePercent: 24,
		MinTermMonths:       6,
		MaxTermMonths:       12,
		Features:            []string{"Same day payout"},
	}
	require.NoError(suite.T(), suite.db.Create(suite.product).Error)
}

func (suite *LoanServiceTestSuite) verify(income, expenses float64) {
	require.NoError(suite.T(), suite.db.Model(suite.customer).Updates(map[string]any{
		"kyc_status":       model.KYCVerified,
		"monthly_income":   income,
		"monthly_expenses": expenses,
	}).Error)
}

func (suite *LoanServiceTestSuite) application() dto.ApplicationRequest {
	return dto.ApplicationRequest{
		LenderID:        suite.lender.ID,
		Amount:          50000,
		TermMonths:      12,
		Purpose:         "School fees",
		MonthlyIncome:   30000,
		MonthlyExpenses: 15000,
	}
}

func (suite *LoanServiceTestSuite) TestQuote() {
	suite.T().Run("Success - lender rate", func(t *testing.T) {
		q, err := suite.loanService.Quote(suite.ctx, dto.QuoteRequest{
			LenderID:   suite.lender.ID,
			Amount:     50000,
			TermMonths: 12,
		})

		require.NoError(t, err)
		assert.Equal(t, 12.0, q.InterestRatePercent)
		assert.Equal(t, 4442.0, q.MonthlyPayment)
		assert.Equal(t, 53304.0, q.TotalPayment)
		assert.Equal(t, 3304.0, q.TotalInterest)
	})

	suite.T().Run("Success - loan product rate wins", func(t *testing.T) {
		q, err := suite.loanService.Quote(suite.ctx, dto.QuoteRequest{
			LenderID:      suite.lender.ID,
			LoanProductID: &suite.product.ID,
			Amount:        50000,
			TermMonths:    12,
		})

		require.NoError(t, err)
		assert.Equal(t, 24.0, q.InterestRatePercent)
		assert.Equal(t, 4728.0, q.MonthlyPayment)
	})

	suite.T().Run("Failure - unknown lender", func(t *testing.T) {
		q, err := suite.loanService.Quote(suite.ctx, dto.QuoteRequest{LenderID: 999, Amount: 50000, TermMonths: 12})

		assert.Nil(t, q)
		assert.ErrorIs(t, err, common.ErrLenderNotFound)
	})

	suite.T().Run("Failure - product of another lender", func(t *testing.T) {
		missing := suite.product.ID + 100
		q, err := suite.loanService.Quote(suite.ctx, dto.QuoteRequest{
			LenderID:      suite.lender.ID,
			LoanProductID: &missing,
			Amount:        50000,
			TermMonths:    12,
		})

		assert.Nil(t, q)
		assert.ErrorIs(t, err, common.ErrLoanProductNotFound)
	})
}

func (suite *LoanServiceTestSuite) TestSchedule() {
	q, rows, err := suite.loanService.Schedule(suite.ctx, dto.QuoteRequest{
		LenderID:   suite.lender.ID,
		Amount:     50000,
		TermMonths: 12,
	})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4442.0, q.MonthlyPayment)
	require.Len(suite.T(), rows, 12)
	assert.Equal(suite.T(), 1, rows[0].Month)
	assert.Equal(suite.T(), 500.0, rows[0].Interest.InexactFloat64())
	assert.True(suite.T(), rows[11].Balance.IsZero())
}

func (suite *LoanServiceTestSuite) TestCheckEligibility() {
	suite.T().Run("Profile figures and unverified identity", func(t *testing.T) {
		result, err := suite.loanService.CheckEligibility(suite.ctx, suite.customer.ID, dto.EligibilityRequest{
			LenderID:   suite.lender.ID,
			Amount:     50000,
			TermMonths: 12,
		})

		require.NoError(t, err)
		assert.False(t, result.Eligible)
		assert.False(t, result.IdentityVerified)
		assert.Equal(t, 10000.0, result.MonthlyIncome)
		assert.Equal(t, 5000.0, result.MonthlyExpenses)
		assert.Equal(t, 2000.0, result.SuggestedEMI)
		assert.Equal(t, 4442.0, result.RequestedEMI)
		assert.Zero(t, result.MaxLoanAmount)
	})

	suite.T().Run("Form figures override the profile", func(t *testing.T) {
		suite.verify(10000, 5000)
		income, expenses := 30000.0, 15000.0

		result, err := suite.loanService.CheckEligibility(suite.ctx, suite.customer.ID, dto.EligibilityRequest{
			LenderID:        suite.lender.ID,
			Amount:          50000,
			TermMonths:      12,
			MonthlyIncome:   &income,
			MonthlyExpenses: &expenses,
		})

		require.NoError(t, err)
		assert.True(t, result.Eligible)
		assert.Equal(t, 6000.0, result.SuggestedEMI)
		assert.Equal(t, 57600.0, result.MaxLoanAmount)
		assert.Equal(t, 12.0, result.InterestRatePercent)
	})

	suite.T().Run("Defaults when the profile has no income", func(t *testing.T) {
		require.NoError(t, suite.db.Model(suite.customer).Updates(map[string]any{
			"monthly_income":   0,
			"monthly_expenses": 0,
		}).Error)

		result, err := suite.loanService.CheckEligibility(suite.ctx, suite.customer.ID, dto.EligibilityRequest{
			LenderID:   suite.lender.ID,
			Amount:     50000,
			TermMonths: 12,
		})

		require.NoError(t, err)
		assert.Equal(t, 30000.0, result.MonthlyIncome)
		assert.Equal(t, 15000.0, result.MonthlyExpenses)
	})

	suite.T().Run("Payslip income beats declared income", func(t *testing.T) {
		require.NoError(t, suite.db.Model(suite.customer).Updates(map[string]any{
			"monthly_income":          10000,
			"verified_monthly_income": 40000,
			"monthly_expenses":        5000,
		}).Error)

		result, err := suite.loanService.CheckEligibility(suite.ctx, suite.customer.ID, dto.EligibilityRequest{
			LenderID:   suite.lender.ID,
			Amount:     50000,
			TermMonths: 12,
		})

		require.NoError(t, err)
		assert.Equal(t, 40000.0, result.MonthlyIncome)
		assert.Equal(t, 14000.0, result.SuggestedEMI)
	})

	suite.T().Run("Declared zero expenses are kept", func(t *testing.T) {
		require.NoError(t, suite.db.Model(suite.customer).Updates(map[string]any{
			"monthly_income":          20000,
			"verified_monthly_income": 0,
			"monthly_expenses":        0,
		}).Error)

		result, err := suite.loanService.CheckEligibility(suite.ctx, suite.customer.ID, dto.EligibilityRequest{
			LenderID:   suite.lender.ID,
			Amount:     50000,
			TermMonths: 12,
		})

		require.NoError(t, err)
		assert.Equal(t, 20000.0, result.MonthlyIncome)
		assert.Zero(t, result.MonthlyExpenses)
		assert.Equal(t, 8000.0, result.SuggestedEMI)
	})

	suite.T().Run("Failure - unknown customer", func(t *testing.T) {
		result, err := suite.loanService.CheckEligibility(suite.ctx, 999, dto.EligibilityRequest{
			LenderID:   suite.lender.ID,
			Amount:     50000,
			TermMonths: 12,
		})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, common.ErrCustomerNotFound)
	})
}

func (suite *LoanServiceTestSuite) TestSubmitApplication_Success() {
	suite.verify(30000, 15000)

	app, err := suite.loanService.SubmitApplication(suite.ctx, suite.customer.ID, suite.application())

	require.NoError(suite.T(), err)
	assert.True(suite.T(), strings.HasPrefix(app.Reference, "APP-"))
	assert.Equal(suite.T(), domain.ApplicationPending, app.Status)
	assert.Equal(suite.T(), 4442.0, app.MonthlyPayment)
	assert.Equal(suite.T(), 12.0, app.InterestRatePercent)
	assert.True(suite.T(), app.AppliedAt.Equal(fixedNow))
	require.Len(suite.T(), app.StatusUpdates, 1)
	assert.Equal(suite.T(), "Submitted", app.StatusUpdates[0].Message)

	var count int64
	suite.db.Model(&model.LoanApplication{}).Where("customer_id = ?", suite.customer.ID).Count(&count)
	assert.Equal(suite.T(), int64(1), count)
}

func (suite *LoanServiceTestSuite) TestSubmitApplication_Rejections() {
	suite.verify(30000, 15000)

	testCases := []struct {
		name   string
		modify func(req *dto.ApplicationRequest)
		want   error
	}{
		{"amount below minimum", func(req *dto.ApplicationRequest) { req.Amount = 5000 }, common.ErrAmountOutOfRange},
		{"amount above maximum", func(req *dto.ApplicationRequest) { req.Amount = 600000 }, common.ErrAmountOutOfRange},
		{"term not in allowed list", func(req *dto.ApplicationRequest) { req.TermMonths = 9 }, common.ErrTermOutOfRange},
		{"term beyond lender maximum", func(req *dto.ApplicationRequest) { req.TermMonths = 36 }, common.ErrTermOutOfRange},
		{"unaffordable", func(req *dto.ApplicationRequest) { req.MonthlyIncome = 16000 }, common.ErrNotEligible},
		{"unknown lender", func(req *dto.ApplicationRequest) { req.LenderID = 999 }, common.ErrLenderNotFound},
		{"product range applies", func(req *dto.ApplicationRequest) {
			req.LoanProductID = &suite.product.ID
			req.Amount = 70000
		}, common.ErrAmountOutOfRange},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			req := suite.application()
			tc.modify(&req)

			app, err := suite.loanService.SubmitApplication(suite.ctx, suite.customer.ID, req)

			assert.Nil(t, app)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	var count int64
	suite.db.Model(&model.LoanApplication{}).Count(&count)
	assert.Zero(suite.T(), count)
}

func (suite *LoanServiceTestSuite) TestSubmitApplication_UnverifiedIdentity() {
	app, err := suite.loanService.SubmitApplication(suite.ctx, suite.customer.ID, suite.application())

	assert.Nil(suite.T(), app)
	assert.ErrorIs(suite.T(), err, common.ErrNotEligible)
}

func (suite *LoanServiceTestSuite) TestListAndGetApplications() {
	suite.verify(30000, 15000)
	for i := 0; i < 3; i++ {
		_, err := suite.loanService.SubmitApplication(suite.ctx, suite.customer.ID, suite.application())
		require.NoError(suite.T(), err)
	}

	page, err := suite.loanService.ListMyApplications(suite.ctx, suite.customer.ID, domain.Params{Page: 1, Limit: 2})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), page.Total)
	assert.Equal(suite.T(), 2, page.TotalPages)
	assert.Len(suite.T(), page.Data, 2)

	defaults, err := suite.loanService.ListMyApplications(suite.ctx, suite.customer.ID, domain.Params{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, defaults.Page)
	assert.Equal(suite.T(), 10, defaults.Limit)

	apps := page.Data.([]domain.LoanApplication)
	found, err := suite.loanService.GetApplication(suite.ctx, suite.customer.ID, apps[0].ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), apps[0].Reference, found.Reference)

	other := testutil.Customer("rudo@example.com", "87654321")
	require.NoError(suite.T(), suite.db.Create(other).Error)

	_, err = suite.loanService.GetApplication(suite.ctx, other.ID, apps[0].ID)
	assert.ErrorIs(suite.T(), err, common.ErrApplicationNotFound)

	_, err = suite.loanService.GetStatusUpdates(suite.ctx, other.ID, apps[0].ID)
	assert.ErrorIs(suite.T(), err, common.ErrApplicationNotFound)
}

func (suite *LoanServiceTestSuite) TestUpdateApplicationStatus() {
	suite.verify(30000, 15000)
	app, err := suite.loanService.SubmitApplication(suite.ctx, suite.customer.ID, suite.application())
	require.NoError(suite.T(), err)

	suite.T().Run("Failure - skipping review", func(t *testing.T) {
		updated, err := suite.loanService.UpdateApplicationStatus(suite.ctx, app.ID, domain.ApplicationApproved, "")

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, common.ErrInvalidStatusTransition)
	})

	suite.T().Run("Success - review then approve", func(t *testing.T) {
		_, err := suite.loanService.UpdateApplicationStatus(suite.ctx, app.ID, domain.ApplicationUnderReview, "")
		require.NoError(t, err)

		updated, err := suite.loanService.UpdateApplicationStatus(suite.ctx, app.ID, domain.ApplicationApproved, "Approved by credit desk")
		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationApproved, updated.Status)
		require.NotNil(t, updated.ApprovedAt)

		updates, err := suite.loanService.GetStatusUpdates(suite.ctx, suite.customer.ID, app.ID)
		require.NoError(t, err)
		require.Len(t, updates, 3)
		assert.Equal(t, "Approved by credit desk", updates[0].Message)
		assert.Equal(t, "Application is under review", updates[1].Message)
	})

	suite.T().Run("Failure - unknown application", func(t *testing.T) {
		_, err := suite.loanService.UpdateApplicationStatus(suite.ctx, 999, domain.ApplicationUnderReview, "")

		assert.ErrorIs(t, err, common.ErrApplicationNotFound)
	})
}

func TestLoanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LoanServiceTestSuite))
}
