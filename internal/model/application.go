package model

import (
	"github.com/fazamuttaqien/lendora/internal/domain"
)

func LoanApplicationFromEntity(data *domain.LoanApplication) LoanApplication {
	return LoanApplication{
		ID:                  data.ID,
		Reference:           data.Reference,
		CustomerID:          data.CustomerID,
		LenderID:            data.LenderID,
		LoanProductID:       data.LoanProductID,
		Amount:              data.Amount,
		TermMonths:          data.TermMonths,
		InterestRatePercent: data.InterestRatePercent,
		MonthlyPayment:      data.MonthlyPayment,
		Purpose:             data.Purpose,
		Collateral:          data.Collateral,
		MonthlyIncome:       data.MonthlyIncome,
		MonthlyExpenses:     data.MonthlyExpenses,
		Status:              ApplicationStatus(data.Status),
		AppliedAt:           data.AppliedAt,
		ApprovedAt:          data.ApprovedAt,
		DisbursedAt:         data.DisbursedAt,
	}
}

func LoanApplicationToEntity(data LoanApplication) *domain.LoanApplication {
	app := &domain.LoanApplication{
		ID:                  data.ID,
		Reference:           data.Reference,
		CustomerID:          data.CustomerID,
		LenderID:            data.LenderID,
		LoanProductID:       data.LoanProductID,
		Amount:              data.Amount,
		TermMonths:          data.TermMonths,
		InterestRatePercent: data.InterestRatePercent,
		MonthlyPayment:      data.MonthlyPayment,
		Purpose:             data.Purpose,
		Collateral:          data.Collateral,
		MonthlyIncome:       data.MonthlyIncome,
		MonthlyExpenses:     data.MonthlyExpenses,
		Status:              domain.ApplicationStatus(data.Status),
		AppliedAt:           data.AppliedAt,
		ApprovedAt:          data.ApprovedAt,
		DisbursedAt:         data.DisbursedAt,
		StatusUpdates:       StatusUpdatesToEntity(data.StatusUpdates),
	}

	if data.Lender.ID != 0 {
		app.Lender = &domain.Lender{
			ID:                  data.Lender.ID,
			Code:                data.Lender.Code,
			Name:                data.Lender.Name,
			Kind:                domain.LenderKind(data.Lender.Kind),
			InterestRatePercent: data.Lender.InterestRatePercent,
		}
	}

	return app
}

func LoanApplicationsToEntity(data []LoanApplication) []domain.LoanApplication {
	apps := make([]domain.LoanApplication, len(data))
	for i, a := range data {
		apps[i] = *LoanApplicationToEntity(a)
	}
	return apps
}

func StatusUpdatesToEntity(data []ApplicationStatusUpdate) []domain.StatusUpdate {
	updates := make([]domain.StatusUpdate, len(data))
	for i, u := range data {
		updates[i] = domain.StatusUpdate{
			ID:            u.ID,
			ApplicationID: u.ApplicationID,
			Status:        domain.ApplicationStatus(u.Status),
			Message:       u.Message,
			CreatedAt:     u.CreatedAt,
		}
	}
	return updates
}
