package model

import (
	"github.com/fazamuttaqien/lendora/internal/domain"
)

func CreditOrderFromEntity(data *domain.CreditOrder) CreditOrder {
	items := make([]CreditOrderItem, len(data.Items))
	for i, it := range data.Items {
		items[i] = CreditOrderItem{
			OrderID:   data.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}

	return CreditOrder{
		ID:                  data.ID,
		CustomerID:          data.CustomerID,
		Subtotal:            data.Subtotal,
		DownPayment:         data.DownPayment,
		FinancedAmount:      data.FinancedAmount,
		TermMonths:          data.TermMonths,
		InterestRatePercent: data.InterestRatePercent,
		MonthlyInstallment:  data.MonthlyInstallment,
		AnnualIncome:        data.AnnualIncome,
		CreditHistory:       data.CreditHistory,
		Status:              OrderStatus(data.Status),
		BankName:            data.Bank.BankName,
		AccountNumber:       data.Bank.AccountNumber,
		AccountType:         data.Bank.AccountType,
		BranchName:          data.Bank.BranchName,
		RoutingCode:         data.Bank.RoutingCode,
		Items:               items,
	}
}

func CreditOrderToEntity(data CreditOrder) *domain.CreditOrder {
	items := make([]domain.OrderItem, len(data.Items))
	for i, it := range data.Items {
		items[i] = domain.OrderItem{
			ID:        it.ID,
			OrderID:   it.OrderID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}

	return &domain.CreditOrder{
		ID:                  data.ID,
		CustomerID:          data.CustomerID,
		Subtotal:            data.Subtotal,
		DownPayment:         data.DownPayment,
		FinancedAmount:      data.FinancedAmount,
		TermMonths:          data.TermMonths,
		InterestRatePercent: data.InterestRatePercent,
		MonthlyInstallment:  data.MonthlyInstallment,
		AnnualIncome:        data.AnnualIncome,
		CreditHistory:       data.CreditHistory,
		Status:              domain.OrderStatus(data.Status),
		Bank: domain.BankDetails{
			BankName:      data.BankName,
			AccountNumber: data.AccountNumber,
			AccountType:   data.AccountType,
			BranchName:    data.BranchName,
			RoutingCode:   data.RoutingCode,
		},
		CreatedAt: data.CreatedAt,
		Items:     items,
	}
}

func CreditOrdersToEntity(data []CreditOrder) []domain.CreditOrder {
	orders := make([]domain.CreditOrder, len(data))
	for i, o := range data {
		orders[i] = *CreditOrderToEntity(o)
	}
	return orders
}
