package model

import (
	"github.com/fazamuttaqien/lendora/internal/domain"
)

func CustomerFromEntity(data *domain.Customer) Customer {
	return Customer{
		ID:                    data.ID,
		Email:                 data.Email,
		Password:              data.Password,
		FullName:              data.FullName,
		NationalID:            data.NationalID,
		Phone:                 data.Phone,
		DateOfBirth:           data.DateOfBirth,
		EmploymentType:        data.EmploymentType,
		ECNumber:              data.ECNumber,
		MonthlyIncome:         data.MonthlyIncome,
		MonthlyExpenses:       data.MonthlyExpenses,
		VerifiedMonthlyIncome: data.VerifiedMonthlyIncome,
		Role:                  Role(data.Role),
		KYCStatus:             KYCStatus(data.KYCStatus),
		KYCRejectReason:       data.KYCRejectReason,
	}
}

func CustomerToEntity(data Customer) *domain.Customer {
	return &domain.Customer{
		ID:                    data.ID,
		Email:                 data.Email,
		Password:              data.Password,
		FullName:              data.FullName,
		NationalID:            data.NationalID,
		Phone:                 data.Phone,
		DateOfBirth:           data.DateOfBirth,
		EmploymentType:        data.EmploymentType,
		ECNumber:              data.ECNumber,
		MonthlyIncome:         data.MonthlyIncome,
		MonthlyExpenses:       data.MonthlyExpenses,
		VerifiedMonthlyIncome: data.VerifiedMonthlyIncome,
		Role:                  domain.Role(data.Role),
		KYCStatus:             domain.KYCStatus(data.KYCStatus),
		KYCRejectReason:       data.KYCRejectReason,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
		KYCDocuments:          KYCDocumentsToEntity(data.KYCDocuments),
	}
}

func KYCDocumentsFromEntity(customerID uint64, data []domain.KYCDocument) []KYCDocument {
	docs := make([]KYCDocument, len(data))
	for i, d := range data {
		docs[i] = KYCDocument{
			CustomerID: customerID,
			Type:       string(d.Type),
			URL:        d.URL,
		}
	}
	return docs
}

func KYCDocumentsToEntity(data []KYCDocument) []domain.KYCDocument {
	docs := make([]domain.KYCDocument, len(data))
	for i, d := range data {
		docs[i] = domain.KYCDocument{
			ID:         d.ID,
			CustomerID: d.CustomerID,
			Type:       domain.DocumentType(d.Type),
			URL:        d.URL,
			UploadedAt: d.UploadedAt,
		}
	}
	return docs
}
