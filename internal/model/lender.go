package model

import (
	"github.com/fazamuttaqien/lendora/internal/domain"
)

func LenderFromEntity(data *domain.Lender) Lender {
	products := make([]LoanProduct, len(data.LoanProducts))
	for i, p := range data.LoanProducts {
		products[i] = LoanProduct{
			Name:                p.Name,
			MinAmount:           p.MinAmount,
			MaxAmount:           p.MaxAmount,
			InterestRatePercent: p.InterestRatePercent,
			MinTermMonths:       p.MinTermMonths,
			MaxTermMonths:       p.MaxTermMonths,
			Features:            p.Features,
		}
	}

	reviews := make([]LenderReview, len(data.Reviews))
	for i, r := range data.Reviews {
		reviews[i] = LenderReview{
			UserName: r.UserName,
			Rating:   r.Rating,
			Comment:  r.Comment,
			Date:     r.Date,
		}
	}

	return Lender{
		ID:                  data.ID,
		Code:                data.Code,
		Name:                data.Name,
		Kind:                string(data.Kind),
		Description:         data.Description,
		InterestRatePercent: data.InterestRatePercent,
		MinAmount:           data.MinAmount,
		MaxAmount:           data.MaxAmount,
		MinTermMonths:       data.MinTermMonths,
		MaxTermMonths:       data.MaxTermMonths,
		Rating:              data.Rating,
		ProcessingTime:      data.ProcessingTime,
		Specialties:         data.Specialties,
		LoanProducts:        products,
		Reviews:             reviews,
	}
}

func LenderToEntity(data Lender) *domain.Lender {
	return &domain.Lender{
		ID:                  data.ID,
		Code:                data.Code,
		Name:                data.Name,
		Kind:                domain.LenderKind(data.Kind),
		Description:         data.Description,
		InterestRatePercent: data.InterestRatePercent,
		MinAmount:           data.MinAmount,
		MaxAmount:           data.MaxAmount,
		MinTermMonths:       data.MinTermMonths,
		MaxTermMonths:       data.MaxTermMonths,
		Rating:              data.Rating,
		ProcessingTime:      data.ProcessingTime,
		Specialties:         data.Specialties,
		LoanProducts:        LoanProductsToEntity(data.LoanProducts),
		Reviews:             ReviewsToEntity(data.Reviews),
	}
}

func LendersToEntity(data []Lender) []domain.Lender {
	lenders := make([]domain.Lender, len(data))
	for i, l := range data {
		lenders[i] = *LenderToEntity(l)
	}
	return lenders
}

func LoanProductsToEntity(data []LoanProduct) []domain.LoanProduct {
	products := make([]domain.LoanProduct, len(data))
	for i, p := range data {
		products[i] = domain.LoanProduct{
			ID:                  p.ID,
			LenderID:            p.LenderID,
			Name:                p.Name,
			MinAmount:           p.MinAmount,
			MaxAmount:           p.MaxAmount,
			InterestRatePercent: p.InterestRatePercent,
			MinTermMonths:       p.MinTermMonths,
			MaxTermMonths:       p.MaxTermMonths,
			Features:            p.Features,
		}
	}
	return products
}

func ReviewsToEntity(data []LenderReview) []domain.Review {
	reviews := make([]domain.Review, len(data))
	for i, r := range data {
		reviews[i] = domain.Review{
			ID:       r.ID,
			LenderID: r.LenderID,
			UserName: r.UserName,
			Rating:   r.Rating,
			Comment:  r.Comment,
			Date:     r.Date,
		}
	}
	return reviews
}

func ProductFromEntity(data *domain.Product) Product {
	return Product{
		ID:          data.ID,
		SKU:         data.SKU,
		Name:        data.Name,
		Description: data.Description,
		Category:    data.Category,
		Price:       data.Price,
	}
}

func ProductsToEntity(data []Product) []domain.Product {
	products := make([]domain.Product, len(data))
	for i, p := range data {
		products[i] = domain.Product{
			ID:          p.ID,
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			Price:       p.Price,
		}
	}
	return products
}
