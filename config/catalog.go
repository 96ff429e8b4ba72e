package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/spf13/viper"
)

// Catalog is the seed data for lenders, banks and store products.
type Catalog struct {
	Lenders  []CatalogLender  `mapstructure:"lenders"`
	Products []CatalogProduct `mapstructure:"products"`
}

type CatalogLender struct {
	Code                string               `mapstructure:"code"`
	Name                string               `mapstructure:"name"`
	Kind                string               `mapstructure:"kind"`
	Description         string               `mapstructure:"description"`
	InterestRatePercent float64              `mapstructure:"interest_rate_percent"`
	MinAmount           float64              `mapstructure:"min_amount"`
	MaxAmount           float64              `mapstructure:"max_amount"`
	MinTermMonths       int                  `mapstructure:"min_term_months"`
	MaxTermMonths       int                  `mapstructure:"max_term_months"`
	Rating              float64              `mapstructure:"rating"`
	ProcessingTime      string               `mapstructure:"processing_time"`
	Specialties         []string             `mapstructure:"specialties"`
	LoanProducts        []CatalogLoanProduct `mapstructure:"loan_products"`
	Reviews             []CatalogReview      `mapstructure:"reviews"`
}

type CatalogLoanProduct struct {
	Name                string   `mapstructure:"name"`
	MinAmount           float64  `mapstructure:"min_amount"`
	MaxAmount           float64  `mapstructure:"max_amount"`
	InterestRatePercent float64  `mapstructure:"interest_rate_percent"`
	MinTermMonths       int      `mapstructure:"min_term_months"`
	MaxTermMonths       int      `mapstructure:"max_term_months"`
	Features            []string `mapstructure:"features"`
}

type CatalogReview struct {
	UserName string `mapstructure:"user_name"`
	Rating   int    `mapstructure:"rating"`
	Comment  string `mapstructure:"comment"`
	Date     string `mapstructure:"date"`
}

type CatalogProduct struct {
	SKU         string  `mapstructure:"sku"`
	Name        string  `mapstructure:"name"`
	Description string  `mapstructure:"description"`
	Category    string  `mapstructure:"category"`
	Price       float64 `mapstructure:"price"`
}

const catalogDateLayout = "2006-01-02"

// LoadCatalog reads the YAML catalog at path and checks it for obvious mistakes.
func LoadCatalog(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading catalog file, %w", err)
	}

	var catalog Catalog
	if err := v.Unmarshal(&catalog); err != nil {
		return nil, fmt.Errorf("unable to decode catalog into struct, %w", err)
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	return &catalog, nil
}

func (c *Catalog) Validate() error {
	codes := make(map[string]struct{}, len(c.Lenders))
	for _, l := range c.Lenders {
		if l.Code == "" {
			return fmt.Errorf("lender %q has no code", l.Name)
		}
		if _, dup := codes[l.Code]; dup {
			return fmt.Errorf("duplicate lender code %q", l.Code)
		}
		codes[l.Code] = struct{}{}

		kind := domain.LenderKind(strings.ToUpper(l.Kind))
		if kind != domain.LenderCompany && kind != domain.LenderBank {
			return fmt.Errorf("lender %q has unknown kind %q", l.Code, l.Kind)
		}
		if l.MinAmount <= 0 || l.MaxAmount < l.MinAmount {
			return fmt.Errorf("lender %q has an invalid amount range", l.Code)
		}
		if l.MinTermMonths <= 0 || l.MaxTermMonths < l.MinTermMonths {
			return fmt.Errorf("lender %q has an invalid term range", l.Code)
		}
		if l.InterestRatePercent < 0 {
			return fmt.Errorf("lender %q has a negative interest rate", l.Code)
		}
		for _, r := range l.Reviews {
			if _, err := time.Parse(catalogDateLayout, r.Date); err != nil {
				return fmt.Errorf("lender %q review by %q has invalid date: %w", l.Code, r.UserName, err)
			}
		}
	}

	skus := make(map[string]struct{}, len(c.Products))
	for _, p := range c.Products {
		if p.SKU == "" {
			return fmt.Errorf("product %q has no sku", p.Name)
		}
		if _, dup := skus[p.SKU]; dup {
			return fmt.Errorf("duplicate product sku %q", p.SKU)
		}
		skus[p.SKU] = struct{}{}

		if p.Price <= 0 {
			return fmt.Errorf("product %q has a non-positive price", p.SKU)
		}
	}

	return nil
}

// DomainLenders converts the catalog lenders into domain entities.
func (c *Catalog) DomainLenders() []domain.Lender {
	lenders := make([]domain.Lender, len(c.Lenders))
	for i, l := range c.Lenders {
		products := make([]domain.LoanProduct, len(l.LoanProducts))
		for j, p := range l.LoanProducts {
			products[j] = domain.LoanProduct{
				Name:                p.Name,
				MinAmount:           p.MinAmount,
				MaxAmount:           p.MaxAmount,
				InterestRatePercent: p.InterestRatePercent,
				MinTermMonths:       p.MinTermMonths,
				MaxTermMonths:       p.MaxTermMonths,
				Features:            p.Features,
			}
		}

		reviews := make([]domain.Review, len(l.Reviews))
		for j, r := range l.Reviews {
			date, _ := time.Parse(catalogDateLayout, r.Date)
			reviews[j] = domain.Review{
				UserName: r.UserName,
				Rating:   r.Rating,
				Comment:  r.Comment,
				Date:     date,
			}
		}

		lenders[i] = domain.Lender{
			Code:                l.Code,
			Name:                l.Name,
			Kind:                domain.LenderKind(strings.ToUpper(l.Kind)),
			Description:         l.Description,
			InterestRatePercent: l.InterestRatePercent,
			MinAmount:           l.MinAmount,
			MaxAmount:           l.MaxAmount,
			MinTermMonths:       l.MinTermMonths,
			MaxTermMonths:       l.MaxTermMonths,
			Rating:              l.Rating,
			ProcessingTime:      l.ProcessingTime,
			Specialties:         l.Specialties,
			LoanProducts:        products,
			Reviews:             reviews,
		}
	}

	return lenders
}

// DomainProducts converts the catalog store products into domain entities.
func (c *Catalog) DomainProducts() []domain.Product {
	products := make([]domain.Product, len(c.Products))
	for i, p := range c.Products {
		products[i] = domain.Product{
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			Price:       p.Price,
		}
	}
	return products
}
