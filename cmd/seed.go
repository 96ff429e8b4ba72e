package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/fazamuttaqien/lendora/config"
	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/repository"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/password"

	"go.uber.org/zap"
)

const adminNationalID = "00000000001"

// SeedAdmin creates the back-office account once. An empty password skips it.
func SeedAdmin(ctx context.Context, customers repository.CustomerRepository, email, plain string, log *zap.Logger) error {
	if plain == "" {
		log.Warn("ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	existing, err := customers.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Info("Admin user already exists", zap.String("email", email))
		return nil
	}

	hashed, err := password.HashPassword(plain)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = customers.CreateCustomer(ctx, &domain.Customer{
		Email:          email,
		Password:       hashed,
		FullName:       "Administrator",
		NationalID:     adminNationalID,
		Phone:          "0000000000",
		DateOfBirth:    time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		EmploymentType: "Staff",
		Role:           domain.AdminRole,
		KYCStatus:      domain.KYCVerified,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Info("Admin user created", zap.String("email", email))
	return nil
}

// SeedCatalog upserts lenders and store products from the catalog file.
// A missing file is not an error.
func SeedCatalog(ctx context.Context, catalog service.CatalogService, path string, log *zap.Logger) error {
	if path == "" {
		return nil
	}

	c, err := config.LoadCatalog(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("Catalog file not found, skipping catalog seed", zap.String("path", path))
		return nil
	}
	if err != nil {
		return err
	}

	return catalog.Seed(ctx, c.DomainLenders(), c.DomainProducts())
}
