package service

import (
	"context"

	"github.com/thorplatform/payout-service/internal/errs"
	"github.com/thorplatform/payout-service/internal/models"
	"github.com/thorplatform/payout-service/internal/utils"
)

// CreateFundingSource links a bank account to a profile. The account is
// registered with the payment processor first; the local row is only written
// once the processor accepted it, so local state never references a processor
// resource that does not exist.
func (s *Service) CreateFundingSource(ctx context.Context, tenantID, profileID int64, routingNumber, accountNumber, accountType, displayName string) (*models.FundingSource, error) {
	if err := utils.ValidateRoutingNumber(routingNumber); err != nil {
		return nil, errs.Validationf("invalid routing number: %v", err)
	}
	if err := utils.ValidateAccountNumber(accountNumber); err != nil {
		return nil, errs.Validationf("invalid account number: %v", err)
	}
	if accountType == "" {
		accountType = models.AccountTypeChecking
	}
	if accountType != models.AccountTypeChecking && accountType != models.AccountTypeSavings {
		return nil, errs.Validationf("account type must be checking or savings")
	}
	if displayName == "" {
		displayName = "default"
	}

	profile, err := s.repo.GetProfile(ctx, tenantID, profileID)
	if err != nil {
		return nil, err
	}
	if profile.PaymentsURI == "" {
		return nil, errs.Validationf("profile %d is not registered with the payment processor", profileID)
	}

	if err := s.gateway.Authorize(ctx); err != nil {
		return nil, err
	}
	externalURI, err := s.gateway.CreateFundingSource(ctx, profile.PaymentsURI, routingNumber, accountNumber, accountType, displayName)
	if err != nil {
		return nil, err
	}

	fs := &models.FundingSource{
		ProfileID:     profileID,
		TenantID:      tenantID,
		RoutingNumber: routingNumber,
		AccountNumber: accountNumber,
		AccountType:   accountType,
		DisplayName:   displayName,
		IsDefault:     false,
		ExternalURI:   externalURI,
	}
	if err := s.repo.CreateFundingSource(ctx, fs); err != nil {
		return nil, err
	}

	s.log.Infof("Funding source %d linked for profile %d", fs.ID, profileID)
	masked := utils.MaskAccountNumber(accountNumber)
	s.notifyAsync("funding source", func() error {
		return s.notifier.SendFundingSourceAdded(profile.Email, profile.FirstName, masked)
	})
	return fs, nil
}

// SetDefaultFundingSource makes a funding source the profile's default.
// Funding sources can only be edited by the profile's owner.
func (s *Service) SetDefaultFundingSource(ctx context.Context, fundingSourceID, requesterUserID int64) error {
	fs, err := s.repo.GetFundingSource(ctx, fundingSourceID)
	if err != nil {
		return err
	}

	profile, err := s.repo.GetProfile(ctx, fs.TenantID, fs.ProfileID)
	if err != nil {
		return err
	}
	if profile.UserID != requesterUserID {
		return errs.Authorizationf("funding source can only be edited by its owner")
	}

	if err := s.repo.SetDefaultFundingSource(ctx, fs.ProfileID, fs.ID); err != nil {
		return err
	}
	s.log.Infof("Funding source %d set as default for profile %d", fs.ID, fs.ProfileID)
	return nil
}

// GetFundingSource retrieves a funding source by id.
func (s *Service) GetFundingSource(ctx context.Context, id int64) (*models.FundingSource, error) {
	return s.repo.GetFundingSource(ctx, id)
}

// ListFundingSources lists the funding sources linked to a profile.
func (s *Service) ListFundingSources(ctx context.Context, profileID int64) ([]models.FundingSource, error) {
	return s.repo.ListFundingSources(ctx, profileID)
}
