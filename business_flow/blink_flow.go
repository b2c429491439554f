package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xmailer/xmailer/app/dto"
	"github.com/xmailer/xmailer/app/services"
	"github.com/xmailer/xmailer/models"
	"github.com/xmailer/xmailer/repository"
	"github.com/xmailer/xmailer/utils"
)

// BlinkFlow registers new blinks and exposes single-record lookups
// Public flow, no authentication required
type BlinkFlow interface {
	Create(ctx context.Context, req *dto.CreateBlinkRequest, metadata *ClientMetadata) (*dto.CreateBlinkResponse, error)
	ByUniqueBlinkID(ctx context.Context, uniqueBlinkID string) (*dto.BlinkDTO, error)
}

type BlinkFlowImpl struct {
	blinkRepo repository.BlinkRepository
	baseURL   string
}

func NewBlinkFlow(blinkRepo repository.BlinkRepository, baseURL string) BlinkFlow {
	return &BlinkFlowImpl{
		blinkRepo: blinkRepo,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

func (f *BlinkFlowImpl) Create(ctx context.Context, req *dto.CreateBlinkRequest, metadata *ClientMetadata) (*dto.CreateBlinkResponse, error) {
	if err := validateCreateBlink(req); err != nil {
		return nil, err
	}

	uniqueBlinkID := uuid.NewString()
	analyticsID := uuid.NewString()

	blink := newBlinkModel(req, uniqueBlinkID, analyticsID)

	err := repository.WithRetry(ctx, repository.DefaultRetryAttempts, repository.DefaultRetryBackoff, func() error {
		return f.blinkRepo.Save(ctx, blink)
	})
	if err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrBlinkAlreadyExists, uniqueBlinkID)
		}
		return nil, NewBusinessError("BLINK_CREATE_FAILED", "Failed to create blink", err)
	}

	response := &dto.CreateBlinkResponse{
		Blink:    ToBlinkDTO(*blink),
		ShareURL: fmt.Sprintf("%s/api/actions/blink/%s", f.baseURL, blink.UniqueBlinkID),
	}
	return response, nil
}

func (f *BlinkFlowImpl) ByUniqueBlinkID(ctx context.Context, uniqueBlinkID string) (*dto.BlinkDTO, error) {
	blink, err := lookupBlink(ctx, f.blinkRepo, uniqueBlinkID)
	if err != nil {
		return nil, err
	}
	result := ToBlinkDTO(*blink)
	return &result, nil
}

func newBlinkModel(req *dto.CreateBlinkRequest, uniqueBlinkID, analyticsID string) *models.Blink {
	return &models.Blink{
		UniqueBlinkID: uniqueBlinkID,
		AnalyticsID:   &analyticsID,
		Codename:      strings.TrimSpace(req.Codename),
		Email:         strings.TrimSpace(req.Email),
		SolanaKey:     strings.TrimSpace(req.SolanaKey),
		AskingFee:     req.AskingFee,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
	}
}

func validateCreateBlink(req *dto.CreateBlinkRequest) error {
	if strings.TrimSpace(req.Codename) == "" {
		return ErrBlinkCodenameRequired
	}
	if strings.TrimSpace(req.Email) == "" {
		return ErrBlinkEmailRequired
	}
	if !isValidEmail(req.Email) {
		return ErrBlinkEmailInvalid
	}
	if strings.TrimSpace(req.SolanaKey) == "" {
		return ErrBlinkSolanaKeyRequired
	}
	if !services.IsValidSolanaAddress(req.SolanaKey) {
		return ErrBlinkSolanaKeyInvalid
	}
	if req.AskingFee < 0 {
		return ErrBlinkFeeNegative
	}
	if req.Description != nil && len(*req.Description) > utils.DescriptionMaxLength {
		return ErrBlinkDescriptionTooLong
	}
	return nil
}
