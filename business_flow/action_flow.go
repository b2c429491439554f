package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/xmailer/xmailer/app/dto"
	"github.com/xmailer/xmailer/app/services"
	"github.com/xmailer/xmailer/models"
	"github.com/xmailer/xmailer/repository"
)

const (
	describeCacheTTL       = 60 * time.Second
	describeCacheKeyPrefix = "action:describe:"

	defaultActionIcon        = "https://xmailer.app/static/blink-card.png"
	defaultActionDescription = "Send a paid mail straight to the creator's inbox."

	mailSentAtLayout = "Monday, January 2, 2006 at 3:04 PM"
)

// ActionParams carries the three visitor-supplied fields that travel from
// the metadata form through the transaction request to the finalize
// callback.
type ActionParams struct {
	Codename    string
	Email       string
	Description string
}

// ActionFlow implements the three-step action handshake: metadata
// discovery, transaction construction, and post-payment finalization
// Public flow, no authentication required
type ActionFlow interface {
	Describe(ctx context.Context, uniqueBlinkID string) (*dto.ActionMetadata, error)
	BuildTransaction(ctx context.Context, uniqueBlinkID string, req *dto.BuildTransactionRequest, params ActionParams) (*dto.PostTransactionResponse, error)
	Finalize(ctx context.Context, uniqueBlinkID string, params ActionParams) (*dto.FinalizeResponse, error)
}

type ActionFlowImpl struct {
	blinkRepo     repository.BlinkRepository
	mailRepo      repository.MailRepository
	analyticsRepo repository.AnalyticsRepository
	ledger        services.SolanaService
	notifier      services.NotificationService
	cache         *redis.Client
	baseURL       string
	logger        zerolog.Logger
}

func NewActionFlow(
	blinkRepo repository.BlinkRepository,
	mailRepo repository.MailRepository,
	analyticsRepo repository.AnalyticsRepository,
	ledger services.SolanaService,
	notifier services.NotificationService,
	cache *redis.Client,
	baseURL string,
	logger zerolog.Logger,
) ActionFlow {
	return &ActionFlowImpl{
		blinkRepo:     blinkRepo,
		mailRepo:      mailRepo,
		analyticsRepo: analyticsRepo,
		ledger:        ledger,
		notifier:      notifier,
		cache:         cache,
		baseURL:       strings.TrimRight(baseURL, "/"),
		logger:        logger,
	}
}

// Describe returns the metadata document wallets render. Idempotent, so the
// result is served from a short-lived cache when one is configured; cache
// failures fall through to the store.
func (f *ActionFlowImpl) Describe(ctx context.Context, uniqueBlinkID string) (*dto.ActionMetadata, error) {
	if cached := f.cachedMetadata(ctx, uniqueBlinkID); cached != nil {
		return cached, nil
	}

	blink, err := lookupBlink(ctx, f.blinkRepo, uniqueBlinkID)
	if err != nil {
		return nil, err
	}

	metadata := f.buildMetadata(blink)
	f.storeMetadata(ctx, uniqueBlinkID, metadata)
	return metadata, nil
}

// BuildTransaction validates the collected fields, assembles an unsigned
// transfer from the visitor to the blink owner, and returns it together
// with the finalize callback URL. Nothing is persisted here: an abandoned
// wallet flow leaves no trace.
func (f *ActionFlowImpl) BuildTransaction(ctx context.Context, uniqueBlinkID string, req *dto.BuildTransactionRequest, params ActionParams) (*dto.PostTransactionResponse, error) {
	if err := validateActionParams(params); err != nil {
		return nil, err
	}
	account := strings.TrimSpace(req.Account)
	if account == "" {
		return nil, ErrPayerAccountRequired
	}
	if !services.IsValidSolanaAddress(account) {
		return nil, ErrPayerAccountInvalid
	}

	blink, err := lookupBlink(ctx, f.blinkRepo, uniqueBlinkID)
	if err != nil {
		return nil, err
	}

	lamports := services.SolToLamports(blink.AskingFee)
	transaction, err := f.ledger.BuildTransferTransaction(ctx, account, blink.SolanaKey, lamports)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	response := &dto.PostTransactionResponse{
		Transaction: transaction,
		Message:     fmt.Sprintf("Send a mail to %s for %s", blink.Codename, FormatFeeLabel(blink.AskingFee)),
		Links: &dto.TransactionLinks{
			Next: dto.NextAction{
				Type: "post",
				Href: f.finalizeHref(uniqueBlinkID, params),
			},
		},
	}
	return response, nil
}

// Finalize runs the post-payment side effects: the mail row is written
// first so it survives anything that follows, then the analytics aggregate
// absorbs the event, then both parties get their emails. Notification
// failures are logged and swallowed; the mail is already durable.
func (f *ActionFlowImpl) Finalize(ctx context.Context, uniqueBlinkID string, params ActionParams) (*dto.FinalizeResponse, error) {
	if err := validateActionParams(params); err != nil {
		return nil, err
	}

	blink, err := lookupBlink(ctx, f.blinkRepo, uniqueBlinkID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	mailRow := &models.Mail{
		BlinkID:      blink.ID,
		SenderEmail:  strings.ToLower(strings.TrimSpace(params.Email)),
		SenderName:   strings.TrimSpace(params.Codename),
		MessageBody:  formatMessageBody(blink.Codename, params, now),
		CreatorEmail: blink.Email,
		CreatedAt:    now,
	}
	if err := f.mailRepo.Save(ctx, mailRow); err != nil {
		return nil, NewBusinessErrorf("MAIL_SAVE_FAILED", "Failed to save mail for blink %s", err, uniqueBlinkID)
	}

	if err := f.analyticsRepo.RecordMailEvent(ctx, blink.ID, blink.AskingFee, now); err != nil {
		f.logger.Warn().Err(err).
			Str("unique_blink_id", uniqueBlinkID).
			Uint("mail_id", mailRow.ID).
			Msg("failed to record mail event in analytics")
	}

	f.dispatchEmails(blink, mailRow, params)

	response := &dto.FinalizeResponse{
		MailID:  mailRow.ID,
		Message: fmt.Sprintf("Mail delivered to %s", blink.Codename),
	}
	return response, nil
}

func (f *ActionFlowImpl) dispatchEmails(blink *models.Blink, mailRow *models.Mail, params ActionParams) {
	subject, body := renderOwnerEmail(blink.Codename, params, mailRow.MessageBody)
	if err := f.notifier.SendEmail(blink.Email, subject, body); err != nil {
		f.logger.Warn().Err(err).
			Uint("mail_id", mailRow.ID).
			Msg("failed to notify blink owner")
	}

	subject, body = renderConfirmationEmail(blink.Codename, params)
	if err := f.notifier.SendEmail(mailRow.SenderEmail, subject, body); err != nil {
		f.logger.Warn().Err(err).
			Uint("mail_id", mailRow.ID).
			Msg("failed to send sender confirmation")
	}
}

func (f *ActionFlowImpl) buildMetadata(blink *models.Blink) *dto.ActionMetadata {
	icon := defaultActionIcon
	if blink.ImageURL != nil && *blink.ImageURL != "" {
		icon = *blink.ImageURL
	}
	description := defaultActionDescription
	if blink.Description != nil && *blink.Description != "" {
		description = *blink.Description
	}
	label := FormatFeeLabel(blink.AskingFee)

	href := fmt.Sprintf("%s/api/actions/blink/%s?codename={codename}&email={email}&description={description}",
		f.baseURL, blink.UniqueBlinkID)

	return &dto.ActionMetadata{
		Icon:        icon,
		Title:       fmt.Sprintf("Talk to %s", blink.Codename),
		Description: description,
		Label:       label,
		Links: &dto.ActionLinks{
			Actions: []dto.LinkedAction{
				{
					Label: label,
					Href:  href,
					Parameters: []dto.ActionParameter{
						{Name: "codename", Label: "Your codename", Required: true},
						{Name: "email", Label: "Your email", Required: true},
						{Name: "description", Label: "Your message", Required: true},
					},
				},
			},
		},
	}
}

// finalizeHref builds the next-callback URL. The fields ride as query
// parameters, so they are URL-encoded to survive multi-line message bodies
// and special characters round-tripping through the wallet.
func (f *ActionFlowImpl) finalizeHref(uniqueBlinkID string, params ActionParams) string {
	values := url.Values{}
	values.Set("codename", params.Codename)
	values.Set("email", params.Email)
	values.Set("description", params.Description)
	return fmt.Sprintf("%s/api/actions/blink/%s/finalize?%s", f.baseURL, uniqueBlinkID, values.Encode())
}

func (f *ActionFlowImpl) cachedMetadata(ctx context.Context, uniqueBlinkID string) *dto.ActionMetadata {
	if f.cache == nil {
		return nil
	}
	raw, err := f.cache.Get(ctx, describeCacheKeyPrefix+uniqueBlinkID).Result()
	if err != nil {
		if err != redis.Nil {
			f.logger.Debug().Err(err).Msg("describe cache read failed")
		}
		return nil
	}
	var metadata dto.ActionMetadata
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil
	}
	return &metadata
}

func (f *ActionFlowImpl) storeMetadata(ctx context.Context, uniqueBlinkID string, metadata *dto.ActionMetadata) {
	if f.cache == nil {
		return
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return
	}
	if err := f.cache.Set(ctx, describeCacheKeyPrefix+uniqueBlinkID, raw, describeCacheTTL).Err(); err != nil {
		f.logger.Debug().Err(err).Msg("describe cache write failed")
	}
}

// FormatFeeLabel renders the asking fee for wallet buttons: "Free" for a
// zero fee, otherwise the SOL amount without trailing zeros.
func FormatFeeLabel(fee float64) string {
	if fee <= 0 {
		return "Free"
	}
	return strconv.FormatFloat(fee, 'f', -1, 64) + " SOL"
}

func validateActionParams(params ActionParams) error {
	if strings.TrimSpace(params.Codename) == "" {
		return ErrSenderNameRequired
	}
	if strings.TrimSpace(params.Email) == "" {
		return ErrSenderEmailRequired
	}
	if !isValidEmail(params.Email) {
		return ErrSenderEmailInvalid
	}
	if strings.TrimSpace(params.Description) == "" {
		return ErrMessageBodyRequired
	}
	return nil
}

// formatMessageBody produces the canonical letter stored in the mail row
// and shown to the owner.
func formatMessageBody(creatorCodename string, params ActionParams, sentAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", creatorCodename)
	b.WriteString(strings.TrimSpace(params.Description))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Best regards,\n%s\n\n", strings.TrimSpace(params.Codename))
	fmt.Fprintf(&b, "Sent on %s", sentAt.Format(mailSentAtLayout))
	return b.String()
}
