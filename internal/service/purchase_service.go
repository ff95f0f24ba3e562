package service

import (
	"context"
	"errors"
	"log/slog"

	"unicornfarm/internal/models"
	"unicornfarm/internal/notifications"
	"unicornfarm/internal/observability"
	"unicornfarm/internal/repository"
	"unicornfarm/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// DigestSender delivers the purchase digest of a unicorn to a recipient.
type DigestSender interface {
	SendPurchaseDigest(ctx context.Context, recipient string, unicorn *models.Unicorn) error
}

// PurchasePublisher announces committed purchases.
type PurchasePublisher interface {
	PublishPurchase(ctx context.Context, ev notifications.PurchaseEvent) error
}

// Purchase outcomes recorded in unicornfarm_purchases_total.
const (
	outcomePurchased   = "purchased"
	outcomeNotFound    = "not_found"
	outcomeConflict    = "conflict"
	outcomeInvalid     = "invalid_input"
	outcomeMailFailed  = "mail_failed"
	outcomeStoreFailed = "store_failed"
)

// PurchaseService sells unicorns: it mails the buyer every post about the
// unicorn, then deletes those posts and marks the unicorn purchased.
type PurchaseService struct {
	unicornRepo repository.UnicornRepository
	mailer      DigestSender
	publisher   PurchasePublisher
	now         Clock
}

type PurchaseInput struct {
	UnicornID uint
	Email     string
}

// NewPurchaseService creates a PurchaseService. publisher may be nil.
func NewPurchaseService(
	unicornRepo repository.UnicornRepository,
	mailer DigestSender,
	publisher PurchasePublisher,
	now Clock,
) *PurchaseService {
	return &PurchaseService{
		unicornRepo: unicornRepo,
		mailer:      mailer,
		publisher:   publisher,
		now:         clockOrDefault(now),
	}
}

// Purchase runs the purchase of one unicorn.
//
// Checks run in a fixed order and fail without side effects: the unicorn must
// exist, must not be purchased, and the email must be present and well formed.
// The digest is then mailed with no store lock held. Only after delivery succeeds
// are the posts deleted and the flag flipped, in one transaction that re-checks
// the flag under a row lock. A store failure after a successful delivery is
// reported and logged, never retried.
func (s *PurchaseService) Purchase(ctx context.Context, in PurchaseInput) (unicorn *models.Unicorn, err error) {
	ctx, span := observability.StartSpan(ctx, "PurchaseService.Purchase", attribute.Int64("unicorn.id", int64(in.UnicornID)))
	outcome := outcomePurchased
	defer func() {
		observability.PurchasesTotal.WithLabelValues(outcome).Inc()
		observability.EndSpan(span, err)
	}()

	current, err := s.unicornRepo.FindForPurchase(ctx, in.UnicornID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome = outcomeNotFound
			return nil, models.NewNotFoundError("Unicorn not found")
		}
		outcome = outcomeStoreFailed
		return nil, err
	}
	if current.Purchased {
		outcome = outcomeConflict
		return nil, models.NewConflictError("Unicorn already purchased")
	}
	if in.Email == "" {
		outcome = outcomeInvalid
		return nil, models.NewInvalidInputError("Email address is required")
	}
	if !validation.IsEmail(in.Email) {
		outcome = outcomeInvalid
		return nil, models.NewInvalidInputError("Invalid email address")
	}

	if err := s.mailer.SendPurchaseDigest(ctx, in.Email, current); err != nil {
		outcome = outcomeMailFailed
		observability.Logger.WarnContext(ctx, "purchase digest delivery failed",
			slog.Uint64("unicorn_id", uint64(in.UnicornID)),
			slog.String("error", err.Error()),
		)
		return nil, models.NewDependencyFailure("Failed to send email", err)
	}

	unicorn, err = s.unicornRepo.CompletePurchase(ctx, in.UnicornID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUnicornPurchased), errors.Is(err, repository.ErrConcurrentUpdate):
			outcome = outcomeConflict
			observability.Logger.WarnContext(ctx, "purchase lost to a concurrent purchase after digest was sent",
				slog.Uint64("unicorn_id", uint64(in.UnicornID)),
				slog.String("recipient", in.Email),
			)
			return nil, models.NewConflictError("Unicorn already purchased")
		case errors.Is(err, gorm.ErrRecordNotFound):
			outcome = outcomeNotFound
			return nil, models.NewNotFoundError("Unicorn not found")
		}
		outcome = outcomeStoreFailed
		observability.Logger.ErrorContext(ctx, "digest sent but purchase not recorded",
			slog.Uint64("unicorn_id", uint64(in.UnicornID)),
			slog.String("recipient", in.Email),
			slog.String("error", err.Error()),
		)
		return nil, models.NewDependencyFailure("Failed to record purchase", err)
	}

	observability.Logger.InfoContext(ctx, "unicorn purchased",
		slog.Uint64("unicorn_id", uint64(unicorn.ID)),
		slog.Int("posts_deleted", len(current.Messages)),
	)

	if s.publisher != nil {
		ev := notifications.NewPurchaseEvent(unicorn.ID, unicorn.Name, len(current.Messages), unicorn.UpdatedAt)
		if pubErr := s.publisher.PublishPurchase(ctx, ev); pubErr != nil {
			observability.Logger.WarnContext(ctx, "failed to publish purchase event",
				slog.Uint64("unicorn_id", uint64(unicorn.ID)),
				slog.String("error", pubErr.Error()),
			)
		}
	}

	return unicorn, nil
}
