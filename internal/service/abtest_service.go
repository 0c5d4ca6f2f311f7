package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net"
	"strings"

	"procrastinators/internal/middleware"
	"procrastinators/internal/models"
	"procrastinators/internal/observability"
	"procrastinators/internal/repository"
)

// RandomSource yields integers in [0, n).
type RandomSource interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// Visitor describes who triggered an A/B event.
type Visitor struct {
	IP        string
	UserAgent string
}

// ABTestService assigns variants and tracks page views and clicks.
type ABTestService struct {
	repo repository.ABTestRepository
	rng  RandomSource
}

// NewABTestService builds the service; a nil rng uses math/rand/v2.
func NewABTestService(repo repository.ABTestRepository, rng RandomSource) *ABTestService {
	if rng == nil {
		rng = globalRandom{}
	}
	return &ABTestService{repo: repo, rng: rng}
}

// AssignVariant picks A or B with equal probability and logs a page view.
// Every call is independent; there is no stickiness per visitor.
func (s *ABTestService) AssignVariant(ctx context.Context, v Visitor) (models.Variant, error) {
	variant := models.VariantA
	if s.rng.IntN(2) == 1 {
		variant = models.VariantB
	}

	ip, ua := visitorFields(v)
	if err := s.repo.RecordPageView(ctx, &models.ABTestPageView{Variant: variant, IPAddress: ip, UserAgent: ua}); err != nil {
		return "", err
	}
	observability.ABTestEvents.WithLabelValues("view", string(variant)).Inc()
	return variant, nil
}

// RecordClick logs a click for raw ("A" or "B") and returns the live totals.
func (s *ABTestService) RecordClick(ctx context.Context, raw string, v Visitor) (models.ClickTotals, error) {
	variant, ok := models.ParseVariant(raw)
	if !ok {
		middleware.Logger.DebugContext(ctx, "rejected abtest click", slog.String("variant", raw))
		return models.ClickTotals{}, models.NewValidationError("Invalid variant")
	}

	ip, ua := visitorFields(v)
	if err := s.repo.RecordClick(ctx, &models.ABTestButtonClick{Variant: variant, IPAddress: ip, UserAgent: ua}); err != nil {
		return models.ClickTotals{}, err
	}
	observability.ABTestEvents.WithLabelValues("click", string(variant)).Inc()

	return s.repo.ClickTotals(ctx)
}

// visitorFields keeps the IP only when it parses as an address.
func visitorFields(v Visitor) (ip, ua *string) {
	if addr := strings.TrimSpace(v.IP); addr != "" && net.ParseIP(addr) != nil {
		ip = &addr
	}
	if v.UserAgent != "" {
		agent := v.UserAgent
		ua = &agent
	}
	return ip, ua
}
