// Package dedup decides whether an inbound click is a fresh attributable
// event or a repeat within a configured lookback window.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dart94/utm-whatsapp-tracker/internal/config"
	"github.com/dart94/utm-whatsapp-tracker/internal/domain"
	"github.com/dart94/utm-whatsapp-tracker/internal/repository"
)

// Candidate is the inbound click being evaluated
type Candidate struct {
	PhoneNumber string
	IPAddress   string
	UserAgent   string
	FBClid      *string
}

// Result is the outcome of a dedup evaluation. SuppressExternalCall is
// set when the click should not trigger Kommo registration even if a
// record is still created.
type Result struct {
	IsDuplicate          bool
	Matched              *domain.Click
	SuppressExternalCall bool
}

// Evaluator checks a candidate click against the store using the
// configured policy. Strategies run shortest window first so the most
// restrictive match wins the duplicate classification.
type Evaluator struct {
	clicks repository.ClickRepository
	policy config.Dedup
	log    *zap.Logger
}

// NewEvaluator creates a new dedup evaluator
func NewEvaluator(clicks repository.ClickRepository, policy config.Dedup, log *zap.Logger) *Evaluator {
	return &Evaluator{
		clicks: clicks,
		policy: policy,
		log:    log,
	}
}

// Evaluate runs every enabled strategy against the store. Store lookups
// are newest-first single-row queries, never unordered scans.
func (e *Evaluator) Evaluate(ctx context.Context, candidate Candidate) (*Result, error) {
	result := &Result{}
	now := time.Now()

	// Same subject + caller address inside the short window.
	if w := e.policy.SameSubjectWindow(); w > 0 {
		match, err := e.findFirst(ctx, repository.ClickFilter{
			PhoneNumber:  candidate.PhoneNumber,
			IPAddress:    candidate.IPAddress,
			CreatedAfter: now.Add(-w),
		})
		if err != nil {
			return nil, fmt.Errorf("same-subject dedup query failed: %w", err)
		}
		if match != nil {
			e.log.Info("Duplicate click: same phone and IP within window",
				zap.String("matched_click_id", match.ID),
				zap.Duration("window", w))
			result.IsDuplicate = true
			result.Matched = match
		}
	}

	// Same caller address + agent, independent of destination. Guards
	// against redirect loops and refresh storms.
	if w := e.policy.SameCallerWindow(); w > 0 && !result.IsDuplicate && candidate.UserAgent != "" {
		match, err := e.findFirst(ctx, repository.ClickFilter{
			IPAddress:    candidate.IPAddress,
			UserAgent:    candidate.UserAgent,
			CreatedAfter: now.Add(-w),
		})
		if err != nil {
			return nil, fmt.Errorf("same-caller dedup query failed: %w", err)
		}
		if match != nil {
			e.log.Info("Duplicate click: same IP and user agent within window",
				zap.String("matched_click_id", match.ID),
				zap.Duration("window", w))
			result.IsDuplicate = true
			result.Matched = match
		}
	}

	// Click tokens are single-use: any prior click carrying the same
	// fbclid makes this one a duplicate, regardless of age.
	if e.policy.ClickTokenUnique && !result.IsDuplicate && candidate.FBClid != nil && *candidate.FBClid != "" {
		match, err := e.findFirst(ctx, repository.ClickFilter{
			FBClid: *candidate.FBClid,
		})
		if err != nil {
			return nil, fmt.Errorf("click-token dedup query failed: %w", err)
		}
		if match != nil {
			e.log.Info("Duplicate click: fbclid already seen",
				zap.String("matched_click_id", match.ID))
			result.IsDuplicate = true
			result.Matched = match
		}
	}

	// A recent successful registration for the same phone suppresses a
	// new Kommo lead without suppressing the click record itself.
	if w := e.policy.RecentSuccessWindow(); w > 0 {
		match, err := e.findFirst(ctx, repository.ClickFilter{
			PhoneNumber:  candidate.PhoneNumber,
			Statuses:     []string{domain.StatusSuccess},
			CreatedAfter: now.Add(-w),
		})
		if err != nil {
			return nil, fmt.Errorf("recent-success dedup query failed: %w", err)
		}
		if match != nil {
			e.log.Info("Phone has recent successful lead, suppressing registration",
				zap.String("matched_click_id", match.ID),
				zap.Duration("window", w))
			result.SuppressExternalCall = true
		}
	}

	if result.IsDuplicate {
		result.SuppressExternalCall = true
	}

	return result, nil
}

func (e *Evaluator) findFirst(ctx context.Context, filter repository.ClickFilter) (*domain.Click, error) {
	match, err := e.clicks.FindFirst(ctx, filter)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return match, nil
}
