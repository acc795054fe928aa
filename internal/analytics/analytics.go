// Package analytics aggregates click and lead counts from the store
package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dart94/utm-whatsapp-tracker/internal/domain"
	"github.com/dart94/utm-whatsapp-tracker/internal/repository"
)

// CampaignStats is the per-campaign aggregation
type CampaignStats struct {
	Campaign        string  `json:"campaign"`
	TotalClicks     int64   `json:"total_clicks"`
	SuccessfulLeads int64   `json:"successful_leads"`
	FailedLeads     int64   `json:"failed_leads"`
	UniquePhones    int64   `json:"unique_phones"`
	ConversionRate  float64 `json:"conversion_rate"`
}

// TopCampaign is one row of the most-clicked campaigns listing
type TopCampaign struct {
	Campaign string `json:"campaign"`
	Clicks   int64  `json:"clicks"`
}

// Summary is the dashboard overview
type Summary struct {
	TotalClicks    int64   `json:"total_clicks"`
	TodayClicks    int64   `json:"today_clicks"`
	TotalLeads     int64   `json:"total_leads"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Service computes aggregations over the click store
type Service struct {
	clicks repository.ClickRepository
	log    *zap.Logger
}

// NewService creates a new analytics service
func NewService(clicks repository.ClickRepository, log *zap.Logger) *Service {
	return &Service{
		clicks: clicks,
		log:    log,
	}
}

// CampaignStats aggregates clicks and lead outcomes for one campaign,
// optionally bounded by a time range.
func (s *Service) CampaignStats(ctx context.Context, campaign string, from, to time.Time) (*CampaignStats, error) {
	base := repository.ClickFilter{
		UTMCampaign:   campaign,
		CreatedAfter:  from,
		CreatedBefore: to,
	}

	total, err := s.clicks.Count(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to count campaign clicks: %w", err)
	}

	successFilter := base
	successFilter.Statuses = []string{domain.StatusSuccess}
	successful, err := s.clicks.Count(ctx, successFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count successful leads: %w", err)
	}

	failedFilter := base
	failedFilter.Statuses = []string{domain.StatusFailed}
	failed, err := s.clicks.Count(ctx, failedFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count failed leads: %w", err)
	}

	uniquePhones, err := s.clicks.CountDistinctPhones(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to count unique phones: %w", err)
	}

	return &CampaignStats{
		Campaign:        campaign,
		TotalClicks:     total,
		SuccessfulLeads: successful,
		FailedLeads:     failed,
		UniquePhones:    uniquePhones,
		ConversionRate:  conversionRate(successful, total),
	}, nil
}

// TopCampaigns returns the campaigns with the most clicks
func (s *Service) TopCampaigns(ctx context.Context, limit int) ([]TopCampaign, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.clicks.CountByCampaign(ctx, repository.ClickFilter{}, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank campaigns: %w", err)
	}

	top := make([]TopCampaign, 0, len(rows))
	for _, row := range rows {
		top = append(top, TopCampaign{Campaign: row.Campaign, Clicks: row.Clicks})
	}
	return top, nil
}

// RecentClicks returns the newest clicks
func (s *Service) RecentClicks(ctx context.Context, limit int) ([]domain.Click, error) {
	if limit <= 0 {
		limit = 20
	}

	clicks, _, err := s.clicks.List(ctx, repository.ClickFilter{}, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent clicks: %w", err)
	}
	return clicks, nil
}

// DashboardSummary returns the overall totals
func (s *Service) DashboardSummary(ctx context.Context) (*Summary, error) {
	total, err := s.clicks.Count(ctx, repository.ClickFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks: %w", err)
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.clicks.Count(ctx, repository.ClickFilter{CreatedAfter: startOfDay})
	if err != nil {
		return nil, fmt.Errorf("failed to count today's clicks: %w", err)
	}

	leads, err := s.clicks.Count(ctx, repository.ClickFilter{Statuses: []string{domain.StatusSuccess}})
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	return &Summary{
		TotalClicks:    total,
		TodayClicks:    today,
		TotalLeads:     leads,
		ConversionRate: conversionRate(leads, total),
	}, nil
}

func conversionRate(leads, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(leads) / float64(total) * 100
}
