package mysql

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dart94/utm-whatsapp-tracker/internal/domain"
	"github.com/dart94/utm-whatsapp-tracker/internal/repository"
)

// ClickRepository implements repository.ClickRepository for MySQL
type ClickRepository struct {
	client *Client
	log    *zap.Logger
}

// NewClickRepository creates a new MySQL click repository
func NewClickRepository(client *Client, log *zap.Logger) *ClickRepository {
	return &ClickRepository{
		client: client,
		log:    log,
	}
}

func applyClickFilter(db *gorm.DB, filter repository.ClickFilter) *gorm.DB {
	if filter.PhoneNumber != "" {
		db = db.Where("phone_number = ?", filter.PhoneNumber)
	}
	if filter.IPAddress != "" {
		db = db.Where("ip_address = ?", filter.IPAddress)
	}
	if filter.UserAgent != "" {
		db = db.Where("user_agent = ?", filter.UserAgent)
	}
	if filter.FBClid != "" {
		db = db.Where("fbclid = ?", filter.FBClid)
	}
	if filter.UTMCampaign != "" {
		db = db.Where("utm_campaign = ?", filter.UTMCampaign)
	}
	if filter.UTMSource != "" {
		db = db.Where("utm_source = ?", filter.UTMSource)
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("kommo_status IN ?", filter.Statuses)
	}
	if !filter.CreatedAfter.IsZero() {
		db = db.Where("created_at >= ?", filter.CreatedAfter)
	}
	if !filter.CreatedBefore.IsZero() {
		db = db.Where("created_at <= ?", filter.CreatedBefore)
	}
	if filter.RequireNoLead {
		db = db.Where("kommo_lead_id IS NULL")
	}
	return db
}

// Create persists a new click
func (r *ClickRepository) Create(ctx context.Context, click *domain.Click) error {
	err := r.client.DB().WithContext(ctx).Create(click).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create click: %w", err)
	}
	return nil
}

// FindByID retrieves a click by its ID
func (r *ClickRepository) FindByID(ctx context.Context, id string) (*domain.Click, error) {
	var click domain.Click
	err := r.client.DB().WithContext(ctx).Where("id = ?", id).First(&click).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find click: %w", err)
	}
	return &click, nil
}

// FindFirst returns the most recent click matching the filter
func (r *ClickRepository) FindFirst(ctx context.Context, filter repository.ClickFilter) (*domain.Click, error) {
	var click domain.Click
	db := applyClickFilter(r.client.DB().WithContext(ctx).Model(&domain.Click{}), filter)
	err := db.Order("created_at DESC").First(&click).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query clicks: %w", err)
	}
	return &click, nil
}

// List returns clicks matching the filter, newest first, plus the total count
func (r *ClickRepository) List(ctx context.Context, filter repository.ClickFilter, limit, offset int) ([]domain.Click, int64, error) {
	var total int64
	countDB := applyClickFilter(r.client.DB().WithContext(ctx).Model(&domain.Click{}), filter)
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count clicks: %w", err)
	}

	var clicks []domain.Click
	db := applyClickFilter(r.client.DB().WithContext(ctx).Model(&domain.Click{}), filter)
	if err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&clicks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list clicks: %w", err)
	}

	return clicks, total, nil
}

// MarkRegistered records a successful Kommo registration. The status
// guard keeps a late retry from touching an already-successful click.
func (r *ClickRepository) MarkRegistered(ctx context.Context, id, leadID string) error {
	err := r.client.DB().WithContext(ctx).
		Model(&domain.Click{}).
		Where("id = ? AND kommo_status <> ?", id, domain.StatusSuccess).
		Updates(map[string]interface{}{
			"kommo_status":  domain.StatusSuccess,
			"kommo_lead_id": leadID,
			"kommo_error":   nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark click registered: %w", err)
	}
	return nil
}

// MarkFailed records a failed Kommo registration with the error text
func (r *ClickRepository) MarkFailed(ctx context.Context, id, errText string) error {
	err := r.client.DB().WithContext(ctx).
		Model(&domain.Click{}).
		Where("id = ? AND kommo_status <> ?", id, domain.StatusSuccess).
		Updates(map[string]interface{}{
			"kommo_status": domain.StatusFailed,
			"kommo_error":  errText,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark click failed: %w", err)
	}
	return nil
}

// LinkLead sets success and the lead ID in a single guarded statement so
// the webhook linkage can only ever apply once per click.
func (r *ClickRepository) LinkLead(ctx context.Context, id, leadID string) (bool, error) {
	result := r.client.DB().WithContext(ctx).
		Model(&domain.Click{}).
		Where("id = ? AND kommo_status IN ? AND kommo_lead_id IS NULL", id, domain.LinkableStatuses).
		Updates(map[string]interface{}{
			"kommo_status":  domain.StatusSuccess,
			"kommo_lead_id": leadID,
			"kommo_error":   nil,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to link lead: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Count returns the number of clicks matching the filter
func (r *ClickRepository) Count(ctx context.Context, filter repository.ClickFilter) (int64, error) {
	var total int64
	db := applyClickFilter(r.client.DB().WithContext(ctx).Model(&domain.Click{}), filter)
	if err := db.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return total, nil
}

// CountByCampaign groups matching clicks by UTM campaign, most clicked first
func (r *ClickRepository) CountByCampaign(ctx context.Context, filter repository.ClickFilter, limit int) ([]repository.CampaignCount, error) {
	var rows []repository.CampaignCount
	db := applyClickFilter(r.client.DB().WithContext(ctx).Model(&domain.Click{}), filter)
	err := db.
		Select("utm_campaign AS campaign, COUNT(*) AS clicks").
		Where("utm_campaign IS NOT NULL").
		Group("utm_campaign").
		Order("clicks DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks by campaign: %w", err)
	}
	return rows, nil
}

// CountDistinctPhones returns the number of distinct phone numbers among
// matching clicks.
func (r *ClickRepository) CountDistinctPhones(ctx context.Context, filter repository.ClickFilter) (int64, error) {
	var total int64
	db := applyClickFilter(r.client.DB().WithContext(ctx).Model(&domain.Click{}), filter)
	if err := db.Distinct("phone_number").Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count distinct phones: %w", err)
	}
	return total, nil
}

// Ping checks if the store is reachable
func (r *ClickRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// CampaignRepository implements repository.CampaignRepository for MySQL
type CampaignRepository struct {
	client *Client
	log    *zap.Logger
}

// NewCampaignRepository creates a new MySQL campaign repository
func NewCampaignRepository(client *Client, log *zap.Logger) *CampaignRepository {
	return &CampaignRepository{
		client: client,
		log:    log,
	}
}

// Create persists a new campaign
func (r *CampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	err := r.client.DB().WithContext(ctx).Create(campaign).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// FindByID retrieves a campaign by its ID
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*domain.Campaign, error) {
	var campaign domain.Campaign
	err := r.client.DB().WithContext(ctx).Where("id = ?", id).First(&campaign).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	return &campaign, nil
}

// List returns campaigns, newest first
func (r *CampaignRepository) List(ctx context.Context, activeOnly bool) ([]domain.Campaign, error) {
	db := r.client.DB().WithContext(ctx).Model(&domain.Campaign{})
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}

	var campaigns []domain.Campaign
	if err := db.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// Update applies a partial update and returns the updated campaign
func (r *CampaignRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*domain.Campaign, error) {
	result := r.client.DB().WithContext(ctx).
		Model(&domain.Campaign{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes a campaign
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	result := r.client.DB().WithContext(ctx).Where("id = ?", id).Delete(&domain.Campaign{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete campaign: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
