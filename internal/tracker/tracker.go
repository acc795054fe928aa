// Package tracker records attributable clicks and registers the
// resulting leads in Kommo in the background.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dart94/utm-whatsapp-tracker/internal/crm"
	"github.com/dart94/utm-whatsapp-tracker/internal/dedup"
	"github.com/dart94/utm-whatsapp-tracker/internal/domain"
	"github.com/dart94/utm-whatsapp-tracker/internal/repository"
)

// ErrAlreadyRegistered is returned by Retry when the click already has a
// successfully registered lead.
var ErrAlreadyRegistered = errors.New("lead already created successfully")

// RecordInput carries a sanitized click candidate plus the classifier
// and dedup outcomes.
type RecordInput struct {
	PhoneNumber string
	UTMSource   *string
	UTMMedium   *string
	UTMCampaign *string
	UTMContent  *string
	UTMTerm     *string
	FBClid      *string
	GClid       *string
	IPAddress   string
	UserAgent   string
	Referer     *string

	IsVerification bool
	Dedup          *dedup.Result
}

// Tracker persists click records and drives Kommo lead registration
type Tracker struct {
	clicks           repository.ClickRepository
	kommo            crm.Client
	fields           *crm.FieldMapper
	recordDuplicates bool
	log              *zap.Logger

	wg sync.WaitGroup
}

// New creates a new tracker. When recordDuplicates is set, duplicate
// clicks still produce a record (with duplicate status) for raw traffic
// counts; otherwise duplicate requests create no new row.
func New(clicks repository.ClickRepository, kommoClient crm.Client, fields *crm.FieldMapper, recordDuplicates bool, log *zap.Logger) *Tracker {
	return &Tracker{
		clicks:           clicks,
		kommo:            kommoClient,
		fields:           fields,
		recordDuplicates: recordDuplicates,
		log:              log,
	}
}

// Record persists the click (subject to the duplicate policy) and, when
// the click is attributable, spawns background lead registration. The
// returned bool reports whether a new record was created. Registration
// failures never reach the caller; they are recorded on the click row.
func (t *Tracker) Record(ctx context.Context, in RecordInput) (*domain.Click, bool, error) {
	isDuplicate := in.Dedup != nil && in.Dedup.IsDuplicate
	suppressKommo := in.Dedup != nil && in.Dedup.SuppressExternalCall

	if isDuplicate && !t.recordDuplicates && in.Dedup.Matched != nil {
		t.log.Info("Duplicate click suppressed",
			zap.String("phone_number", in.PhoneNumber),
			zap.String("matched_click_id", in.Dedup.Matched.ID))
		return in.Dedup.Matched, false, nil
	}

	status := domain.StatusPending
	switch {
	case in.IsVerification:
		status = domain.StatusSkipped
	case isDuplicate:
		status = domain.StatusDuplicate
	}

	click := &domain.Click{
		PhoneNumber: in.PhoneNumber,
		UTMSource:   in.UTMSource,
		UTMMedium:   in.UTMMedium,
		UTMCampaign: in.UTMCampaign,
		UTMContent:  in.UTMContent,
		UTMTerm:     in.UTMTerm,
		FBClid:      in.FBClid,
		GClid:       in.GClid,
		IPAddress:   in.IPAddress,
		UserAgent:   in.UserAgent,
		Referer:     in.Referer,
		KommoStatus: status,
	}

	// The click token stays on the matched click; re-inserting it here
	// would trip its unique index.
	if isDuplicate {
		click.FBClid = nil
	}

	if err := t.clicks.Create(ctx, click); err != nil {
		return nil, false, fmt.Errorf("failed to record click: %w", err)
	}

	t.log.Info("Click recorded",
		zap.String("click_id", click.ID),
		zap.String("phone_number", click.PhoneNumber),
		zap.String("kommo_status", click.KommoStatus))

	if status == domain.StatusPending && !suppressKommo {
		t.spawnRegistration(click)
	}

	return click, true, nil
}

// Retry re-runs lead registration for a previously failed click. It is
// rejected when the click already reached success.
func (t *Tracker) Retry(ctx context.Context, clickID string) error {
	click, err := t.clicks.FindByID(ctx, clickID)
	if err != nil {
		return err
	}

	if click.KommoStatus == domain.StatusSuccess {
		return ErrAlreadyRegistered
	}

	t.log.Info("Retrying Kommo lead registration", zap.String("click_id", click.ID))
	t.spawnRegistration(click)
	return nil
}

// Wait blocks until all in-flight background registrations finish. Used
// on shutdown so detached work can complete or fail on its own terms.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// spawnRegistration detaches lead registration from the request that
// triggered it. The background context deliberately outlives the
// request; outcomes land only on the click row.
func (t *Tracker) spawnRegistration(click *domain.Click) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.register(context.Background(), click)
	}()
}

func (t *Tracker) register(ctx context.Context, click *domain.Click) {
	leadID, err := t.createLead(ctx, click)
	if err != nil {
		t.log.Error("Kommo lead registration failed",
			zap.String("click_id", click.ID),
			zap.Error(err))

		if markErr := t.clicks.MarkFailed(ctx, click.ID, err.Error()); markErr != nil {
			t.log.Error("Failed to record registration failure",
				zap.String("click_id", click.ID),
				zap.Error(markErr))
		}
		return
	}

	if err := t.clicks.MarkRegistered(ctx, click.ID, leadID); err != nil {
		t.log.Error("Failed to record registration success",
			zap.String("click_id", click.ID),
			zap.String("kommo_lead_id", leadID),
			zap.Error(err))
		return
	}

	t.log.Info("Kommo lead registered",
		zap.String("click_id", click.ID),
		zap.String("kommo_lead_id", leadID))
}

// createLead runs the chained Kommo calls: find-or-create the contact
// (the search keeps the step idempotent across retries), create the
// lead, then attach UTM custom fields. Retries for transient failures
// happen inside the client, per call.
func (t *Tracker) createLead(ctx context.Context, click *domain.Click) (string, error) {
	contactID, err := t.findOrCreateContact(ctx, click.PhoneNumber)
	if err != nil {
		return "", fmt.Errorf("contact step failed: %w", err)
	}

	tag := ""
	if click.UTMCampaign != nil {
		tag = *click.UTMCampaign
	}

	leadID, err := t.kommo.CreateLead(ctx, crm.LeadName(click.UTMCampaign), contactID, tag)
	if err != nil {
		return "", fmt.Errorf("lead creation failed: %w", err)
	}

	fields := t.fields.Fields(crm.UTMValues{
		Source:   click.UTMSource,
		Medium:   click.UTMMedium,
		Campaign: click.UTMCampaign,
		Content:  click.UTMContent,
		Term:     click.UTMTerm,
		FBClid:   click.FBClid,
	})
	if len(fields) > 0 {
		if err := t.kommo.PatchLeadFields(ctx, leadID, fields); err != nil {
			return "", fmt.Errorf("lead field update failed: %w", err)
		}
	}

	return crm.FormatLeadID(leadID), nil
}

func (t *Tracker) findOrCreateContact(ctx context.Context, phone string) (int64, error) {
	contact, err := t.kommo.FindContactByPhone(ctx, phone)
	if err != nil {
		return 0, err
	}
	if contact != nil {
		return contact.ID, nil
	}
	return t.kommo.CreateContact(ctx, phone)
}
