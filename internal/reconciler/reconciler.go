// Package reconciler matches incoming Kommo message webhooks with
// recently recorded clicks and performs the one-time lead linkage.
//
// Kommo's notifications carry no reference back to a click, so matching
// is heuristic: the most recent unlinked pending click inside a bounded
// lookback window.
package reconciler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dart94/utm-whatsapp-tracker/internal/crm"
	"github.com/dart94/utm-whatsapp-tracker/internal/domain"
	"github.com/dart94/utm-whatsapp-tracker/internal/repository"
)

// Signal is one "new incoming message" notification extracted from a
// webhook payload.
type Signal struct {
	ContactID      int64
	ConversationID string
	CreatedAt      int64
}

// Payload is the parsed webhook body. Kommo sends a single message
// object; batched deliveries arrive as an array.
type Payload struct {
	Message  *Signal
	Messages []Signal
}

// Signals flattens the payload into the list of signals to process
func (p Payload) Signals() []Signal {
	signals := make([]Signal, 0, len(p.Messages)+1)
	signals = append(signals, p.Messages...)
	if p.Message != nil {
		signals = append(signals, *p.Message)
	}
	return signals
}

// Summary reports what a webhook delivery produced
type Summary struct {
	Signals  int
	Linked   int
	Organic  int
	Failures int
}

// Reconciler links webhook signals to pending clicks
type Reconciler struct {
	clicks   repository.ClickRepository
	kommo    crm.Client
	fields   *crm.FieldMapper
	lookback time.Duration
	log      *zap.Logger
}

// New creates a new reconciler with the given lookback window
func New(clicks repository.ClickRepository, kommoClient crm.Client, fields *crm.FieldMapper, lookback time.Duration, log *zap.Logger) *Reconciler {
	return &Reconciler{
		clicks:   clicks,
		kommo:    kommoClient,
		fields:   fields,
		lookback: lookback,
		log:      log,
	}
}

// Process handles every signal in the payload independently: one
// failing signal never blocks the others, and the caller always
// acknowledges the delivery regardless of the summary.
func (r *Reconciler) Process(ctx context.Context, payload Payload) Summary {
	var summary Summary

	for _, signal := range payload.Signals() {
		summary.Signals++

		linked, err := r.processSignal(ctx, signal)
		switch {
		case err != nil:
			summary.Failures++
			r.log.Error("Webhook signal processing failed",
				zap.Int64("contact_id", signal.ContactID),
				zap.Error(err))
		case linked:
			summary.Linked++
		default:
			summary.Organic++
		}
	}

	return summary
}

func (r *Reconciler) processSignal(ctx context.Context, signal Signal) (bool, error) {
	if signal.ContactID != 0 {
		// The contact fetch resolves the sender's phone for logging and
		// confirms the contact exists before we touch any lead.
		contact, err := r.kommo.GetContact(ctx, signal.ContactID)
		if err != nil {
			return false, err
		}
		if contact.PhoneNumber == "" {
			r.log.Warn("Webhook contact has no phone number",
				zap.Int64("contact_id", signal.ContactID))
			return false, nil
		}
		r.log.Info("Processing incoming message",
			zap.Int64("contact_id", signal.ContactID),
			zap.String("phone_number", contact.PhoneNumber))
	}

	click, err := r.findCandidate(ctx)
	if err != nil {
		return false, err
	}
	if click == nil {
		// Organic message with no recent campaign click behind it.
		r.log.Info("No recent unlinked click for incoming message",
			zap.Int64("contact_id", signal.ContactID))
		return false, nil
	}

	leadID, err := r.resolveLead(ctx, signal.ContactID)
	if err != nil {
		return false, err
	}
	if leadID == 0 {
		r.log.Warn("No lead found for webhook contact",
			zap.Int64("contact_id", signal.ContactID))
		return false, nil
	}

	// Push the click's stored attribution (never the webhook payload)
	// onto the lead before linking.
	fields := r.fields.Fields(crm.UTMValues{
		Source:   click.UTMSource,
		Medium:   click.UTMMedium,
		Campaign: click.UTMCampaign,
		Content:  click.UTMContent,
		Term:     click.UTMTerm,
		FBClid:   click.FBClid,
	})
	if err := r.kommo.PatchLeadFields(ctx, leadID, fields); err != nil {
		return false, err
	}
	if click.UTMCampaign != nil {
		if err := r.kommo.AttachLeadTag(ctx, leadID, *click.UTMCampaign); err != nil {
			return false, err
		}
	}

	// LinkLead re-checks the click's state at update time, so a race
	// with a concurrent retry or reconciliation resolves to a silent
	// skip instead of a double link.
	linked, err := r.clicks.LinkLead(ctx, click.ID, crm.FormatLeadID(leadID))
	if err != nil {
		return false, err
	}
	if !linked {
		r.log.Info("Click already linked, skipping",
			zap.String("click_id", click.ID))
		return false, nil
	}

	r.log.Info("Lead linked to click",
		zap.String("click_id", click.ID),
		zap.Int64("kommo_lead_id", leadID))
	return true, nil
}

// findCandidate returns the most recent unlinked pending click inside
// the lookback window, or nil.
func (r *Reconciler) findCandidate(ctx context.Context) (*domain.Click, error) {
	click, err := r.clicks.FindFirst(ctx, repository.ClickFilter{
		Statuses:      domain.LinkableStatuses,
		CreatedAfter:  time.Now().Add(-r.lookback),
		RequireNoLead: true,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return click, nil
}

// resolveLead picks the contact's most recent lead
func (r *Reconciler) resolveLead(ctx context.Context, contactID int64) (int64, error) {
	if contactID == 0 {
		return 0, nil
	}

	leads, err := r.kommo.ListLeadsByContact(ctx, contactID)
	if err != nil {
		return 0, err
	}
	if len(leads) == 0 {
		return 0, nil
	}
	return leads[0].ID, nil
}
