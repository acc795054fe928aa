package crm

import (
	"strconv"

	"github.com/dart94/utm-whatsapp-tracker/internal/config"
)

// UTMValues is the attribution payload mapped onto lead custom fields
type UTMValues struct {
	Source   *string
	Medium   *string
	Campaign *string
	Content  *string
	Term     *string
	FBClid   *string
}

// FieldMapper translates UTM values into CRM custom fields using the
// configured field IDs. Unconfigured fields and absent values are
// skipped.
type FieldMapper struct {
	cfg config.Kommo
}

// NewFieldMapper creates a mapper from Kommo field configuration
func NewFieldMapper(cfg config.Kommo) *FieldMapper {
	return &FieldMapper{cfg: cfg}
}

// Fields builds the custom field list for a lead update
func (m *FieldMapper) Fields(utm UTMValues) []CustomField {
	var fields []CustomField

	add := func(fieldID int, value *string) {
		if fieldID == 0 || value == nil || *value == "" {
			return
		}
		fields = append(fields, CustomField{
			FieldID: int64(fieldID),
			Value:   *value,
		})
	}

	add(m.cfg.FieldUTMSource, utm.Source)
	add(m.cfg.FieldUTMMedium, utm.Medium)
	add(m.cfg.FieldUTMCampaign, utm.Campaign)
	add(m.cfg.FieldUTMContent, utm.Content)
	add(m.cfg.FieldUTMTerm, utm.Term)
	add(m.cfg.FieldFBClid, utm.FBClid)

	return fields
}

// LeadName builds the display name for a new lead
func LeadName(campaign *string) string {
	if campaign != nil && *campaign != "" {
		return "Lead de " + *campaign
	}
	return "Lead de WhatsApp"
}

// FormatLeadID converts a CRM numeric ID into its stored string form
func FormatLeadID(id int64) string {
	return strconv.FormatInt(id, 10)
}
