package customer

import (
	"strings"
	"time"

	"custid/internal/services"
)

// Partial carries whatever subset of record fields a single source knows.
// An empty string means the source did not supply the field; a placeholder
// value means it supplied "known to be unknown".
type Partial struct {
	CompanyName        string `json:"company_name,omitempty"`
	TenantUID          string `json:"tenant_uid,omitempty"`
	OfficeID           string `json:"office_id,omitempty"`
	CorporateNumber    string `json:"corporate_number,omitempty"`
	IdentificationCode string `json:"identification_code,omitempty"`
	PlanName           string `json:"plan_name,omitempty"`
	PaymentMethod      string `json:"payment_method,omitempty"`
	ContractStatus     string `json:"contract_status,omitempty"`
	Notes              string `json:"notes,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
}

func (p *Partial) fields() []*string {
	return []*string{
		&p.CompanyName, &p.TenantUID, &p.OfficeID, &p.CorporateNumber, &p.IdentificationCode,
		&p.PlanName, &p.PaymentMethod, &p.ContractStatus, &p.Notes, &p.CreatedAt,
	}
}

// Trim strips surrounding whitespace from every field.
func (p *Partial) Trim() {
	for _, f := range p.fields() {
		*f = strings.TrimSpace(*f)
	}
}

// HasIdentity reports whether p carries at least one real identity key.
// A partial made only of placeholders identifies nothing.
func (p *Partial) HasIdentity() bool {
	return p != nil && (!IsPlaceholder(p.CompanyName) || !IsPlaceholder(p.TenantUID) || !IsPlaceholder(p.OfficeID))
}

// MissingIdentity lists the identity keys p does not supply with a real value.
func (p *Partial) MissingIdentity() []Field {
	var missing []Field
	if IsPlaceholder(p.CompanyName) {
		missing = append(missing, FieldCompanyName)
	}
	if IsPlaceholder(p.TenantUID) {
		missing = append(missing, FieldTenantUID)
	}
	if IsPlaceholder(p.OfficeID) {
		missing = append(missing, FieldOfficeID)
	}
	return missing
}

// ValidateIdentity returns services.ErrMissingField naming every identity key
// p lacks, or nil when all three are present.
func (p *Partial) ValidateIdentity(component, op string) error {
	missing := p.MissingIdentity()
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = string(f)
	}
	return services.Wrap(services.ErrMissingField, component, op, "required: "+strings.Join(names, ", "), nil)
}

// MergeFrom fills fields of p from src following backend precedence: a field
// already holding a real value is never overwritten, a placeholder is replaced
// by a real value, and an empty field accepts anything src supplies.
// It reports whether src contributed at least one field.
func (p *Partial) MergeFrom(src *Partial) bool {
	if src == nil {
		return false
	}
	contributed := false
	dst := p.fields()
	from := src.fields()
	for i := range dst {
		value := from[i]
		if *value == "" {
			continue
		}
		switch {
		case *dst[i] == "":
			*dst[i] = *value
			contributed = true
		case IsPlaceholder(*dst[i]) && !IsPlaceholder(*value):
			*dst[i] = *value
			contributed = true
		}
	}
	return contributed
}

// Record converts p into a record without applying placeholders.
func (p *Partial) Record() *Record {
	return &Record{
		CompanyName:        p.CompanyName,
		TenantUID:          p.TenantUID,
		OfficeID:           p.OfficeID,
		CorporateNumber:    p.CorporateNumber,
		IdentificationCode: p.IdentificationCode,
		PlanName:           p.PlanName,
		PaymentMethod:      p.PaymentMethod,
		ContractStatus:     p.ContractStatus,
		Notes:              p.Notes,
		CreatedAt:          p.CreatedAt,
	}
}

// PartialOf converts a record back into a partial.
func PartialOf(r *Record) *Partial {
	if r == nil {
		return nil
	}
	return &Partial{
		CompanyName:        r.CompanyName,
		TenantUID:          r.TenantUID,
		OfficeID:           r.OfficeID,
		CorporateNumber:    r.CorporateNumber,
		IdentificationCode: r.IdentificationCode,
		PlanName:           r.PlanName,
		PaymentMethod:      r.PaymentMethod,
		ContractStatus:     r.ContractStatus,
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt,
	}
}

// Confirmed builds the record that results from an operator confirming
// candidate against existing (nil when the entity is new). Identity keys always
// come from the candidate. Every other field takes the candidate value when it
// is a real value, else the existing value, else its placeholder default.
func Confirmed(existing *Record, candidate Partial, now time.Time) Record {
	pick := func(supplied, current, fallback string) string {
		if supplied != "" && !IsPlaceholder(supplied) {
			return supplied
		}
		if current != "" {
			return current
		}
		if supplied != "" {
			return supplied
		}
		return fallback
	}

	var base Record
	if existing != nil {
		base = *existing.Clone()
	}
	ts := now.UTC()

	out := base
	out.CompanyName = candidate.CompanyName
	out.TenantUID = candidate.TenantUID
	out.OfficeID = candidate.OfficeID
	out.CorporateNumber = pick(candidate.CorporateNumber, base.CorporateNumber, PlaceholderUnregistered)
	out.IdentificationCode = pick(candidate.IdentificationCode, base.IdentificationCode, PlaceholderUnset)
	out.PlanName = pick(candidate.PlanName, base.PlanName, PlaceholderToConfirm)
	out.PaymentMethod = pick(candidate.PaymentMethod, base.PaymentMethod, PlaceholderToConfirm)
	out.ContractStatus = pick(candidate.ContractStatus, base.ContractStatus, "")
	out.Notes = pick(candidate.Notes, base.Notes, "")
	out.CreatedAt = pick(candidate.CreatedAt, base.CreatedAt, now.Format(DateLayout))
	if out.AddedAt == nil {
		out.AddedAt = &ts
	}
	out.UpdatedAt = &ts
	return out
}

// Get returns the value of the named field.
func (p *Partial) Get(field Field) string {
	if p == nil {
		return ""
	}
	return p.Record().Get(field)
}
