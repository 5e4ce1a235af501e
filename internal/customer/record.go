package customer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Placeholder values stored in place of data that is not yet known.
const (
	PlaceholderUnregistered = "unregistered"
	PlaceholderUnset        = "unset"
	PlaceholderToConfirm    = "to confirm"
	PlaceholderUnknown      = "unknown"
	PlaceholderTimeout      = "timeout"
)

// DateLayout is the layout of CreatedAt.
const DateLayout = "2006-01-02"

// Field names a record attribute. Values match the store file JSON keys.
type Field string

const (
	FieldCompanyName        Field = "company_name"
	FieldTenantUID          Field = "tenant_uid"
	FieldOfficeID           Field = "office_id"
	FieldCorporateNumber    Field = "corporate_number"
	FieldIdentificationCode Field = "identification_code"
	FieldPlanName           Field = "plan_name"
	FieldPaymentMethod      Field = "payment_method"
	FieldContractStatus     Field = "contract_status"
	FieldNotes              Field = "notes"
	FieldCreatedAt          Field = "created_at"
)

// IdentityFields are the keys that jointly identify a real-world entity.
var IdentityFields = []Field{FieldCompanyName, FieldTenantUID, FieldOfficeID}

// Sentinels found in store files written by earlier tooling. They load and
// save unchanged and are treated exactly like their English counterparts.
const (
	LegacyUnregistered = "未登録"
	LegacyUnset        = "未設定"
	LegacyToConfirm    = "要確認"
	LegacyUnknown      = "不明"
	LegacyTimeout      = "タイムアウト"
)

// IsPlaceholder reports whether value is empty or one of the placeholder sentinels.
func IsPlaceholder(value string) bool {
	switch strings.TrimSpace(value) {
	case "", PlaceholderUnregistered, PlaceholderUnset, PlaceholderToConfirm, PlaceholderUnknown, PlaceholderTimeout,
		LegacyUnregistered, LegacyUnset, LegacyToConfirm, LegacyUnknown, LegacyTimeout:
		return true
	default:
		return false
	}
}

// Record is a canonical customer entry as persisted in the local store.
type Record struct {
	CompanyName        string     `json:"company_name"`
	TenantUID          string     `json:"tenant_uid"`
	OfficeID           string     `json:"office_id"`
	CorporateNumber    string     `json:"corporate_number,omitempty"`
	IdentificationCode string     `json:"identification_code,omitempty"`
	PlanName           string     `json:"plan_name,omitempty"`
	PaymentMethod      string     `json:"payment_method,omitempty"`
	ContractStatus     string     `json:"contract_status,omitempty"`
	Notes              string     `json:"notes"`
	CreatedAt          string     `json:"created_at,omitempty"`
	AddedAt            *time.Time `json:"added_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`

	// Extra holds keys the store file carries that this type does not model.
	// They are written back unchanged.
	Extra map[string]json.RawMessage `json:"-"`

	// decoded marks records read from a store file. emptyKeys holds the raw
	// values of modelled keys that were present but empty ("" or null), so a
	// save writes them back instead of dropping or inventing keys.
	decoded   bool
	emptyKeys map[string]json.RawMessage
}

type recordAlias Record

var knownRecordKeys = map[string]struct{}{
	"company_name": {}, "tenant_uid": {}, "office_id": {}, "corporate_number": {},
	"identification_code": {}, "plan_name": {}, "payment_method": {}, "contract_status": {},
	"notes": {}, "created_at": {}, "added_at": {}, "updated_at": {},
}

// UnmarshalJSON decodes a record, accepting numeric IDs and keeping unknown keys.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range []string{"tenant_uid", "office_id", "corporate_number"} {
		if value, ok := raw[key]; ok {
			raw[key] = stringifyNumber(value)
		}
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	var alias recordAlias
	if err := json.Unmarshal(normalized, &alias); err != nil {
		return err
	}
	*r = Record(alias)
	r.Extra = nil
	r.decoded = true
	r.emptyKeys = nil
	for key, value := range raw {
		if _, known := knownRecordKeys[key]; known {
			if isEmptyJSON(value) {
				if r.emptyKeys == nil {
					r.emptyKeys = make(map[string]json.RawMessage)
				}
				r.emptyKeys[key] = value
			}
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[key] = value
	}
	return nil
}

// MarshalJSON encodes a record, merging Extra keys back in. Records read from
// a store file keep their original key set: empty keys that were present are
// written back and a missing notes key is not added.
func (r Record) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(recordAlias(r))
	if err != nil {
		return nil, err
	}
	_, hadNotes := r.emptyKeys["notes"]
	dropNotes := r.decoded && r.Notes == "" && !hadNotes
	if len(r.Extra) == 0 && len(r.emptyKeys) == 0 && !dropNotes {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range r.emptyKeys {
		if current, ok := merged[key]; !ok || isEmptyJSON(current) {
			merged[key] = value
		}
	}
	if dropNotes {
		delete(merged, "notes")
	}
	for key, value := range r.Extra {
		if _, known := knownRecordKeys[key]; known {
			continue
		}
		merged[key] = value
	}
	return json.Marshal(merged)
}

func isEmptyJSON(value json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(value))
	return trimmed == `""` || trimmed == "null"
}

// stringifyNumber converts a bare JSON number into a JSON string so IDs that
// older tooling wrote as numbers still decode.
func stringifyNumber(value json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(value))
	if trimmed == "" || trimmed[0] == '"' || trimmed == "null" {
		return value
	}
	var number json.Number
	if err := json.Unmarshal(value, &number); err != nil {
		return value
	}
	quoted, err := json.Marshal(number.String())
	if err != nil {
		return value
	}
	return quoted
}

// Get returns the value of the named field.
func (r *Record) Get(field Field) string {
	switch field {
	case FieldCompanyName:
		return r.CompanyName
	case FieldTenantUID:
		return r.TenantUID
	case FieldOfficeID:
		return r.OfficeID
	case FieldCorporateNumber:
		return r.CorporateNumber
	case FieldIdentificationCode:
		return r.IdentificationCode
	case FieldPlanName:
		return r.PlanName
	case FieldPaymentMethod:
		return r.PaymentMethod
	case FieldContractStatus:
		return r.ContractStatus
	case FieldNotes:
		return r.Notes
	case FieldCreatedAt:
		return r.CreatedAt
	default:
		return ""
	}
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.AddedAt != nil {
		t := *r.AddedAt
		cp.AddedAt = &t
	}
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		cp.UpdatedAt = &t
	}
	cp.Extra = cloneRaw(r.Extra)
	cp.emptyKeys = cloneRaw(r.emptyKeys)
	return &cp
}

func cloneRaw(in map[string]json.RawMessage) map[string]json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// SharesIdentity reports whether other matches r on any identity key.
func (r *Record) SharesIdentity(companyName, tenantUID, officeID string) bool {
	return (companyName != "" && r.CompanyName == companyName) ||
		(tenantUID != "" && r.TenantUID == tenantUID) ||
		(officeID != "" && r.OfficeID == officeID)
}

// String renders a short human-readable label.
func (r *Record) String() string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s (tenant=%s office=%s)", r.CompanyName, r.TenantUID, r.OfficeID)
}
