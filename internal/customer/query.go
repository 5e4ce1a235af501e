package customer

import "strings"

// Kind is the shape of a lookup query.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
)

// Query is a classified lookup value.
type Query struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// Classify trims raw and decides whether it is a numeric identifier (ASCII
// digits only) or free text. It is total: the empty string is text.
func Classify(raw string) Query {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Query{Kind: KindText, Value: ""}
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return Query{Kind: KindText, Value: value}
		}
	}
	return Query{Kind: KindNumeric, Value: value}
}

// ExactFields lists the fields an exact match for kind is attempted against.
func ExactFields(kind Kind) []Field {
	if kind == KindNumeric {
		return []Field{FieldTenantUID, FieldOfficeID}
	}
	return []Field{FieldCompanyName, FieldIdentificationCode, FieldCorporateNumber}
}

// PartialFields lists the fields a substring match is attempted against.
func PartialFields() []Field {
	return []Field{FieldCompanyName, FieldTenantUID, FieldOfficeID}
}

// MatchesExact reports whether r equals q on any field implied by q.Kind.
// Placeholder values never match.
func (r *Record) MatchesExact(q Query) bool {
	if q.Value == "" {
		return false
	}
	for _, field := range ExactFields(q.Kind) {
		value := r.Get(field)
		if value == q.Value && !IsPlaceholder(value) {
			return true
		}
	}
	return false
}

// MatchesPartial reports whether q is a case-sensitive substring of the
// record's company name, tenant UID, or office ID.
func (r *Record) MatchesPartial(q Query) bool {
	if q.Value == "" {
		return false
	}
	for _, field := range PartialFields() {
		if strings.Contains(r.Get(field), q.Value) {
			return true
		}
	}
	return false
}
