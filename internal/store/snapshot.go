package store

import (
	"encoding/json"
	"time"

	"custid/internal/customer"
)

// Snapshot is the in-memory form of the store file.
type Snapshot struct {
	Customers          []customer.Record `json:"customers"`
	LastUpdated        *time.Time        `json:"last_updated"`
	DataSources        []string          `json:"data_sources"`
	UpdateInstructions []string          `json:"update_instructions"`

	// Extra keeps top-level keys written by other tools.
	Extra map[string]json.RawMessage `json:"-"`
}

type snapshotAlias Snapshot

var knownSnapshotKeys = map[string]struct{}{
	"customers": {}, "last_updated": {}, "data_sources": {}, "update_instructions": {},
}

// UnmarshalJSON decodes the store document and keeps unknown top-level keys.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var alias snapshotAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Snapshot(alias)
	s.Extra = nil
	for key, value := range raw {
		if _, known := knownSnapshotKeys[key]; known {
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[key] = value
	}
	return nil
}

// MarshalJSON encodes the store document including preserved keys. Nil
// slices are written as empty arrays.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.Customers == nil {
		s.Customers = []customer.Record{}
	}
	if s.DataSources == nil {
		s.DataSources = []string{}
	}
	if s.UpdateInstructions == nil {
		s.UpdateInstructions = []string{}
	}
	base, err := json.Marshal(snapshotAlias(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range s.Extra {
		if _, known := knownSnapshotKeys[key]; !known {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// FindExact returns the first record equal to q on a field implied by q.Kind.
func (s *Snapshot) FindExact(q customer.Query) (*customer.Record, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Customers {
		if s.Customers[i].MatchesExact(q) {
			return s.Customers[i].Clone(), true
		}
	}
	return nil, false
}

// FindPartial returns the first record (in store order) whose company name,
// tenant UID or office ID contains q.Value.
func (s *Snapshot) FindPartial(q customer.Query) (*customer.Record, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Customers {
		if s.Customers[i].MatchesPartial(q) {
			return s.Customers[i].Clone(), true
		}
	}
	return nil, false
}

// identityMatches returns the indices of every record sharing a real identity
// key value with the candidate.
func (s *Snapshot) identityMatches(candidate customer.Partial) []int {
	company := realValue(candidate.CompanyName)
	tenant := realValue(candidate.TenantUID)
	office := realValue(candidate.OfficeID)

	var idx []int
	for i := range s.Customers {
		if s.Customers[i].SharesIdentity(company, tenant, office) {
			idx = append(idx, i)
		}
	}
	return idx
}

func realValue(v string) string {
	if customer.IsPlaceholder(v) {
		return ""
	}
	return v
}
