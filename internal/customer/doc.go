// Package customer defines the canonical customer record, the partial records
// that backends and operators supply, and the rules for combining them.
//
// A record carries three identity keys (company name, tenant UID, office ID);
// any one of them is enough to claim two records describe the same entity.
// Placeholder values such as "to confirm" or "timeout" stand in for data that
// is known to be missing and are never treated as real values when merging or
// matching.
//
// Classify is the key normalizer: it decides whether a raw query is numeric
// (matched against tenant/office IDs) or free text (matched against name and
// codes).
package customer
