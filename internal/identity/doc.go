// Package identity resolves free-form queries into canonical customer records
// and confirms operator-approved records back into the local store.
//
// Resolution cascades from the local store (exact, then substring) to the
// configured remote backends. Identity backends are queried in priority order
// and the first hit becomes the base record; backends keyed by a secondary
// identifier (tenant UID) run afterwards and only fill fields the base left
// empty or unknown. Backend failures are logged and degrade to placeholders;
// only local store failures abort a resolution.
package identity
