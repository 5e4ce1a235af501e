// Package contractapi queries the contract HTTP API for a tenant's plan,
// payment method and contract status.
//
// The client never fails a lookup outright. Transport errors, bad payloads and
// non-2xx responses produce a partial record filled with the "to confirm"
// placeholder, and an expired deadline produces "timeout". The accompanying
// error wraps services.ErrUnavailable so callers can log the cause.
package contractapi
