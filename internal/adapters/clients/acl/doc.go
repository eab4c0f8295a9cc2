// Package acl is the anti-corruption layer between the remote posts API and
// the quote domain.
//
// Remote DTOs stay unexported in this package. Adapters embed [BaseAdapter],
// decode bodies with [DecodeResponse] and convert each element through a
// [Translator], so a malformed remote record surfaces as
// [domain.ErrFormat] instead of a half-built quote.
//
// Every transport failure, non-2xx status included, becomes
// [domain.ErrUnavailable]: the remote side is a best-effort source and never
// decides local state. [clients.ErrCircuitOpen] and
// [clients.ErrMaxRetriesExceeded] keep their context in the error reason.
//
// [PostsClient] is the concrete adapter. It serves as the reconciler's
// quote source, as the optional publisher for added quotes and as a health
// check.
package acl
