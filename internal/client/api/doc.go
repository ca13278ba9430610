// Package api is the resilient HTTP client for the Serviya backend. It
// attaches credentials, renews access tokens transparently, retries
// transient failures, and maps responses onto a structured error taxonomy.
//
// Retry policy by operation kind:
//
//	JSON calls    — transient transport failures retried up to the
//	                configured maximum with exponential backoff; one
//	                refresh-and-reissue on 401; server errors never retried.
//	Multipart     — zero transport retries (resending a large upload risks
//	                duplicate server-side effects); one refresh-and-reissue
//	                on 401 only, re-streaming files from disk.
//	Token refresh — never retried here; callers coalesce on the lifecycle
//	                manager's single flight.
//
// The asymmetry between JSON calls and uploads is deliberate.
package api
