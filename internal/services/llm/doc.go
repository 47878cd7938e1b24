// Package llm provides the generative text backend used by every study flow.
//
// The package defines the Completer contract consumed by internal/study and
// ships the default implementation: an OpenRouter-compatible chat completions
// client that requests JSON-only output and can attach a document to the user
// message as a file content part (PDF or TXT encoded as a data URI).
//
// # Entry Points
//
// NewClient: construct the chat client from Config.
// Client.Complete: send a Request (system prompt, user prompt, optional
// attachment) and receive the raw JSON payload.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: tolerant decoding of model output (code fences, prose around
// the JSON object).
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, 3 attempts by
// default). Context cancellation and deadline expiry abort retries
// immediately. Callers that must make a single attempt (Explain-Segment)
// build a client with WithRetryMaxAttempts(1).
//
// # Errors
//
// Every failure returned by Complete is tagged with a services marker:
// ErrConfiguration for missing credentials, ErrTimeout when the request
// deadline or HTTP timeout expires, and ErrGeneration otherwise.
package llm
