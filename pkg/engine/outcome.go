package engine

import (
	"errors"
	"net/http"
)

// Sentinel errors a FetchClient uses to classify transport failures. A client
// wraps the underlying error so callers keep the full chain via errors.Is.
var (
	// ErrTimeout marks a connect/read/total timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrTransport marks any other transport-level failure, such as a
	// connection reset or DNS error.
	ErrTransport = errors.New("transport error")
)

// Outcome classifies the result of a single fetch attempt. Every attempt maps
// to exactly one outcome, which decides the retry policy applied before the
// next attempt.
type Outcome string

const (
	// OutcomeAccepted is a 200 response whose body was handed to extraction.
	OutcomeAccepted Outcome = "accepted"

	// OutcomeExtractionFailure is a 200 response from which no key field
	// could be extracted. It retries without any penalty: no rate-limiter
	// failure is recorded and no extra delay is applied beyond the regular
	// backoff of the next attempt.
	OutcomeExtractionFailure Outcome = "extraction_failure"

	// OutcomeRateLimited is a 429 response.
	OutcomeRateLimited Outcome = "rate_limited"

	// OutcomeServerError is any response with status >= 500.
	OutcomeServerError Outcome = "server_error"

	// OutcomeUnexpectedStatus is any other non-200 status.
	OutcomeUnexpectedStatus Outcome = "unexpected_status"

	// OutcomeTimeout is a request timeout.
	OutcomeTimeout Outcome = "timeout"

	// OutcomeClientError is a transport-level failure below HTTP.
	OutcomeClientError Outcome = "client_error"

	// OutcomeUnclassified is an error matching no known category. It still
	// consumes retry budget and is reported in metrics so a programming
	// error cannot hide behind a silent retry loop.
	OutcomeUnclassified Outcome = "unclassified"
)

// classify maps a fetch response or error to an outcome. Extraction failures
// are decided later by the attempt machine, after the body has been handed to
// the extractor.
func classify(resp *Response, err error) Outcome {
	if err != nil {
		switch {
		case errors.Is(err, ErrTimeout):
			return OutcomeTimeout
		case errors.Is(err, ErrTransport):
			return OutcomeClientError
		default:
			return OutcomeUnclassified
		}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return OutcomeAccepted
	case resp.StatusCode == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case resp.StatusCode >= 500:
		return OutcomeServerError
	default:
		return OutcomeUnexpectedStatus
	}
}
