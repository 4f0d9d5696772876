package llm

// StatusCoder is implemented by provider errors that carry the
// originating HTTP status code, so callers can classify 429/5xx as
// retryable without string-matching the error message.
type StatusCoder interface {
	StatusCode() int
}

// IsRetryableStatus reports whether err (if it implements StatusCoder)
// carries a status worth retrying with backoff: 429 or any 5xx.
func IsRetryableStatus(err error) bool {
	sc, ok := err.(StatusCoder)
	if !ok {
		return false
	}
	code := sc.StatusCode()
	return code == 429 || (code >= 500 && code < 600)
}

// IsRateLimitedStatus reports whether err's status is specifically 429.
func IsRateLimitedStatus(err error) bool {
	sc, ok := err.(StatusCoder)
	return ok && sc.StatusCode() == 429
}
