// Package registry is the outbound client for the GlobalGAP certification
// registry: single and batch GGN verification, status lookup, and producer
// search over HTTPS JSON, behind a shared token-bucket rate limiter and a
// bounded retry policy.
package registry

import (
	"errors"
	"fmt"
	"time"

	dErrors "agrocert/pkg/domain-errors"
)

// retryableError marks an error class the retry policy may re-attempt.
// Transient network failures, timeouts and 5xx responses qualify; every
// 4xx response is final.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func markRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether the retry policy may re-attempt after err.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// RetryAfter extracts the server-provided backoff hint from a rate-limit
// error, or zero when none applies.
func RetryAfter(err error) time.Duration {
	var rl *rateLimitedError
	if errors.As(err, &rl) {
		return rl.retryAfter
	}
	return 0
}

type rateLimitedError struct {
	err        error
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string { return e.err.Error() }
func (e *rateLimitedError) Unwrap() error { return e.err }

func errCertificateNotFound(ggn string) error {
	return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("certificate %s not found in registry", ggn)).
		WithLocalized("es", fmt.Sprintf("certificado %s no encontrado en el registro", ggn)).
		WithField("ggn")
}

func errAuthentication() error {
	return dErrors.New(dErrors.CodeUnauthorized, "registry rejected the API credentials").
		WithLocalized("es", "el registro rechazó las credenciales de la API")
}

func errRateLimited(retryAfter time.Duration) error {
	base := dErrors.New(dErrors.CodeRateLimited, "registry rate limit exceeded").
		WithLocalized("es", "límite de solicitudes del registro excedido")
	return markRetryable(&rateLimitedError{err: base, retryAfter: retryAfter})
}

func errRegistry(status int) error {
	base := dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("registry returned status %d", status)).
		WithLocalized("es", fmt.Sprintf("el registro devolvió el estado %d", status))
	if status >= 500 {
		return markRetryable(base)
	}
	return base
}

func errTransport(err error) error {
	return markRetryable(dErrors.Wrap(err, dErrors.CodeUnavailable, "registry request failed").
		WithLocalized("es", "falló la solicitud al registro"))
}

func errRequestTimeout(err error) error {
	return markRetryable(dErrors.Wrap(err, dErrors.CodeTimeout, "registry request timed out").
		WithLocalized("es", "la solicitud al registro expiró"))
}
