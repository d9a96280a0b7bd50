package update

import (
	"errors"
	"fmt"
)

// The update pipeline sorts failures into a small set of categories so
// callers can decide what is retryable. Connect and timeout failures are
// transient; everything else means the attempt is over and the device stays
// on its current firmware.
var (
	// ErrUnreachable reports a connect failure or timeout talking to the
	// update server.
	ErrUnreachable = errors.New("update server unreachable")

	// ErrHTTPStatus reports a response status the exchange did not expect.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrManifestParse reports a manifest body that did not decode.
	ErrManifestParse = errors.New("malformed manifest")

	// ErrContentMismatch reports a response that failed a content check,
	// such as a missing image size.
	ErrContentMismatch = errors.New("content mismatch")

	// ErrSpaceExhausted reports that the installer refused the image for
	// lack of storage.
	ErrSpaceExhausted = errors.New("insufficient space for image")

	// ErrSizeMismatch reports a transfer that ended short of the announced
	// image size.
	ErrSizeMismatch = errors.New("image size mismatch")

	// ErrInstallFailed reports that the installer could not write or
	// finalize the image.
	ErrInstallFailed = errors.New("install failed")

	// ErrRetriesExhausted reports that a chunk window kept failing past the
	// configured retry ceiling.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// statusError wraps ErrHTTPStatus with the status the server returned.
func statusError(code int) error {
	return fmt.Errorf("%w %d", ErrHTTPStatus, code)
}

// wireErr folds transport-level failures into ErrUnreachable while letting
// protocol-level failures through untouched.
func wireErr(err error) error {
	if errors.Is(err, ErrHTTPStatus) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
