// Package install defines the capability that persists firmware bytes and
// activates the finished image, plus a file-backed reference implementation.
//
// On a real device the implementation wraps the platform's flash/partition
// API. The updater only ever talks to the Installer interface, so the same
// download pipeline drives both.
package install

import "io"

// Installer receives firmware bytes during a download and finalizes the
// image. The contract follows the bufio.Scanner shape: Begin and End report
// success as a bool, and Err explains the most recent failure.
//
// Write deviates from io.Writer on purpose: accepting fewer bytes than
// offered is NOT an error. Flash-backed implementations take what the current
// write window allows and the downloader re-offers the remainder, so a short
// count must flow back as ordinary progress information.
type Installer interface {
	// Begin prepares storage for an image of the given size. It returns
	// false when the image cannot fit, leaving the reason in Err.
	Begin(size int64) bool

	// SetExpectedChecksum arms end-of-install verification with a hex MD5
	// digest. Called between Begin and the first Write, and only when the
	// manifest carried a checksum.
	SetExpectedChecksum(hexsum string)

	// Write stores as much of p as the target will take and reports how
	// much. A short count is not an error.
	Write(p []byte) (int, error)

	// WriteStream consumes r until end-of-stream, returning the total number
	// of bytes stored.
	WriteStream(r io.Reader) (int64, error)

	// End finalizes the image: verifies size and checksum and activates the
	// image for the next boot. It returns false on any verification or
	// activation failure, leaving the reason in Err.
	End() bool

	// IsFinished reports whether a complete image has been finalized.
	IsFinished() bool

	// Checksum returns the hex MD5 of the bytes written so far.
	Checksum() string

	// Err returns the most recent failure, or nil.
	Err() error
}
