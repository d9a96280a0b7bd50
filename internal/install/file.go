package install

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// stagingSuffix marks the partial image while a download is in flight. The
// finished image only appears under its final name after End verifies it.
const stagingSuffix = ".partial"

// File is an Installer that stages the image in a directory and promotes it
// with an atomic rename once size and checksum check out. It stands in for a
// flash partition on hosts and in tests.
type File struct {
	dir      string
	name     string
	capacity int64

	f        *os.File
	sum      hash.Hash
	expected string
	size     int64
	written  int64
	finished bool
	err      error
}

// NewFile returns a File that stages and finalizes images named name inside
// dir. The directory must already exist.
func NewFile(dir, name string) *File {
	return &File{dir: dir, name: name}
}

// WithCapacity caps the image size Begin will accept. Zero means unlimited.
func (fi *File) WithCapacity(bytes int64) *File {
	fi.capacity = bytes
	return fi
}

// Path returns where the finished image lands after End succeeds.
func (fi *File) Path() string {
	return filepath.Join(fi.dir, fi.name)
}

func (fi *File) stagingPath() string {
	return filepath.Join(fi.dir, fi.name+stagingSuffix)
}

// Begin opens a fresh staging file for an image of the given size. Any
// partial image from an earlier attempt is discarded.
func (fi *File) Begin(size int64) bool {
	fi.finished = false
	fi.err = nil

	if size <= 0 {
		fi.err = fmt.Errorf("invalid image size %d", size)
		return false
	}
	if fi.capacity > 0 && size > fi.capacity {
		fi.err = fmt.Errorf("image size %d exceeds capacity %d", size, fi.capacity)
		return false
	}

	f, err := os.OpenFile(fi.stagingPath(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		fi.err = fmt.Errorf("creating staging file: %w", err)
		return false
	}

	fi.f = f
	fi.sum = md5.New()
	fi.expected = ""
	fi.size = size
	fi.written = 0

	log.WithFields(log.Fields{
		"path": fi.stagingPath(),
		"size": size,
	}).Debug("staging file ready")
	return true
}

// SetExpectedChecksum arms MD5 verification for End.
func (fi *File) SetExpectedChecksum(hexsum string) {
	fi.expected = strings.ToLower(hexsum)
}

// Write stores p up to the declared image size. Bytes beyond the declared
// size are refused via a short count rather than an error, matching how a
// sized partition behaves.
func (fi *File) Write(p []byte) (int, error) {
	if fi.f == nil {
		return 0, fmt.Errorf("write before begin")
	}

	if remaining := fi.size - fi.written; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := fi.f.Write(p)
	fi.sum.Write(p[:n])
	fi.written += int64(n)
	if err != nil {
		fi.err = fmt.Errorf("writing staging file: %w", err)
		return n, fi.err
	}
	return n, nil
}

// WriteStream copies r into the staging file until end-of-stream.
func (fi *File) WriteStream(r io.Reader) (int64, error) {
	if fi.f == nil {
		return 0, fmt.Errorf("write before begin")
	}

	limited := io.LimitReader(r, fi.size-fi.written)
	n, err := io.Copy(io.MultiWriter(fi.f, fi.sum), limited)
	fi.written += n
	if err != nil {
		fi.err = fmt.Errorf("streaming to staging file: %w", err)
		return n, fi.err
	}
	return n, nil
}

// End closes the staging file, verifies size and checksum, and promotes the
// image to its final name. The staging file is removed on any failure so a
// later attempt starts clean.
func (fi *File) End() bool {
	if fi.f == nil {
		fi.err = fmt.Errorf("end before begin")
		return false
	}

	closeErr := fi.f.Close()
	fi.f = nil
	if closeErr != nil {
		fi.fail(fmt.Errorf("closing staging file: %w", closeErr))
		return false
	}

	if fi.written != fi.size {
		fi.fail(fmt.Errorf("image size mismatch: wrote %d, expected %d", fi.written, fi.size))
		return false
	}
	if fi.expected != "" {
		if got := fi.Checksum(); got != fi.expected {
			fi.fail(fmt.Errorf("image checksum mismatch: got %s, expected %s", got, fi.expected))
			return false
		}
	}

	if err := os.Rename(fi.stagingPath(), fi.Path()); err != nil {
		fi.fail(fmt.Errorf("promoting image: %w", err))
		return false
	}

	fi.finished = true
	log.WithFields(log.Fields{
		"path":     fi.Path(),
		"size":     fi.written,
		"checksum": fi.Checksum(),
	}).Info("image installed")
	return true
}

// fail records err and discards the staging file.
func (fi *File) fail(err error) {
	fi.err = err
	if rmErr := os.Remove(fi.stagingPath()); rmErr != nil && !os.IsNotExist(rmErr) {
		log.WithError(rmErr).Warn("could not remove staging file")
	}
}

// IsFinished reports whether End promoted a complete image.
func (fi *File) IsFinished() bool {
	return fi.finished
}

// Checksum returns the hex MD5 of everything written so far.
func (fi *File) Checksum() string {
	if fi.sum == nil {
		return ""
	}
	return hex.EncodeToString(fi.sum.Sum(nil))
}

// Err returns the most recent failure, or nil.
func (fi *File) Err() error {
	return fi.err
}
