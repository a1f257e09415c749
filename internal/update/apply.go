// Package update serves the firmware update flow: files are uploaded to
// staging names, verified against a checksum manifest, and only renamed
// over the live files once every digest matches.
package update

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StagedSuffix marks uploaded files awaiting verification. Staged files
// never shadow live ones, so a failed update leaves the device bootable.
const StagedSuffix = ".tmp"

// ErrChecksum reports that verification failed and no staged file was
// promoted.
var ErrChecksum = errors.New("checksum mismatch")

// Stager stores uploads and promotes them atomically.
type Stager struct {
	// Dir is the directory holding live files and their staged twins.
	Dir string
}

// stagedPath maps a live filename to its staging twin. The name is
// reduced to its base so an upload can never escape Dir.
func (st *Stager) stagedPath(name string) (string, error) {
	base := filepath.Base(name)
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", name)
	}
	return filepath.Join(st.Dir, base+StagedSuffix), nil
}

// Stage writes an uploaded file body to its staging name, replacing any
// earlier upload of the same file.
func (st *Stager) Stage(name string, body io.Reader) (int64, error) {
	path, err := st.stagedPath(name)
	if err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("staging %s: %w", name, err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("staging %s: %w", name, err)
	}
	return n, nil
}

// Staged lists the base filenames (staging suffix stripped) currently
// awaiting verification.
func (st *Stager) Staged() ([]string, error) {
	entries, err := os.ReadDir(st.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), StagedSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), StagedSuffix))
	}
	return names, nil
}

// Discard removes every staged file. Live files are untouched.
func (st *Stager) Discard() error {
	names, err := st.Staged()
	if err != nil {
		return err
	}
	var firstErr error
	for _, name := range names {
		path, _ := st.stagedPath(name)
		if err := os.Remove(path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Finalize verifies every staged file against the manifest (filename to
// hex SHA-256) and, only if all of them match, renames each staged file
// over its live counterpart. On any mismatch or missing entry it deletes
// all staged files, leaves every live file untouched, and returns an
// error wrapping ErrChecksum. The renames are the commit point; a crash
// before the first rename changes nothing.
func (st *Stager) Finalize(manifest map[string]string) error {
	staged, err := st.Staged()
	if err != nil {
		return err
	}
	if len(staged) == 0 {
		return fmt.Errorf("%w: no files staged", ErrChecksum)
	}

	stagedSet := make(map[string]bool, len(staged))
	for _, name := range staged {
		stagedSet[name] = true
	}

	// Verify everything before touching any live file.
	for _, name := range staged {
		want, ok := manifest[name]
		if !ok {
			st.Discard()
			return fmt.Errorf("%w: no manifest entry for %s", ErrChecksum, name)
		}
		got, err := st.digest(name)
		if err != nil {
			st.Discard()
			return err
		}
		if !strings.EqualFold(got, want) {
			st.Discard()
			return fmt.Errorf("%w: %s: got %s, want %s", ErrChecksum, name, got, want)
		}
	}
	for name := range manifest {
		if !stagedSet[name] {
			st.Discard()
			return fmt.Errorf("%w: manifest names %s but it was not uploaded", ErrChecksum, name)
		}
	}

	for _, name := range staged {
		stagedPath, _ := st.stagedPath(name)
		livePath := filepath.Join(st.Dir, name)
		if err := os.Remove(livePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", name, err)
		}
		if err := os.Rename(stagedPath, livePath); err != nil {
			return fmt.Errorf("promoting %s: %w", name, err)
		}
	}
	return nil
}

func (st *Stager) digest(name string) (string, error) {
	path, err := st.stagedPath(name)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("verifying %s: %w", name, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("verifying %s: %w", name, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
