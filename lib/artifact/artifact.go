// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifact persists the changed-files listing that selective
// runs hand to downstream test-selection tooling. The listing is
// written twice: a plain text file (one path per line) for tools that
// read it directly, and a zstd-compressed copy for upload as a build
// artifact — the payload is text, where zstd earns its ratio.
//
// Artifact names are content-addressed: a BLAKE3 digest prefix in the
// file name lets two runs with the same change set share an artifact
// and makes stale-artifact bugs visible in listings.
package artifact

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// listingDomainKey is the 32-byte key for BLAKE3 keyed hashing of
// listing payloads. The value is the ASCII domain name zero-padded to
// 32 bytes, readable in hex dumps.
var listingDomainKey = [32]byte{
	'g', 'a', 'n', 't', 'r', 'y', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c', 't', '.',
	'l', 'i', 's', 't', 'i', 'n', 'g', 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Ref identifies a persisted artifact.
type Ref struct {
	// Name is the artifact base name, e.g.
	// "changed-files-4fe81a09b2c377d1".
	Name string `json:"name"`

	// Path is the plain-text file path.
	Path string `json:"path"`

	// CompressedPath is the zstd-compressed copy's path.
	CompressedPath string `json:"compressed_path"`

	// Digest is the full hex BLAKE3 digest of the listing payload.
	Digest string `json:"digest"`
}

// PersistChangedFiles writes the listing under dir and returns the
// artifact reference. The listing payload is the paths joined by
// newlines with a trailing newline; an empty path set is rejected —
// full runs persist nothing, and a selective run with no changed
// files cannot exist.
func PersistChangedFiles(dir string, paths []string) (Ref, error) {
	if len(paths) == 0 {
		return Ref{}, fmt.Errorf("persisting changed files: empty listing")
	}

	payload := []byte(strings.Join(paths, "\n") + "\n")
	digest := hashListing(payload)
	name := "changed-files-" + digest[:16]

	if err := os.MkdirAll(dir, 0755); err != nil {
		return Ref{}, fmt.Errorf("persisting changed files: %w", err)
	}

	plainPath := filepath.Join(dir, name+".txt")
	if err := os.WriteFile(plainPath, payload, 0644); err != nil {
		return Ref{}, fmt.Errorf("writing %s: %w", plainPath, err)
	}

	compressedPath := plainPath + ".zst"
	if err := writeCompressed(compressedPath, payload); err != nil {
		return Ref{}, err
	}

	return Ref{
		Name:           name,
		Path:           plainPath,
		CompressedPath: compressedPath,
		Digest:         digest,
	}, nil
}

// ReadChangedFiles reads a persisted listing, transparently
// decompressing .zst files, and returns the paths.
func ReadChangedFiles(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading changed files artifact: %w", err)
	}

	if strings.HasSuffix(path, ".zst") {
		reader, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening zstd reader for %s: %w", path, err)
		}
		defer reader.Close()
		data, err = io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
	}

	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	return paths, nil
}

func writeCompressed(path string, payload []byte) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	writer, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return fmt.Errorf("creating zstd writer for %s: %w", path, err)
	}
	if _, err := writer.Write(payload); err != nil {
		writer.Close()
		file.Close()
		return fmt.Errorf("compressing %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return file.Close()
}

func hashListing(payload []byte) string {
	hasher, err := blake3.NewKeyed(listingDomainKey[:])
	if err != nil {
		// The key is a fixed 32-byte constant; failure here is a
		// build defect, not runtime data.
		panic("artifact: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	return hex.EncodeToString(hasher.Sum(nil))
}
