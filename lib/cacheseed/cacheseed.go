// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package cacheseed derives deterministic cache-partition keys. A
// seed is the run-scoped base value joined with caller-supplied scope
// tokens (tool version, python version, platform, architecture) by
// "|" in the order supplied. Two runs with identical inputs produce
// byte-identical seeds, and unrelated scope changes cannot invalidate
// unrelated cache partitions.
//
// Content-derived components (dependency lock files) go through
// [HashFiles], which produces a stable, order-independent digest of
// the full file set so that path ordering differences across operating
// systems cannot churn the seed.
package cacheseed

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// Separator joins seed segments. Scope values must not contain it.
const Separator = "|"

// Scope is one named seed component. The name exists for error
// reporting; only the value enters the seed string.
type Scope struct {
	Name  string
	Value string
}

// MissingScopeError reports an empty required scope token. A seed
// built from a missing token would silently merge cache partitions
// that must stay separate, so this is fatal.
type MissingScopeError struct {
	// Name is the scope whose value was empty.
	Name string
}

func (e *MissingScopeError) Error() string {
	return fmt.Sprintf("cache seed scope %q has no value; refusing to build a seed that would merge unrelated cache partitions", e.Name)
}

// Seed composes the cache seed from the base value and scope tokens,
// in the order supplied. An empty base or scope value is a
// [MissingScopeError]; a separator inside a value is rejected because
// it would make distinct inputs collide.
func Seed(base string, scopes ...Scope) (string, error) {
	if base == "" {
		return "", &MissingScopeError{Name: "base"}
	}
	segments := make([]string, 0, len(scopes)+1)
	segments = append(segments, base)
	for _, scope := range scopes {
		if scope.Value == "" {
			return "", &MissingScopeError{Name: scope.Name}
		}
		if strings.Contains(scope.Value, Separator) {
			return "", fmt.Errorf("cache seed scope %q: value %q contains the separator %q", scope.Name, scope.Value, Separator)
		}
		segments = append(segments, scope.Value)
	}
	return strings.Join(segments, Separator), nil
}

// fileDomainKey is the 32-byte key for BLAKE3 keyed hashing of seed
// files. Domain separation keeps these digests distinct from any other
// BLAKE3 use. The value is the ASCII domain name zero-padded to 32
// bytes, readable in hex dumps; BLAKE3 keyed mode treats it as an
// opaque key.
var fileDomainKey = [32]byte{
	'g', 'a', 'n', 't', 'r', 'y', '.', 'c', 'a', 'c', 'h', 'e', 's', 'e', 'e', 'd',
	'.', 'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashFiles computes an order-independent digest over the given files,
// resolved relative to root. Each file is hashed individually (keyed
// BLAKE3 over its slash-normalized relative path, a NUL separator,
// and its content), and the per-file digests are XOR-combined. XOR is
// commutative, so the result does not depend on path ordering; the
// path inside each per-file hash keeps renames and content swaps
// between files from cancelling out.
func HashFiles(root string, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("hashing seed files: empty file set")
	}

	var combined [32]byte
	for _, path := range paths {
		digest, err := hashFile(root, path)
		if err != nil {
			return "", err
		}
		for i := range combined {
			combined[i] ^= digest[i]
		}
	}
	return hex.EncodeToString(combined[:]), nil
}

func hashFile(root, path string) ([32]byte, error) {
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		return [32]byte{}, fmt.Errorf("hashing seed file %s: %w", path, err)
	}

	hasher, err := blake3.NewKeyed(fileDomainKey[:])
	if err != nil {
		// The key is a fixed 32-byte constant; failure here is a
		// build defect, not runtime data.
		panic("cacheseed: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(filepath.ToSlash(path)))
	hasher.Write([]byte{0})
	hasher.Write(content)

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}
