package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for log lines.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Domain-specific hash types
type (
	DataHash   Hash
	CohortHash Hash
)

func NewDataHash(data []byte) DataHash { return DataHash(NewHash(data)) }

func (h DataHash) String() string   { return Hash(h).String() }
func (h CohortHash) String() string { return Hash(h).String() }

// ComputeCohortHash fingerprints the set of subjects kept after filtering.
// Order of subjectIDs does not matter.
func ComputeCohortHash(subjectIDs []string, excluded []string) CohortHash {
	kept := append([]string(nil), subjectIDs...)
	sort.Strings(kept)
	dropped := append([]string(nil), excluded...)
	sort.Strings(dropped)

	var data strings.Builder
	for _, id := range kept {
		data.WriteString(id)
		data.WriteByte(0)
	}
	data.WriteString("|excluded|")
	for _, id := range dropped {
		data.WriteString(id)
		data.WriteByte(0)
	}
	return CohortHash(NewHash([]byte(data.String())))
}
