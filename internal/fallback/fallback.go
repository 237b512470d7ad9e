// Package fallback implements the read-only disk-resident JSON snapshot
// store used when an upstream is unreachable (currently the address-book
// endpoint, spec §6).
package fallback

import (
	"encoding/json"
	"os"

	"github.com/ergoplatform/ergo-chain-analytics/internal/apierror"
)

// AddressBookSnapshot is the on-disk shape of the address-book fallback.
type AddressBookSnapshot struct {
	Items  []json.RawMessage `json:"items"`
	Total  int               `json:"total"`
	Tokens []json.RawMessage `json:"tokens"`
	Note   string            `json:"note,omitempty"`
}

// Store reads a fallback snapshot from a fixed path on disk. Read-only.
type Store struct {
	path string
}

// New builds a Store reading from path.
func New(path string) *Store {
	return &Store{path: path}
}

// LoadAddressBook reads and decodes the address-book fallback snapshot.
func (s *Store) LoadAddressBook() (*AddressBookSnapshot, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, apierror.Wrap(apierror.TransportFailure, "fallback/address_book", err, "failed to read fallback snapshot")
	}

	var snap AddressBookSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, apierror.Wrap(apierror.DecodeFailure, "fallback/address_book", err, "fallback snapshot is not valid JSON")
	}
	return &snap, nil
}
