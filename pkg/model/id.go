// Package model holds the value types shared across the simulation: frame
// headers, ACL rules, route entries, and the small bounded enums the
// observation layer encodes. Nothing in this package owns simulation state;
// it is the vocabulary the stateful packages (network, fs, software, sim)
// are built from.
package model

import (
	"crypto/rand"
	"fmt"
)

// ID is an entity's immutable opaque identity. Names (hostnames, interface
// indices, file names) are secondary keys resolved through an owner; ID is
// the only key the request dispatch tree and session manager ever use
// across episode boundaries.
type ID string

// NewID returns a fresh random identity in UUID-v4 text form.
func NewID() ID {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("model: reading random bytes for ID: %v", err))
	}
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // RFC 4122 variant
	return ID(fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16]))
}
