// Package session issues the per-process identifier that addresses the
// notification channel.
package session

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// IDLength is the number of base-36 characters in an ID.
const IDLength = 8

// NewID returns a short lowercase base-36 token. Collisions between
// clients are tolerated by the server, so this is not meant to be
// unguessable.
func NewID() string {
	u := uuid.New()
	v := binary.BigEndian.Uint64(u[8:])
	s := strconv.FormatUint(v, 36)
	if len(s) < IDLength {
		return strings.Repeat("0", IDLength-len(s)) + s
	}
	return s[len(s)-IDLength:]
}
