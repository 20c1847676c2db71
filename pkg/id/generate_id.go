package id

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/gowebpki/jcs"
)

// Zero64 is the all-zero id used for records that belong to no request.
var Zero64 = strings.Repeat("0", 64)

// Canonical returns the RFC 8785 (JCS) form of v's JSON encoding.
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(raw)
}

// Digest returns the lowercase hex SHA-256 of v's canonical JSON.
func Digest(v any) (string, error) {
	c, err := Canonical(v)
	if err != nil {
		return "", err
	}
	s := sha256.Sum256(c)
	return hex.EncodeToString(s[:]), nil
}

// Derive returns a 64 hex char id bound to the canonical form of doc and
// the unix second of at. Equal inputs always give the same id.
func Derive(doc any, at time.Time) (string, error) {
	c, err := Canonical(doc)
	if err != nil {
		return "", err
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(at.Unix()))

	h := sha256.New()
	h.Write(c)
	h.Write(ts[:])
	return hex.EncodeToString(h.Sum(nil)), nil
}
