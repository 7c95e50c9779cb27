// Package walletx parses wallet public keys given either as 0x-prefixed hex
// or as SS58 addresses and converts between the two forms.
package walletx

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	KeySize = 32

	// GenericPrefix is the SS58 network prefix for generic Substrate addresses.
	GenericPrefix uint16 = 42

	checksumSize = 2
)

var ss58Pre = []byte("SS58PRE")

// Normalize returns the canonical form of a wallet public key: lowercase
// 0x-prefixed hex of the 32-byte key. Any malformed input yields
// common.ErrInvalidPublicKey.
func Normalize(s string) (string, error) {
	key, err := Parse(s)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(key), nil
}

// Parse decodes s into the raw 32-byte public key.
func Parse(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", common.ErrInvalidPublicKey)
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		key, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidPublicKey, err)
		}
		if len(key) != KeySize {
			return nil, fmt.Errorf("%w: want %d bytes, got %d", common.ErrInvalidPublicKey, KeySize, len(key))
		}
		return key, nil
	}

	key, _, err := DecodeSS58(s)
	return key, err
}

// DecodeSS58 decodes an SS58 address and verifies its checksum.
func DecodeSS58(addr string) (key []byte, prefix uint16, err error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrInvalidPublicKey, err)
	}
	if len(raw) == 0 {
		return nil, 0, fmt.Errorf("%w: empty address", common.ErrInvalidPublicKey)
	}

	var prefixLen int
	switch {
	case raw[0] < 64:
		prefixLen = 1
		prefix = uint16(raw[0])
	case raw[0] < 128:
		if len(raw) < 2 {
			return nil, 0, fmt.Errorf("%w: short address", common.ErrInvalidPublicKey)
		}
		prefixLen = 2
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0x3f
		prefix = uint16(lower) | uint16(upper)<<8
	default:
		return nil, 0, fmt.Errorf("%w: reserved prefix", common.ErrInvalidPublicKey)
	}

	if len(raw) != prefixLen+KeySize+checksumSize {
		return nil, 0, fmt.Errorf("%w: unexpected address length %d", common.ErrInvalidPublicKey, len(raw))
	}

	body := raw[:prefixLen+KeySize]
	sum := checksum(body)
	if !bytes.Equal(sum, raw[prefixLen+KeySize:]) {
		return nil, 0, fmt.Errorf("%w: bad checksum", common.ErrInvalidPublicKey)
	}

	key = make([]byte, KeySize)
	copy(key, raw[prefixLen:prefixLen+KeySize])
	return key, prefix, nil
}

// EncodeSS58 encodes a 32-byte key as an SS58 address with a one-byte
// network prefix.
func EncodeSS58(key []byte, prefix uint16) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("%w: want %d bytes, got %d", common.ErrInvalidPublicKey, KeySize, len(key))
	}
	if prefix >= 64 {
		return "", fmt.Errorf("walletx: prefix %d needs two-byte encoding", prefix)
	}

	body := append([]byte{byte(prefix)}, key...)
	return base58.Encode(append(body, checksum(body)...)), nil
}

// SS58 converts a canonical hex key to its generic SS58 address.
func SS58(hexKey string) (string, error) {
	key, err := Parse(hexKey)
	if err != nil {
		return "", err
	}
	return EncodeSS58(key, GenericPrefix)
}

func checksum(body []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Pre)
	h.Write(body)
	return h.Sum(nil)[:checksumSize]
}
