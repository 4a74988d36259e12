package utils

import (
	"crypto/rand"
	"errors"
	"strings"
)

// RowIDHook lets tests pin the ids handed out by NewRowID.
// It returns the id to use and whether to use it.
var RowIDHook func() (id string, override bool)

// Crockford Base32 alphabet (uppercase, no I L O U).
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const rowIDLen = 10

var crockfordDecode [256]int8

func init() {
	for i := range crockfordDecode {
		crockfordDecode[i] = -1
	}
	for i := 0; i < len(crockfordAlphabet); i++ {
		c := crockfordAlphabet[i]
		crockfordDecode[c] = int8(i)
		crockfordDecode[strings.ToLower(string(c))[0]] = int8(i)
	}
	// commonly confused characters
	crockfordDecode['O'], crockfordDecode['o'] = 0, 0
	crockfordDecode['I'], crockfordDecode['i'] = 1, 1
	crockfordDecode['L'], crockfordDecode['l'] = 1, 1
}

// NewRowID returns a random 48-bit id rendered as 10 Crockford Base32 characters.
// It is used as the primary key of self-hosted rows and users.
func NewRowID() string {
	if RowIDHook != nil {
		if id, override := RowIDHook(); override {
			return id
		}
	}

	var raw [6]byte
	_, _ = rand.Read(raw[:])
	return encodeCrockford(raw)
}

func encodeCrockford(raw [6]byte) string {
	out := make([]byte, 0, rowIDLen)
	var bits, offset uint
	for _, b := range raw {
		bits |= uint(b) << offset
		offset += 8
		for offset >= 5 {
			out = append(out, crockfordAlphabet[bits&0x1F])
			bits >>= 5
			offset -= 5
		}
	}
	if offset > 0 {
		out = append(out, crockfordAlphabet[bits&0x1F])
	}
	return string(out)
}

// NormalizeRowID validates a user-supplied id and returns its canonical uppercase form.
// Hyphens and spaces are ignored.
func NormalizeRowID(s string) (string, error) {
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	if len(s) != rowIDLen {
		return "", errors.New("invalid row id: length must be 10")
	}

	var raw [6]byte
	var bits uint64
	var offset uint
	n := 0
	for i := 0; i < len(s); i++ {
		v := crockfordDecode[s[i]]
		if v < 0 {
			return "", errors.New("invalid character in row id")
		}
		bits |= uint64(v) << offset
		offset += 5
		for offset >= 8 && n < len(raw) {
			raw[n] = byte(bits)
			n++
			bits >>= 8
			offset -= 8
		}
	}
	return encodeCrockford(raw), nil
}
