package utils

import (
	"crypto/sha256"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsValidEVMAddress reports whether s is a well-formed 20-byte hex address.
// Mixed-case inputs must carry a valid EIP-55 checksum; all-lower and
// all-upper inputs are accepted without one.
func IsValidEVMAddress(s string) bool {
	if !common.IsHexAddress(s) {
		return false
	}
	hexPart := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	lower := strings.ToLower(hexPart)
	upper := strings.ToUpper(hexPart)
	if hexPart == lower || hexPart == upper {
		return true
	}
	return common.HexToAddress(s).Hex() == "0x"+hexPart
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// IsValidBitcoinAddress reports whether s is a plausible bitcoin address:
// either a base58check-encoded legacy/P2SH address with a valid checksum,
// or a bech32-looking segwit address (prefix and charset only).
func IsValidBitcoinAddress(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "bc1") || strings.HasPrefix(lower, "tb1") || strings.HasPrefix(lower, "bcrt1") {
		return isPlausibleBech32(s)
	}
	return hasValidBase58Checksum(s)
}

// isPlausibleBech32 checks length, case uniformity and charset. Full BIP-173
// checksum validation lives with the chain backend that actually pays out.
func isPlausibleBech32(s string) bool {
	if len(s) < 14 || len(s) > 90 {
		return false
	}
	if s != strings.ToLower(s) && s != strings.ToUpper(s) {
		return false
	}
	data := strings.ToLower(s)
	sep := strings.LastIndexByte(data, '1')
	if sep < 1 || sep+7 > len(data) {
		return false
	}
	for _, c := range data[sep+1:] {
		if !strings.ContainsRune("qpzry9x8gf2tvdw0s3jn54khce6mua7l", c) {
			return false
		}
	}
	return true
}

func hasValidBase58Checksum(s string) bool {
	if len(s) < 26 || len(s) > 35 {
		return false
	}
	decoded, ok := base58Decode(s)
	if !ok || len(decoded) < 5 {
		return false
	}
	payload := decoded[:len(decoded)-4]
	checksum := decoded[len(decoded)-4:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	for i := 0; i < 4; i++ {
		if checksum[i] != second[i] {
			return false
		}
	}
	return true
}

func base58Decode(s string) ([]byte, bool) {
	result := []byte{0}
	for _, c := range s {
		idx := strings.IndexRune(base58Alphabet, c)
		if idx < 0 {
			return nil, false
		}
		carry := idx
		for i := len(result) - 1; i >= 0; i-- {
			carry += int(result[i]) * 58
			result[i] = byte(carry & 0xff)
			carry >>= 8
		}
		for carry > 0 {
			result = append([]byte{byte(carry & 0xff)}, result...)
			carry >>= 8
		}
	}
	// Leading '1' characters encode leading zero bytes.
	leadingZeros := 0
	for _, c := range s {
		if c != '1' {
			break
		}
		leadingZeros++
	}
	// Strip the implicit leading zero of the accumulator.
	for len(result) > 0 && result[0] == 0 {
		result = result[1:]
	}
	out := make([]byte, leadingZeros+len(result))
	copy(out[leadingZeros:], result)
	return out, true
}
