package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEVMAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"checksummed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", true},
		{"all lowercase", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"all uppercase hex", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", true},
		{"bad checksum", "0x5aAeb6053F3E94C9b9a09f33669435E7Ef1BeAed", false},
		{"missing prefix", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"too short", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea", false},
		{"non hex", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaeg", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEVMAddress(tt.address))
		})
	}
}

func TestIsValidBitcoinAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"genesis p2pkh", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", true},
		{"p2sh", "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", true},
		{"corrupted checksum", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNb", false},
		{"bech32 p2wpkh", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", true},
		{"bech32 mixed case", "bc1Qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", false},
		{"bech32 bad charset", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kb8f3t4", false},
		{"testnet bech32", "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", true},
		{"invalid base58 char", "1A1zP1eP5QGefi2DMPTfTL5SLmv7Divf0a", false},
		{"too short", "1A1zP1eP", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidBitcoinAddress(tt.address))
		})
	}
}
