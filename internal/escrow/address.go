package escrow

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the sentinel for "no affiliate".
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// IsAddress reports whether s is a 0x-prefixed 20-byte hex address. Mixed-case
// input has to carry a valid EIP-55 checksum.
func IsAddress(s string) bool {
	if len(s) != 2+2*common.AddressLength || !strings.HasPrefix(s, "0x") {
		return false
	}
	if !common.IsHexAddress(s) {
		return false
	}
	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(s).Hex() == s
}

// ChecksumAddress validates s and returns its EIP-55 checksummed form.
func ChecksumAddress(s string) (string, error) {
	if !IsAddress(s) {
		return "", validationErrorf("invalid address %q", s)
	}
	return common.HexToAddress(s).Hex(), nil
}

// SameAddress compares two address strings case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
