package core

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

func equalAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// IsAddress hex address check
func IsAddress(s string) bool {
	return common.IsHexAddress(s)
}
