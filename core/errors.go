package core

import "strconv"

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unknown
	ErrUnknown ErrorCode = 100000
	// ErrAccessDenied caller is not allowed to mutate the state
	ErrAccessDenied ErrorCode = 100001
	// ErrReentrancyDetected public entry point re-entered
	ErrReentrancyDetected ErrorCode = 100002
	// ErrArithmeticOverflow accounting overflow or underflow
	ErrArithmeticOverflow ErrorCode = 100003
	// ErrUnsupported unsupported call
	ErrUnsupported ErrorCode = 100004

	// ErrDuplicatePosition owner already has a position
	ErrDuplicatePosition ErrorCode = 100100
	// ErrNotFound no position
	ErrNotFound ErrorCode = 100101
	// ErrInsufficientCollateral full collateral check failed
	ErrInsufficientCollateral ErrorCode = 100102
	// ErrDebtLimitExceeded total debt over limit
	ErrDebtLimitExceeded ErrorCode = 100103
	// ErrNotLiquidatable health factor above the boundary
	ErrNotLiquidatable ErrorCode = 100104
	// ErrInvalidAmount invalid amount or leverage
	ErrInvalidAmount ErrorCode = 100105

	// ErrUnknownAsset asset not registered
	ErrUnknownAsset ErrorCode = 100200
	// ErrAlreadyRegistered asset registered twice
	ErrAlreadyRegistered ErrorCode = 100201
	// ErrRegistryFull no free mask bit
	ErrRegistryFull ErrorCode = 100202
	// ErrInvalidThreshold threshold above 100%
	ErrInvalidThreshold ErrorCode = 100203

	// ErrTargetNotAllowed call target is not an approved adapter
	ErrTargetNotAllowed ErrorCode = 100300
	// ErrInvalidCall malformed call data
	ErrInvalidCall ErrorCode = 100301

	// ErrPriceUnavailable oracle has no price
	ErrPriceUnavailable ErrorCode = 100400
	// ErrInsufficientBalance ledger balance too low
	ErrInsufficientBalance ErrorCode = 100401
	// ErrInsufficientAllowance ledger allowance too low
	ErrInsufficientAllowance ErrorCode = 100402
)

var errorMessages = map[ErrorCode]string{
	ErrUnknown:                "unknown",
	ErrAccessDenied:           "access denied",
	ErrReentrancyDetected:     "reentrancy detected",
	ErrArithmeticOverflow:     "arithmetic overflow",
	ErrUnsupported:            "unsupported",
	ErrDuplicatePosition:      "duplicate position",
	ErrNotFound:               "position not found",
	ErrInsufficientCollateral: "insufficient collateral",
	ErrDebtLimitExceeded:      "debt limit exceeded",
	ErrNotLiquidatable:        "position is not liquidatable",
	ErrInvalidAmount:          "invalid amount",
	ErrUnknownAsset:           "unknown asset",
	ErrAlreadyRegistered:      "asset already registered",
	ErrRegistryFull:           "collateral registry full",
	ErrInvalidThreshold:       "invalid liquidation threshold",
	ErrTargetNotAllowed:       "target not allowed",
	ErrInvalidCall:            "invalid call",
	ErrPriceUnavailable:       "price unavailable",
	ErrInsufficientBalance:    "insufficient balance",
	ErrInsufficientAllowance:  "insufficient allowance",
}

// Code numeric code
func (e ErrorCode) Code() int {
	return int(e)
}

func (e ErrorCode) String() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}

	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	return e.String()
}
