package codes

import (
	"errors"
	"leverage/core"
	"strconv"

	"github.com/twitchtv/twirp"
)

const (
	// CustomCodeKey code key
	CustomCodeKey = "custom_code"

	// InvalidArguments invalid arguments
	InvalidArguments = 100001
)

var twirpCodes = map[core.ErrorCode]twirp.ErrorCode{
	core.ErrAccessDenied:           twirp.PermissionDenied,
	core.ErrReentrancyDetected:     twirp.Aborted,
	core.ErrArithmeticOverflow:     twirp.OutOfRange,
	core.ErrUnsupported:            twirp.Unimplemented,
	core.ErrDuplicatePosition:      twirp.AlreadyExists,
	core.ErrNotFound:               twirp.NotFound,
	core.ErrInsufficientCollateral: twirp.FailedPrecondition,
	core.ErrDebtLimitExceeded:      twirp.ResourceExhausted,
	core.ErrNotLiquidatable:        twirp.FailedPrecondition,
	core.ErrInvalidAmount:          twirp.InvalidArgument,
	core.ErrUnknownAsset:           twirp.NotFound,
	core.ErrAlreadyRegistered:      twirp.AlreadyExists,
	core.ErrRegistryFull:           twirp.ResourceExhausted,
	core.ErrInvalidThreshold:       twirp.InvalidArgument,
	core.ErrTargetNotAllowed:       twirp.PermissionDenied,
	core.ErrInvalidCall:            twirp.InvalidArgument,
	core.ErrPriceUnavailable:       twirp.Unavailable,
	core.ErrInsufficientBalance:    twirp.FailedPrecondition,
	core.ErrInsufficientAllowance:  twirp.FailedPrecondition,
}

// With with specified error
func With(err error, code int) error {
	twerr, ok := err.(twirp.Error)
	if !ok {
		twerr = twirp.InternalErrorWith(err)
	}

	return twerr.WithMeta(CustomCodeKey, strconv.Itoa(code))
}

// From twirp error of err, engine error codes keep their number
func From(err error) twirp.Error {
	var twerr twirp.Error
	if errors.As(err, &twerr) {
		return twerr
	}

	var code core.ErrorCode
	if errors.As(err, &code) {
		c, ok := twirpCodes[code]
		if !ok {
			c = twirp.Internal
		}

		return twirp.NewError(c, err.Error()).WithMeta(CustomCodeKey, strconv.Itoa(code.Code()))
	}

	return twirp.InternalErrorWith(err)
}

// Get get error code
func Get(err twirp.Error) int {
	if v := err.Meta(CustomCodeKey); v != "" {
		if code, e := strconv.Atoi(v); e == nil {
			return code
		}
	}

	switch err.Code() {
	case twirp.InvalidArgument:
		return InvalidArguments
	default:
		return twirp.ServerHTTPStatusFromErrorCode(err.Code())
	}
}
