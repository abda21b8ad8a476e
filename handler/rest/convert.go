package rest

import (
	"leverage/core"
	"leverage/handler/codes"
	"leverage/pkg/number"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/twitchtv/twirp"
)

type call struct {
	Target string `json:"target" valid:"address,required"`
	// Data hex encoded call data
	Data string `json:"data"`
}

func decodeCalls(calls []call) ([]*core.Call, error) {
	out := make([]*core.Call, 0, len(calls))
	for idx, c := range calls {
		if !common.IsHexAddress(c.Target) {
			return nil, codes.With(twirp.InvalidArgumentError("calls", "invalid target"), core.ErrInvalidCall.Code())
		}

		data, err := decodeData(c.Data)
		if err != nil {
			twerr := twirp.InvalidArgumentError("calls", err.Error()).WithMeta("index", strconv.Itoa(idx))
			return nil, codes.With(twerr, core.ErrInvalidCall.Code())
		}

		out = append(out, &core.Call{
			Target: common.HexToAddress(c.Target),
			Data:   data,
		})
	}

	return out, nil
}

func decodeData(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}

	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}

	return hexutil.Decode(s)
}

// pathAddress reads an address url param
func pathAddress(r *http.Request, key string) (common.Address, error) {
	s := chi.URLParam(r, key)
	if !common.IsHexAddress(s) {
		return common.Address{}, twirp.InvalidArgumentError(key, "invalid address")
	}

	return common.HexToAddress(s), nil
}

// pathOwner the path owner, which must be the caller
func pathOwner(r *http.Request, caller common.Address) (common.Address, error) {
	owner, err := pathAddress(r, "owner")
	if err != nil {
		return owner, err
	}

	if owner != caller {
		return owner, core.ErrAccessDenied
	}

	return owner, nil
}

// ledgerAmount converts a human amount with the configured decimals of asset
func ledgerAmount(cfg *core.Config, asset common.Address, d decimal.Decimal) (*uint256.Int, error) {
	a, ok := cfg.AssetByAddress(asset.Hex())
	if !ok {
		return nil, core.ErrUnknownAsset
	}

	v, err := number.FromDecimal(d, int32(a.Decimals))
	if err != nil {
		return nil, twirp.InvalidArgumentError("amount", err.Error())
	}

	return v, nil
}

func underlying(cfg *core.Config) common.Address {
	return common.HexToAddress(cfg.Engine.Underlying.Address)
}

func symbolOf(cfg *core.Config, asset common.Address) string {
	a, _ := cfg.AssetByAddress(asset.Hex())
	return a.Symbol
}
