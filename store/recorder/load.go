package recorder

import (
	"context"
	"leverage/core"
	"leverage/store/asset"
	"leverage/store/position"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// State everything recorded so far
type State struct {
	Assets     []*core.CollateralAsset
	Positions  []*core.Position
	Balances   []*core.Balance
	Allowances []*core.Allowance
	// AccrualIndex pool checkpoint of the last operation, nil when nothing was recorded
	AccrualIndex *uint256.Int
	AccruedAt    time.Time
	// Nonce next position nonce
	Nonce uint64
}

// Load reads the recorded state back
func (r *Recorder) Load(ctx context.Context) (*State, error) {
	state := &State{}

	assets, err := r.assets.All(ctx)
	if err != nil {
		return nil, err
	}

	for _, a := range assets {
		state.Assets = append(state.Assets, asset.Asset(a))
	}

	positions, err := r.positions.All(ctx)
	if err != nil {
		return nil, err
	}

	for _, record := range positions {
		p, err := position.Position(record)
		if err != nil {
			return nil, err
		}
		state.Positions = append(state.Positions, p)
	}

	balances, err := r.balances.AllBalances(ctx)
	if err != nil {
		return nil, err
	}

	for _, b := range balances {
		amount, err := uint256.FromDecimal(b.Amount)
		if err != nil {
			return nil, err
		}

		state.Balances = append(state.Balances, &core.Balance{
			Asset:  common.HexToAddress(b.Asset),
			Holder: common.HexToAddress(b.Holder),
			Amount: amount,
		})
	}

	allowances, err := r.balances.AllAllowances(ctx)
	if err != nil {
		return nil, err
	}

	for _, a := range allowances {
		amount, err := uint256.FromDecimal(a.Amount)
		if err != nil {
			return nil, err
		}

		state.Allowances = append(state.Allowances, &core.Allowance{
			Asset:   common.HexToAddress(a.Asset),
			Owner:   common.HexToAddress(a.Owner),
			Spender: common.HexToAddress(a.Spender),
			Amount:  amount,
		})
	}

	last, err := r.operations.Last(ctx)
	if err != nil {
		return nil, err
	}

	if last.AccrualIndex != "" {
		if state.AccrualIndex, err = uint256.FromDecimal(last.AccrualIndex); err != nil {
			return nil, err
		}
		state.AccruedAt = last.AccruedAt
	}
	state.Nonce = last.Nonce

	return state, nil
}

// Empty nothing was recorded yet
func (s *State) Empty() bool {
	return len(s.Assets) == 0 && len(s.Balances) == 0 && s.AccrualIndex == nil
}
