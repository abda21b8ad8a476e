package rest

import (
	"leverage/core"
	"leverage/handler/auth"
	"leverage/handler/param"
	"leverage/handler/render"
	"leverage/handler/views"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

func positionsHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decimals := cfg.Engine.Underlying.Decimals
		positions := engine.Positions(r.Context())

		list := make([]views.Position, 0, len(positions))
		for _, p := range positions {
			list = append(list, views.PositionView(p, decimals))
		}

		render.JSON(w, list)
	}
}

func positionHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := pathAddress(r, "owner")
		if err != nil {
			render.Error(w, err)
			return
		}

		renderPosition(w, r, cfg, engine, owner)
	}
}

func renderPosition(w http.ResponseWriter, r *http.Request, cfg *core.Config, engine core.IEngine, owner common.Address) {
	p, err := engine.Position(r.Context(), owner)
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, views.PositionView(p, cfg.Engine.Underlying.Decimals))
}

func healthHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := pathAddress(r, "owner")
		if err != nil {
			render.Error(w, err)
			return
		}

		v, err := engine.Valuation(r.Context(), owner)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.HealthView(owner.Hex(), v, cfg.Engine.Underlying.Decimals))
	}
}

func openHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.Caller(w, r)
		if !ok {
			return
		}

		var body struct {
			OnBehalfOf string          `json:"on_behalf_of" valid:"address"`
			Amount     decimal.Decimal `json:"amount"`
			Leverage   uint64          `json:"leverage"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		onBehalfOf := caller
		if body.OnBehalfOf != "" {
			onBehalfOf = common.HexToAddress(body.OnBehalfOf)
		}

		amount, err := ledgerAmount(cfg, underlying(cfg), body.Amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		p, err := engine.OpenPosition(r.Context(), caller, onBehalfOf, amount, body.Leverage)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.PositionView(p, cfg.Engine.Underlying.Decimals))
	}
}

func multicallHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.Caller(w, r)
		if !ok {
			return
		}

		if _, err := pathOwner(r, caller); err != nil {
			render.Error(w, err)
			return
		}

		var body struct {
			Calls []call `json:"calls"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		calls, err := decodeCalls(body.Calls)
		if err != nil {
			render.Error(w, err)
			return
		}

		if err := engine.Multicall(r.Context(), caller, calls); err != nil {
			render.Error(w, err)
			return
		}

		renderPosition(w, r, cfg, engine, caller)
	}
}

type settleBody struct {
	To    string `json:"to" valid:"address"`
	Calls []call `json:"calls"`
}

func closeHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.Caller(w, r)
		if !ok {
			return
		}

		if _, err := pathOwner(r, caller); err != nil {
			render.Error(w, err)
			return
		}

		var body settleBody
		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		calls, err := decodeCalls(body.Calls)
		if err != nil {
			render.Error(w, err)
			return
		}

		to := caller
		if body.To != "" {
			to = common.HexToAddress(body.To)
		}

		s, err := engine.ClosePosition(r.Context(), caller, to, calls)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.SettlementView(s, cfg.Engine.Underlying.Decimals))
	}
}

func liquidateHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.Caller(w, r)
		if !ok {
			return
		}

		owner, err := pathAddress(r, "owner")
		if err != nil {
			render.Error(w, err)
			return
		}

		var body settleBody
		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		calls, err := decodeCalls(body.Calls)
		if err != nil {
			render.Error(w, err)
			return
		}

		to := caller
		if body.To != "" {
			to = common.HexToAddress(body.To)
		}

		s, err := engine.LiquidatePosition(r.Context(), caller, owner, to, calls)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.SettlementView(s, cfg.Engine.Underlying.Decimals))
	}
}

func addCollateralHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.Caller(w, r)
		if !ok {
			return
		}

		// anyone may fund a position
		owner, err := pathAddress(r, "owner")
		if err != nil {
			render.Error(w, err)
			return
		}

		var body struct {
			Asset  string          `json:"asset" valid:"address,required"`
			Amount decimal.Decimal `json:"amount"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		asset := common.HexToAddress(body.Asset)
		amount, err := ledgerAmount(cfg, asset, body.Amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		if err := engine.AddCollateral(r.Context(), caller, owner, asset, amount); err != nil {
			render.Error(w, err)
			return
		}

		renderPosition(w, r, cfg, engine, owner)
	}
}

func increaseDebtHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.Caller(w, r)
		if !ok {
			return
		}

		if _, err := pathOwner(r, caller); err != nil {
			render.Error(w, err)
			return
		}

		var body struct {
			Amount decimal.Decimal `json:"amount"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		amount, err := ledgerAmount(cfg, underlying(cfg), body.Amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		if err := engine.IncreaseDebt(r.Context(), caller, amount); err != nil {
			render.Error(w, err)
			return
		}

		renderPosition(w, r, cfg, engine, caller)
	}
}

func transferHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.Caller(w, r)
		if !ok {
			return
		}

		if _, err := pathOwner(r, caller); err != nil {
			render.Error(w, err)
			return
		}

		var body struct {
			NewOwner string `json:"new_owner" valid:"address,required"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		newOwner := common.HexToAddress(body.NewOwner)
		if err := engine.TransferOwnership(r.Context(), caller, newOwner); err != nil {
			render.Error(w, err)
			return
		}

		renderPosition(w, r, cfg, engine, newOwner)
	}
}
