package rest

import (
	"leverage/core"
	"leverage/handler/auth"
	"leverage/handler/param"
	"leverage/handler/render"
	"leverage/handler/views"
	"leverage/pkg/number"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

func assetsHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets := engine.Assets(r.Context())

		list := make([]views.Asset, 0, len(assets))
		for _, a := range assets {
			list = append(list, views.AssetView(a, symbolOf(cfg, a.AssetID)))
		}

		render.JSON(w, list)
	}
}

func registerAssetHandler(engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.Caller(w, r)
		if !ok {
			return
		}

		var body struct {
			Asset     string `json:"asset" valid:"address,required"`
			Threshold uint16 `json:"threshold"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		mask, err := engine.RegisterAsset(r.Context(), caller, common.HexToAddress(body.Asset), body.Threshold)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{"mask": mask.Hex()})
	}
}

func setThresholdHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.Caller(w, r)
		if !ok {
			return
		}

		asset, err := pathAddress(r, "asset")
		if err != nil {
			render.Error(w, err)
			return
		}

		var body struct {
			Threshold uint16 `json:"threshold"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		if err := engine.SetThreshold(r.Context(), caller, asset, body.Threshold); err != nil {
			render.Error(w, err)
			return
		}

		for _, a := range engine.Assets(r.Context()) {
			if a.AssetID == asset {
				render.JSON(w, views.AssetView(a, symbolOf(cfg, asset)))
				return
			}
		}

		render.Error(w, core.ErrUnknownAsset)
	}
}

func approveHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.Caller(w, r)
		if !ok {
			return
		}

		var body struct {
			Asset   string          `json:"asset" valid:"address,required"`
			Spender string          `json:"spender" valid:"address"`
			Amount  decimal.Decimal `json:"amount"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		spender := engine.Address()
		if body.Spender != "" {
			spender = common.HexToAddress(body.Spender)
		}

		asset := common.HexToAddress(body.Asset)
		amount, err := ledgerAmount(cfg, asset, body.Amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		if err := engine.Approve(r.Context(), caller, asset, spender, amount); err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.Allowance{
			Asset:   asset.Hex(),
			Owner:   caller.Hex(),
			Spender: spender.Hex(),
			Amount:  body.Amount,
		})
	}
}

func debtHandler(cfg *core.Config, engine core.IEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decimals := int32(cfg.Engine.Underlying.Decimals)
		total := engine.TotalDebt(r.Context())

		render.JSON(w, render.H{
			"current": number.ToDecimal(total.Current, decimals),
			"limit":   number.ToDecimal(total.Limit, decimals),
		})
	}
}
