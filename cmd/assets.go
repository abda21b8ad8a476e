package cmd

import (
	"leverage/core"
	"leverage/handler/views"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/yiplee/structs"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "list registered collateral assets",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		w := provideWorld(ctx, database)
		for _, a := range w.Engine.Assets(ctx) {
			symbol := ""
			if c, ok := provideConfig().AssetByAddress(a.AssetID.Hex()); ok {
				symbol = c.Symbol
			}

			cmd.Println(structs.Map(views.AssetView(a, symbol)))
		}
	},
}

var assetsRegisterCmd = &cobra.Command{
	Use:   "register <asset> <threshold>",
	Short: "register a collateral asset as the configurator",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		asset, threshold, err := assetArgs(args)
		if err != nil {
			cmd.PrintErrln(err)
			return
		}

		database := provideDatabase()
		defer database.Close()

		w := provideWorld(ctx, database)
		mask, err := w.Engine.RegisterAsset(ctx, common.HexToAddress(cfg.Engine.Configurator), asset, threshold)
		if err != nil {
			log.WithError(err).Errorln("RegisterAsset")
			return
		}

		cmd.Println("registered", asset.Hex(), "mask", mask.Hex())
	},
}

var assetsThresholdCmd = &cobra.Command{
	Use:   "threshold <asset> <threshold>",
	Short: "update the liquidation threshold of an asset",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		asset, threshold, err := assetArgs(args)
		if err != nil {
			cmd.PrintErrln(err)
			return
		}

		database := provideDatabase()
		defer database.Close()

		w := provideWorld(ctx, database)
		if err := w.Engine.SetThreshold(ctx, common.HexToAddress(cfg.Engine.Configurator), asset, threshold); err != nil {
			log.WithError(err).Errorln("SetThreshold")
			return
		}

		cmd.Println("threshold of", asset.Hex(), "set to", threshold)
	},
}

func assetArgs(args []string) (common.Address, uint16, error) {
	if !core.IsAddress(args[0]) {
		return common.Address{}, 0, core.ErrUnknownAsset
	}

	threshold, err := cast.ToUint16E(args[1])
	if err != nil {
		return common.Address{}, 0, err
	}

	return common.HexToAddress(args[0]), threshold, nil
}

func init() {
	rootCmd.AddCommand(assetsCmd)
	assetsCmd.AddCommand(assetsRegisterCmd)
	assetsCmd.AddCommand(assetsThresholdCmd)
}
