package cmd

import (
	"leverage/core"
	"leverage/handler/views"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health [owner]",
	Short: "show the valuation of one or every open position",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		w := provideWorld(ctx, database)

		var owners []common.Address
		if len(args) > 0 {
			if !core.IsAddress(args[0]) {
				cmd.PrintErrln("invalid owner", args[0])
				return
			}
			owners = append(owners, common.HexToAddress(args[0]))
		} else {
			for _, p := range w.Engine.Positions(ctx) {
				owners = append(owners, p.Owner)
			}
		}

		for _, owner := range owners {
			v, err := w.Engine.Valuation(ctx, owner)
			if err != nil {
				cmd.PrintErrln(owner.Hex(), err)
				continue
			}

			h := views.HealthView(owner.Hex(), v, cfg.Engine.Underlying.Decimals)
			cmd.Printf("%s debt=%s total=%s health=%s liquidatable=%v\n", h.Owner, h.DebtWithInterest, h.TotalInUnderlying, h.HealthFactor, h.Liquidatable)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
