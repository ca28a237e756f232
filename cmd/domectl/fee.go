package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
)

var fee = cli.Command{
	Name:  "fee",
	Usage: "preview the escrow fee of an order",
	Flags: []cli.Flag{
		&cli.Float64Flag{
			Name:     "size",
			Usage:    "order size in shares",
			Required: true,
		},
		&cli.Float64Flag{
			Name:     "price",
			Usage:    "price between 0 and 1",
			Required: true,
		},
		&cli.Int64Flag{
			Name:  "bps",
			Usage: "fee in basis points",
			Value: escrow.DefaultFeeBps,
		},
	},
	Action: feeAction,
}

func feeAction(ctx *cli.Context) error {
	bps := ctx.Int64("bps")
	if bps < 0 || bps > escrow.BasisPointsDenominator {
		return errors.Errorf("fee of %d bps out of range", bps)
	}
	size := escrow.CalculateOrderSize(ctx.Float64("size"), ctx.Float64("price"))
	amount := escrow.CalculateFee(size, bps)
	return printJSON(ctx, map[string]interface{}{
		"orderSize": size.String(),
		"fee":       amount.String(),
		"formatted": escrow.FormatUSDC(amount),
		"rate":      escrow.FormatBps(bps),
	})
}
