package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
)

var orderFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "user",
		Usage:    "address paying for the order",
		Required: true,
	},
	&cli.StringFlag{
		Name:     "market",
		Usage:    "market token id",
		Required: true,
	},
	&cli.StringFlag{
		Name:  "side",
		Usage: "buy or sell",
		Value: string(escrow.SideBuy),
	},
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
	chainFlag,
}

var (
	orderID = cli.Command{
		Name:  "order-id",
		Usage: "compute the identifier of an order",
		Flags: append(orderFlags, &cli.Int64Flag{
			Name:  "timestamp",
			Usage: "unix milliseconds, defaults to now",
		}),
		Action: orderIDAction,
	}

	verifyOrderID = cli.Command{
		Name:  "verify-order-id",
		Usage: "check an order identifier against the order it names",
		Flags: append(orderFlags,
			&cli.StringFlag{
				Name:     "id",
				Usage:    "order identifier to check",
				Required: true,
			},
			&cli.Int64Flag{
				Name:     "timestamp",
				Usage:    "unix milliseconds the identifier was generated at",
				Required: true,
			},
		),
		Action: verifyOrderIDAction,
	}
)

func orderParams(ctx *cli.Context) (escrow.OrderParams, error) {
	side, err := escrow.ParseSide(ctx.String("side"))
	if err != nil {
		return escrow.OrderParams{}, err
	}
	ts := ctx.Int64("timestamp")
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	return escrow.OrderParams{
		UserAddress: ctx.String("user"),
		MarketID:    ctx.String("market"),
		Side:        side,
		Size:        escrow.CalculateOrderSize(ctx.Float64("size"), ctx.Float64("price")),
		Price:       ctx.Float64("price"),
		Timestamp:   ts,
		ChainID:     ctx.Int64("chain"),
	}, nil
}

func orderIDAction(ctx *cli.Context) error {
	p, err := orderParams(ctx)
	if err != nil {
		return err
	}
	id, err := escrow.GenerateOrderID(p)
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]interface{}{
		"orderId":   id,
		"orderSize": p.Size.String(),
		"timestamp": p.Timestamp,
	})
}

func verifyOrderIDAction(ctx *cli.Context) error {
	p, err := orderParams(ctx)
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]interface{}{
		"orderId": ctx.String("id"),
		"valid":   escrow.VerifyOrderID(ctx.String("id"), p),
	})
}
