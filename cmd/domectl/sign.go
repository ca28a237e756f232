package main

import (
	"github.com/urfave/cli/v2"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
	"github.com/domeapi/dome-escrow-router/internal/wallet"
)

var (
	sign = cli.Command{
		Name:  "sign",
		Usage: "sign a fee authorization with a private key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "key",
				Usage:    "hex encoded private key",
				EnvVars:  []string{"DOME_PRIVATE_KEY"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "order-id",
				Usage:    "order identifier",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "payer",
				Usage: "address paying the fee, defaults to the key's address",
			},
			&cli.StringFlag{
				Name:     "fee",
				Usage:    "fee in USDC base units",
				Required: true,
			},
			&cli.Int64Flag{
				Name:  "deadline-seconds",
				Usage: "validity of the authorization",
				Value: escrow.DefaultDeadlineSeconds,
			},
			escrowFlag,
			chainFlag,
		},
		Action: signAction,
	}

	verify = cli.Command{
		Name:  "verify",
		Usage: "check the signer of a fee authorization",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "order-id", Usage: "order identifier", Required: true},
			&cli.StringFlag{Name: "payer", Usage: "address paying the fee", Required: true},
			&cli.StringFlag{Name: "fee", Usage: "fee in USDC base units", Required: true},
			&cli.Int64Flag{Name: "deadline", Usage: "unix seconds", Required: true},
			&cli.StringFlag{Name: "signature", Usage: "hex encoded signature", Required: true},
			&cli.StringFlag{Name: "signer", Usage: "expected signer", Required: true},
			escrowFlag,
			chainFlag,
		},
		Action: verifyAction,
	}
)

func signAction(ctx *cli.Context) error {
	account, err := wallet.NewKeyAccountFromHex(ctx.String("key"))
	if err != nil {
		return err
	}
	signer, err := account.Address(ctx.Context)
	if err != nil {
		return err
	}
	payer := ctx.String("payer")
	if payer == "" {
		payer = signer.Hex()
	}
	amount, err := parseAmount(ctx.String("fee"))
	if err != nil {
		return err
	}

	auth, err := escrow.NewFeeAuthorization(ctx.String("order-id"), payer, amount, ctx.Int64("deadline-seconds"))
	if err != nil {
		return err
	}
	domain, err := escrow.NewDomain(ctx.String("escrow"), ctx.Int64("chain"))
	if err != nil {
		return err
	}
	signed, err := escrow.SignWithSigner(ctx.Context, account, domain, auth)
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]interface{}{
		"signer":  signer.Hex(),
		"feeAuth": message.NewFeeAuth(signed),
	})
}

func verifyAction(ctx *cli.Context) error {
	amount, err := parseAmount(ctx.String("fee"))
	if err != nil {
		return err
	}
	signed := escrow.SignedFeeAuthorization{
		FeeAuthorization: escrow.FeeAuthorization{
			OrderID:   ctx.String("order-id"),
			Payer:     ctx.String("payer"),
			FeeAmount: amount,
			Deadline:  ctx.Int64("deadline"),
		},
		Signature: ctx.String("signature"),
	}

	out := map[string]interface{}{
		"valid": escrow.VerifySignature(signed, ctx.String("escrow"), ctx.Int64("chain"), ctx.String("signer")),
	}
	if recovered, err := escrow.RecoverSigner(signed, ctx.String("escrow"), ctx.Int64("chain")); err == nil {
		out["recovered"] = recovered.Hex()
	}
	return printJSON(ctx, out)
}
