package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "[domectl]", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "domectl"
	app.Usage = "compute and check Dome fee escrow order ids, fees and authorizations"
	app.Commands = append(
		app.Commands,
		&orderID,
		&verifyOrderID,
		&fee,
		&sign,
		&verify,
	)
	return app
}

var chainFlag = &cli.Int64Flag{
	Name:  "chain",
	Usage: "chain id",
	Value: escrow.DefaultChainID,
}

var escrowFlag = &cli.StringFlag{
	Name:  "escrow",
	Usage: "address of the fee escrow contract",
	Value: escrow.EscrowContractPolygon,
}

// printJSON writes v indented to the app's output.
func printJSON(ctx *cli.Context, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return errors.Wrap(err, "encoding output")
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(b))
	return err
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() < 0 {
		return nil, errors.Errorf("invalid amount %q, expected USDC base units", s)
	}
	return amount, nil
}
