package main

import (
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

// make-envelope builds an unsigned three-layer envelope for exercising the
// signing pipeline without a full client runtime.
func main() {
	app := &cli.App{
		Name:  "make-envelope",
		Usage: "Build an unsigned Meridian transaction envelope",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Destination address",
				Required: true,
			},
			&cli.Uint64Flag{
				Name:     "sequence",
				Aliases:  []string{"seq"},
				Usage:    "Sender sequence counter",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "value",
				Usage: "Transfer value (decimal)",
				Value: "0",
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "Hex-encoded call input",
				Value: "0x",
			},
			&cli.Uint64Flag{
				Name:  "gas-limit",
				Usage: "Gas limit for the transaction envelope",
				Value: 100000,
			},
			&cli.Uint64Flag{
				Name:  "expiry",
				Usage: "Expiry block for the transaction envelope (0 = none)",
			},
		},
		Action: runMakeEnvelope,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runMakeEnvelope(c *cli.Context) error {
	if !common.IsHexAddress(c.String("to")) {
		return fmt.Errorf("invalid destination address: %s", c.String("to"))
	}

	value, ok := new(big.Int).SetString(c.String("value"), 10)
	if !ok {
		return fmt.Errorf("invalid value: %s", c.String("value"))
	}

	input, err := hexutil.Decode(c.String("data"))
	if err != nil {
		return fmt.Errorf("invalid call input: %w", err)
	}

	envelopeBytes, err := buildEnvelope(
		common.HexToAddress(c.String("to")),
		value,
		input,
		c.Uint64("gas-limit"),
		c.Uint64("expiry"),
		c.Uint64("sequence"),
	)
	if err != nil {
		return err
	}

	fmt.Println(hexutil.Encode(envelopeBytes))
	return nil
}
