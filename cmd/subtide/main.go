// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/subtide/subtide/fixed"
	"github.com/subtide/subtide/kv"
	"github.com/subtide/subtide/ledger"
	"github.com/subtide/subtide/log"
	"github.com/subtide/subtide/staking"
	"github.com/subtide/subtide/subtide"
)

var (
	version   string
	gitCommit string
)

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%.8s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "subtide",
		Usage:     "Inspect and maintain a subtide staking ledger",
		Copyright: "2025 The Subtide developers",
		Flags: []cli.Flag{
			dataDirFlag,
			verbosityFlag,
		},
		Commands: []cli.Command{
			{
				Name:   "subnets",
				Usage:  "list every subnet with its pool state",
				Flags:  []cli.Flag{dataDirFlag, verbosityFlag},
				Action: subnetsAction,
			},
			{
				Name:   "price",
				Usage:  "print the spot and moving price of a subnet",
				Flags:  []cli.Flag{dataDirFlag, verbosityFlag, netuidFlag},
				Action: priceAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".subtide"
	}
	return filepath.Join(home, ".subtide")
}

func initLogger(ctx *cli.Context) {
	level := slog.Level(8 - 4*ctx.Int(verbosityFlag.Name))
	w := os.Stderr
	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		log.SetDefault(log.NewTerminalHandler(w, level))
	} else {
		log.SetDefault(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
}

// openEngine opens the ledger database read-only style: the CLI never
// mutates staking state, it only reads it.
func openEngine(ctx *cli.Context) (*staking.Engine, func(), error) {
	dir := ctx.String(dataDirFlag.Name)
	store, err := kv.NewPersistent(filepath.Join(dir, "ledger.db"), 128, 512)
	if err != nil {
		return nil, nil, err
	}
	engine := staking.New(ledger.NewContext(store), staking.DefaultParams(), staking.Hooks{}, 0, subtide.Bytes32{})
	return engine, func() { store.Close() }, nil
}

func subnetsAction(ctx *cli.Context) error {
	initLogger(ctx)
	engine, close, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer close()

	netuids, err := engine.Netuids()
	if err != nil {
		return err
	}
	for _, netuid := range netuids {
		sub, err := engine.Subnet(netuid)
		if err != nil {
			return err
		}
		fmt.Printf("subnet %d (%s)\n", sub.Netuid, sub.Mechanism)
		fmt.Printf("  tao reserve   %d\n", sub.TaoReserve)
		fmt.Printf("  alpha in      %d\n", sub.AlphaIn)
		fmt.Printf("  alpha out     %d\n", sub.AlphaOut)
		fmt.Printf("  volume        %s\n", sub.Volume)
		fmt.Printf("  subtoken      %v, transfers %v\n", sub.SubtokenEnabled, sub.TransferEnabled)
	}
	return nil
}

func priceAction(ctx *cli.Context) error {
	initLogger(ctx)
	engine, close, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer close()

	netuid := uint16(ctx.Uint(netuidFlag.Name))
	spot, err := engine.AlphaPrice(netuid)
	if err != nil {
		return err
	}
	moving, err := engine.MovingAlphaPrice(netuid)
	if err != nil {
		return err
	}
	issuance, err := engine.AlphaIssuance(netuid)
	if err != nil {
		return err
	}
	fmt.Printf("subnet %d\n", netuid)
	fmt.Printf("  spot price    %s tao/alpha\n", spot)
	fmt.Printf("  moving price  %s tao/alpha\n", moving)
	fmt.Printf("  issuance      %s alpha\n", fixed.FromU64(issuance).SafeDiv(fixed.FromU64(subtide.OneTao)))
	return nil
}
