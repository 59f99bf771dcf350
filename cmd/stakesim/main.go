// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/collator-staking/api"
	"github.com/vechain/collator-staking/api/admin"
	"github.com/vechain/collator-staking/log"
	"github.com/vechain/collator-staking/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "stakesim")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Stakesim",
		Usage:     "Block driver for the collator staking engine",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			blocksFlag,
			blockIntervalFlag,
			opsPerBlockFlag,
			seedFlag,
			checkInvariantsFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			dumpFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	mainDB, logDB, dataDir, err := openDatabases(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	sim, err := NewSimulator(mainDB, logDB, gene, Options{
		OpsPerBlock:     int(ctx.Uint64(opsPerBlockFlag.Name)),
		Seed:            ctx.Uint64(seedFlag.Name),
		CheckInvariants: ctx.Bool(checkInvariantsFlag.Name),
	})
	if err != nil {
		return err
	}

	apiLogs := new(atomic.Bool)
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	group, groupCtx := errgroup.WithContext(exitSignal)

	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		if metricsURL, err = startServer(groupCtx, group, ctx.String(metricsAddrFlag.Name), metricsHandler()); err != nil {
			return errors.Wrap(err, "start metrics server")
		}
		metricsURL += "/metrics"
	}

	adminURL := ""
	if ctx.Bool(enableAdminFlag.Name) {
		if adminURL, err = startServer(groupCtx, group, ctx.String(adminAddrFlag.Name), admin.New(logLevel, apiLogs)); err != nil {
			return errors.Wrap(err, "start admin server")
		}
		adminURL += "/admin"
	}

	apiHandler := api.New(
		sim.stater,
		gene.Config(),
		gene.ExistentialDeposit(),
		logDB,
		api.Options{
			AllowedOrigins:  ctx.String(apiCorsFlag.Name),
			PprofOn:         ctx.Bool(pprofFlag.Name),
			EnableReqLogger: apiLogs,
			EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
			EventsLimit:     ctx.Uint64(apiEventsLimitFlag.Name),
		},
	)
	apiURL, err := startServer(groupCtx, group, ctx.String(apiAddrFlag.Name), apiHandler)
	if err != nil {
		return errors.Wrap(err, "start API server")
	}

	printStartupMessage(gene.Name(), sim.Head(), dataDir, apiURL, metricsURL, adminURL)

	blocks := ctx.Uint64(blocksFlag.Name)
	interval := ctx.Duration(blockIntervalFlag.Name)
	group.Go(func() error {
		var onBlock func(uint64)
		if blocks > 0 && interval == 0 && !ctx.Bool(jsonLogsFlag.Name) {
			bar := pb.New64(int64(blocks)).SetMaxWidth(90).Start()
			defer func() { bar.NotPrint = true }()
			onBlock = func(uint64) { bar.Increment() }
			defer bar.Finish()
		}

		if err := sim.Run(groupCtx, blocks, interval, onBlock); err != nil {
			return err
		}
		logger.Info("simulation done", "head", sim.Head())
		if ctx.Bool(dumpFlag.Name) {
			if err := dumpState(os.Stdout, sim); err != nil {
				return err
			}
		}
		printStats(sim.Stats())
		return nil
	})

	return group.Wait()
}
