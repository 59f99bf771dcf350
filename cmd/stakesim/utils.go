// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/genesis"
	"github.com/vechain/collator-staking/log"
	"github.com/vechain/collator-staking/logdb"
	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/metrics"
	"github.com/vechain/collator-staking/thor"
)

func initLogger(ctx *cli.Context) *slog.LevelVar {
	logLevel := log.FromLegacyLevel(int(ctx.Uint64(verbosityFlag.Name)))
	levelVar := new(slog.LevelVar)
	levelVar.Set(logLevel)

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, levelVar)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, levelVar, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return levelVar
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return genesis.NewDevnet(), nil
	}
	gene, err := genesis.LoadCustomNet(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load genesis from '%v'", path)
	}
	return gene, nil
}

// openDatabases opens the state and event databases under the data dir, or in memory if none is given.
func openDatabases(ctx *cli.Context) (*lvldb.LevelDB, *logdb.LogDB, string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		logDB, err := logdb.NewMem()
		if err != nil {
			return nil, nil, "", errors.Wrap(err, "open log database")
		}
		return lvldb.NewMem(), logDB, "Memory", nil
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, nil, "", errors.Wrapf(err, "create data dir at '%v'", dataDir)
	}

	dir := filepath.Join(dataDir, "main.db")
	mainDB, err := lvldb.New(dir, lvldb.Options{CacheSize: 128, OpenFilesCacheCapacity: 64})
	if err != nil {
		return nil, nil, "", errors.Wrapf(err, "open main database at '%v'", dir)
	}

	path := filepath.Join(dataDir, "logs.db")
	logDB, err := logdb.New(path)
	if err != nil {
		mainDB.Close()
		return nil, nil, "", errors.Wrapf(err, "open log database at '%v'", path)
	}
	return mainDB, logDB, dataDir, nil
}

func metricsHandler() http.Handler {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	return handlers.CompressHandler(router)
}

// startServer serves handler on addr inside the group. The server is closed once ctx is done.
func startServer(ctx context.Context, group *errgroup.Group, addr string, handler http.Handler) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "listen addr [%v]", addr)
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	group.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		return srv.Close()
	})
	return "http://" + listener.Addr().String(), nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(network string, head uint64, dataDir, apiURL, metricsURL, adminURL string) {
	orNone := func(s string) string {
		if s == "" {
			return "disabled"
		}
		return s
	}
	fmt.Printf(`Starting %v
    Network      [ %v ]
    Head block   [ #%v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
    Admin        [ %v ]
`,
		"Stakesim/"+fullVersion(),
		network,
		head,
		dataDir,
		apiURL,
		orNone(metricsURL),
		orNone(adminURL))
}

func printStats(stats Stats) {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.name)
	}
	slices.Sort(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%-30s %10s %10s %10s\n", "action", "applied", "refused", "skipped")
	for _, name := range names {
		fmt.Fprintf(&b, "%-30s %10d %10d %10d\n", name, stats.Applied[name], stats.Refused[name], stats.Skipped[name])
	}
	fmt.Print(b.String())
}

type stateDump struct {
	Head         uint64
	Round        uint32
	RoundFirst   uint64
	TotalLocked  *big.Int
	Selected     []thor.Address
	Pool         []delegation.Bond
	Delegators   int
	LastSnapshot map[thor.Address]*big.Int
}

// dumpState prints a summary of the committed staking state.
func dumpState(w io.Writer, sim *Simulator) error {
	stk := sim.View()

	rnd, err := stk.Round()
	if err != nil {
		return err
	}
	locked, err := stk.TotalLocked()
	if err != nil {
		return err
	}
	selected, err := stk.SelectedCandidates()
	if err != nil {
		return err
	}
	pool, err := stk.CandidatePool()
	if err != nil {
		return err
	}
	delegators, err := stk.Delegators()
	if err != nil {
		return err
	}

	snapshots := make(map[thor.Address]*big.Int, len(selected))
	for _, addr := range selected {
		snap, err := stk.Snapshot(rnd.Current, addr)
		if err != nil {
			return err
		}
		if snap != nil {
			snapshots[addr] = snap.Total
		}
	}

	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
	cfg.Fdump(w, &stateDump{
		Head:         sim.Head(),
		Round:        rnd.Current,
		RoundFirst:   rnd.First,
		TotalLocked:  locked,
		Selected:     selected,
		Pool:         pool,
		Delegators:   len(delegators),
		LastSnapshot: snapshots,
	})
	return nil
}
