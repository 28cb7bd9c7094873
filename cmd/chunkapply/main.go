// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Command chunkapply drives runtime.ApplyGenesisState followed by a
// recorded sequence of runtime.Apply calls read from JSON fixtures, for
// manual inspection and integration testing of the engine outside of any
// real network. It optionally serves the result over rpc.Server.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/urfave/cli.v1"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/ethdb"
	"github.com/m8ttyB/nearcore/executor"
	"github.com/m8ttyB/nearcore/logger"
	"github.com/m8ttyB/nearcore/logger/glog"
	"github.com/m8ttyB/nearcore/rpc"
	"github.com/m8ttyB/nearcore/runtime"
	"github.com/m8ttyB/nearcore/trie"
)

var (
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to a genesis fixture JSON file",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log verbosity, 0 (silent) through 5 (detail)",
		Value: int(logger.Info),
	}
	serveFlag = cli.BoolFlag{
		Name:  "serve",
		Usage: "after replaying every chunk, serve the resulting state over rpc",
	}
	addrFlag = cli.StringFlag{
		Name:  "addr",
		Usage: "listen address for --serve",
		Value: ":8645",
	}
	datadirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "leveldb directory to back the trie store; defaults to an in-memory store",
	}
	snapshotFlag = cli.StringFlag{
		Name:  "snapshot",
		Usage: "after replaying every chunk, copy --datadir into a fresh leveldb store at this path",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "chunkapply"
	app.Usage = "replay genesis + chunk fixtures through the chunk-apply engine"
	app.Flags = []cli.Flag{genesisFlag, verbosityFlag, serveFlag, addrFlag, datadirFlag, snapshotFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "chunkapply:", err)
		os.Exit(1)
	}
}

// run loads genesis, replays every chunk fixture named on the command
// line in order, and optionally serves the final state. Chunk fixture
// paths are passed as repeated --chunk flags; cli.v1 has no slice flag
// type, so pflag parses the remaining, unrecognized arguments on its own
// once cli.v1 has consumed its declared flags.
func run(ctx *cli.Context) error {
	logger.SetVerbosity(logger.LogLevel(ctx.Int(verbosityFlag.Name)))

	chunkPaths, err := parseChunkFlags(ctx.Args())
	if err != nil {
		return err
	}
	if ctx.String(genesisFlag.Name) == "" {
		return fmt.Errorf("missing required --genesis flag")
	}

	var db ethdb.Database
	var ldb *ethdb.LDBDatabase
	if dir := ctx.String(datadirFlag.Name); dir != "" {
		var err error
		ldb, err = ethdb.NewLDBDatabase(dir, 0, 0)
		if err != nil {
			return fmt.Errorf("opening --datadir %s: %w", dir, err)
		}
		defer ldb.Close()
		db = ldb
	} else {
		db = ethdb.NewMemDatabase()
	}
	state := runtime.NewState(trie.NewTrieUpdate(db, common.Hash{}))

	cfg := config.DefaultRuntimeConfig()

	g, err := loadGenesisFixture(ctx.String(genesisFlag.Name))
	if err != nil {
		return err
	}
	validators, records, err := toStateRecords(g)
	if err != nil {
		return err
	}
	changes, err := runtime.ApplyGenesisState(state, cfg, validators, records)
	if err != nil {
		return fmt.Errorf("applying genesis state: %w", err)
	}
	glog.V(logger.Info).Infof("chunkapply: genesis loaded, root=%s, %d insertions", changes.NewRoot, len(changes.Insertions))

	server := rpc.NewServer(state)
	contract := executor.NewStub()

	for _, path := range chunkPaths {
		c, err := loadChunkFixture(path)
		if err != nil {
			return err
		}
		as, receipts, err := toApplyState(c)
		if err != nil {
			return err
		}

		result, err := runtime.Apply(state, cfg, contract, nil, as, nil, receipts, nil, nil)
		if err != nil {
			return fmt.Errorf("applying chunk %s: %w", path, err)
		}
		glog.V(logger.Info).Infof("chunkapply: %s applied, %d outcomes, root=%s", path, len(result.Outcomes), result.StateRoot)
		server.Feed().PublishAll(state.CommittedUpdatesPerCause())
	}

	if dest := ctx.String(snapshotFlag.Name); dest != "" {
		if ldb == nil {
			return fmt.Errorf("--snapshot requires --datadir (there is nothing to snapshot from an in-memory store)")
		}
		if err := exportSnapshot(ldb, dest); err != nil {
			return fmt.Errorf("exporting snapshot to %s: %w", dest, err)
		}
		glog.V(logger.Info).Infof("chunkapply: snapshot written to %s", dest)
	}

	if !ctx.Bool(serveFlag.Name) {
		return nil
	}

	addr := ctx.String(addrFlag.Name)
	glog.V(logger.Info).Infof("chunkapply: serving state on %s", addr)
	return http.ListenAndServe(addr, server.Handler())
}

func parseChunkFlags(args cli.Args) ([]string, error) {
	fs := pflag.NewFlagSet("chunkapply", pflag.ContinueOnError)
	chunks := fs.StringArray("chunk", nil, "path to a chunk fixture JSON file, repeatable, applied in order")
	if err := fs.Parse([]string(args)); err != nil {
		return nil, fmt.Errorf("parsing --chunk flags: %w", err)
	}
	return *chunks, nil
}
