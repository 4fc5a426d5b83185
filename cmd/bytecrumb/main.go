// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/n42blockchain/bytecrumb/conf"
	"github.com/n42blockchain/bytecrumb/internal/compiler"
	"github.com/n42blockchain/bytecrumb/internal/report"
	"github.com/n42blockchain/bytecrumb/internal/service"
	"github.com/n42blockchain/bytecrumb/internal/skills"
	"github.com/n42blockchain/bytecrumb/log"
)

var (
	configFlag = &cli.StringFlag{Name: "config", Usage: "path to a YAML config file", Category: "CONFIG"}

	destPathFlag = &cli.StringFlag{Name: "dest-path", Usage: "output artifact directory", Category: "CONFIG"}
	inputPathFlag = &cli.StringFlag{Name: "input-path", Usage: "compiled-artifact input directory", Category: "CONFIG"}
	listenAddrFlag = &cli.StringFlag{Name: "listen-addr", Usage: "RPC listen address", Category: "RPC"}
	timeoutFlag   = &cli.IntFlag{Name: "timeout", Usage: "per-analysis wall-clock budget, seconds", Category: "CONFIG"}
	debugFlag     = &cli.BoolFlag{Name: "debug", Usage: "enable the report writer's .dot export (not called by the analysis services)", Category: "CONFIG"}
	tagsFlag      = &cli.BoolFlag{Name: "tags", Usage: "load the sibling skills_tag.yaml catalog", Category: "CONFIG"}
)

func main() {
	app := &cli.App{
		Name:  "bytecrumb",
		Usage: "EVM bytecode + Solidity source change-impact analyzer",
		Flags: []cli.Flag{configFlag, destPathFlag, inputPathFlag, listenAddrFlag, timeoutFlag, debugFlag, tagsFlag},
		Action: serveAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveAction(c *cli.Context) error {
	cfg := conf.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := conf.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if v := c.String("dest-path"); v != "" {
		cfg.DestPath = v
	}
	if v := c.String("input-path"); v != "" {
		cfg.InputPath = v
	}
	if v := c.String("listen-addr"); v != "" {
		cfg.ListenAddr = v
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Int("timeout")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("tags") {
		cfg.Tags = c.Bool("tags")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Init(cfg.Logger)
	log.Info("starting bytecrumb", "listen_addr", cfg.ListenAddr, "dest_path", cfg.DestPath)

	writer := report.New(cfg.DestPath, cfg.Debug)

	var catalog *skills.Catalog
	if cfg.Tags {
		catalogPath := filepath.Join(cfg.InputPath, "skills_tag.yaml")
		loaded, err := skills.Load(catalogPath)
		if err != nil {
			log.Error("loading skills catalog failed, tag_src disabled", "path", catalogPath, "err", err)
		} else {
			catalog = loaded
		}
	}

	evmSvc := service.NewEVMService(compiler.FileFrontend{}, writer, cfg.ASTAbstracts, cfg.CFGAbstracts, cfg.SSGAbstracts, catalog, time.Duration(cfg.Timeout)*time.Second)
	sourceSvc := service.NewSourceService(writer, cfg.ASTAbstracts)

	mux := http.NewServeMux()
	mux.Handle("/evm", http.TimeoutHandler(service.HTTPHandler(evmSvc.Analyze), cfg.RequestTimeout, "request timed out"))
	mux.Handle("/source", http.TimeoutHandler(service.HTTPHandler(sourceSvc.Analyze), cfg.RequestTimeout, "request timed out"))

	log.Info("bytecrumb listening", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Crit("http server failed", "err", err)
	}
	return nil
}
