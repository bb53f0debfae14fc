/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command origin-server is the multi-site HTTP/HTTPS origin server's
// single executable (spec.md §1). It has no flags: the supervisor process
// forks worker processes that re-execute this same binary carrying
// supervisor.WorkerEnvVar in their environment (spec.md §4.1).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nabbar/origin-server/errors"
	"github.com/nabbar/origin-server/internal/config"
	"github.com/nabbar/origin-server/internal/filecache"
	"github.com/nabbar/origin-server/internal/listenerset"
	"github.com/nabbar/origin-server/internal/protocol/httpproto"
	"github.com/nabbar/origin-server/internal/protocol/httpsproto"
	"github.com/nabbar/origin-server/internal/reactor"
	"github.com/nabbar/origin-server/internal/sitedir"
	"github.com/nabbar/origin-server/internal/sniffer"
	"github.com/nabbar/origin-server/internal/supervisor"
	"github.com/nabbar/origin-server/internal/taskpool"
	"github.com/nabbar/origin-server/internal/tlsfactory"
	"github.com/nabbar/origin-server/logger"
	logcfg "github.com/nabbar/origin-server/logger/config"
	loglvl "github.com/nabbar/origin-server/logger/level"
)

const configPath = "config.yaml"

func main() {
	log := newLogger()

	if cfg, err := config.Load(configPath); err == nil {
		configureFileLogging(log, cfg)
	}

	if os.Getenv(supervisor.WorkerEnvVar) != "" {
		if err := runWorker(log); err != nil {
			log().Fatal("worker exited with error", err)
		}
		return
	}

	sup := supervisor.New(configPath, log)
	if err := sup.Run(); err != nil {
		log().Fatal("supervisor exited with error", err)
		os.Exit(1)
	}

	os.Exit(0)
}

func newLogger() logger.FuncLog {
	l := logger.New(context.Background())
	l.SetLevel(loglvl.InfoLevel)
	return func() logger.Logger { return l }
}

// configureFileLogging adds the file sink spec.md §6 requires ("a file
// server.log is appended"), using logger/config's OptionsFile with a
// permission parsed by file/perm (teacher: file/perm), rather than a bare
// os.FileMode literal. The sink appends only; it does not rotate the file.
func configureFileLogging(log logger.FuncLog, cfg *config.Config) {
	l := log()
	if l == nil {
		return
	}

	mode := cfg.LogFileModeParsed()

	_ = l.SetOptions(&logcfg.Options{
		InheritDefault: true,
		LogFile: logcfg.OptionsFiles{
			{
				Filepath:   cfg.LogFile,
				Create:     true,
				CreatePath: true,
				FileMode:   mode,
			},
		},
	})
}

// runWorker performs the per-worker wiring spec.md §2's data-flow diagram
// describes: open listeners, build the reactor with a sniff-then-dispatch
// pipeline, run until SIGTERM/SIGINT.
func runWorker(log logger.FuncLog) errors.Error {
	cfg, cfgErr := config.Load(configPath)
	if cfgErr != nil {
		return cfgErr
	}

	sites := sitedir.New(cfg)
	cache := filecache.New(cfg.CacheBudgetBytes)

	ports := sites.Ports()
	listeners, lsErr := listenerset.Setup(ports)
	if lsErr != nil {
		return lsErr
	}
	defer listeners.CloseAll()

	factory, tlsErr := tlsfactory.Load(cfg.CertificateFile, cfg.PrivateKeyFile)
	if tlsErr != nil {
		return tlsErr
	}

	httpHandler := httpproto.New(sites, cache)
	httpsHandler := httpsproto.New(factory, sites, cache)

	pool := taskpool.New(cfg.PerProcessMaxThreadCount)

	pipeline := buildPipeline(httpHandler, httpsHandler, log)

	r, rErr := reactor.New(listeners, pool, cfg.PerProcessMaxEvents, pipeline,
		reactor.WithCloseHook(func(fd int, port uint16, cause error) {
			if cause != nil {
				log().Error("connection closed with error (fd %d, port %d)", errors.New(0, cause.Error()), fd, port)
			}
		}),
	)
	if rErr != nil {
		return rErr
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	signal.Ignore(syscall.SIGPIPE)

	go func() {
		<-sigCh
		cancel()
	}()

	return r.Run(ctx)
}

// buildPipeline composes the protocol sniffer (run once per descriptor,
// spec.md §4.4) with the HTTP/HTTPS handlers it routes to.
func buildPipeline(httpHandler *httpproto.Handler, httpsHandler *httpsproto.Handler, log logger.FuncLog) reactor.Pipeline {
	return func(rec *reactor.Record) reactor.Outcome {
		sniffed, isTLS := rec.Sniffed()

		if !sniffed {
			proto, head, sErr := sniffer.Peek(rec.FD())
			if sErr != nil {
				log().Error("sniff failed", sErr)
				return reactor.Terminal
			}

			switch proto {
			case sniffer.Unknown:
				return reactor.WouldBlock
			case sniffer.Closed:
				// spec.md §4.4: peer opened and closed without sending
				// bytes — a silent terminal, never reaches a handler.
				return reactor.Terminal
			case sniffer.Unrecognized:
				log().Info(fmt.Sprintf("unrecognized protocol, closing: % x", head), nil)
				return reactor.Terminal
			}

			isTLS = proto == sniffer.TLS
			rec.MarkSniffed(isTLS)
		}

		if isTLS {
			return httpsHandler.Handle(rec)
		}
		return httpHandler.Handle(rec)
	}
}
