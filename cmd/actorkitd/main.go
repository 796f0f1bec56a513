/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Command actorkitd is the daemon wrapping the actorkit runtime: it
// loads a Viper-readable configuration file, wires the process logger
// and the built-in logservice, and runs until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nabbar/actorkit/logger"
	"github.com/nabbar/actorkit/runtime"
	spfcbr "github.com/spf13/cobra"
)

// release is overridden at build time with -ldflags "-X main.release=...".
var release = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCommand()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *spfcbr.Command {
	root := &spfcbr.Command{
		Use:           "actorkitd",
		Short:         "actorkit runtime daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func newRunCommand() *spfcbr.Command {
	return &spfcbr.Command{
		Use:   "run <config-file>",
		Short: "start the runtime with the given configuration file",
		Args:  spfcbr.ExactArgs(1),
		RunE: func(cmd *spfcbr.Command, args []string) error {
			return runDaemon(cmd.Context(), args[0])
		},
	}
}

func newVersionCommand() *spfcbr.Command {
	return &spfcbr.Command{
		Use:   "version",
		Short: "print the daemon version",
		Args:  spfcbr.NoArgs,
		RunE: func(cmd *spfcbr.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), release)
			return nil
		},
	}
}

// runDaemon loads configFile, builds the runtime and its logservice,
// and blocks until ctx is cancelled (SIGINT/SIGTERM) or the runtime
// itself reports an error -- e.g. the bootstrap module failing to
// init, matching spec.md §7's "exit code 1" clause.
func runDaemon(ctx context.Context, configFile string) error {
	settings, logOpts, err := loadSettings(configFile)
	if err != nil {
		return fmt.Errorf("actorkitd: %w", err)
	}

	log := logger.New(ctx)
	if logOpts != nil {
		if err := log.SetOptions(logOpts); err != nil {
			return fmt.Errorf("actorkitd: configure logger: %w", err)
		}
	}

	rt, err := runtime.New(settings)
	if err != nil {
		return fmt.Errorf("actorkitd: init runtime: %w", err)
	}
	rt.SetLogger(log)
	rt.Register("logger", newLogServiceFactory(log))

	go watchReload(ctx, rt, log)

	log.Info("actorkitd starting", nil)
	if err := rt.Run(ctx); err != nil {
		log.Error("runtime exited with error", nil)
		return fmt.Errorf("actorkitd: %w", err)
	}
	log.Info("actorkitd stopped", nil)
	return nil
}

// watchReload forwards SIGHUP to Runtime.Reload, the daemon-level half
// of spec.md §9's "SIGHUP triggers log-file reopening".
func watchReload(ctx context.Context, rt *runtime.Runtime, log logger.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			if err := rt.Reload(); err != nil {
				log.Error("reload failed", nil, err)
			}
		}
	}
}
