package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ngrev/internal/channel"
	"ngrev/internal/slogutil"
	"ngrev/internal/worker"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [project]",
	Short: "Run the worker behind a websocket",
	Long: `Run a worker holding the navigation engine and answer channel requests
over a websocket at ws://<addr>/ws. When a project is given it is loaded
before the first client connects; clients may load another one at any time.

Examples:
  ngrev serve ./demo
  ngrev serve --addr 127.0.0.1:9000`,
	Args: cobra.MaximumNArgs(1),
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: channel.address from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	var projectPath string
	if len(args) == 1 {
		projectPath = args[0]
	}
	s := loadSettings(projectPath)
	defer s.close()

	addr := serveAddr
	if addr == "" {
		addr = s.cfg.Channel.Address
	}

	ctx, cancel := newContext()
	defer cancel()

	e := s.newEngine()
	defer e.Close()
	if projectPath != "" {
		mustLoad(ctx, e, projectPath)
	}

	codec, err := channel.NewCodec(s.cfg.Channel.CompressThresholdBytes)
	exitOnError("creating codec", err)
	defer codec.Close()

	logger := s.logger(slogutil.SubsystemWorker)
	server := channel.NewServer(worker.NewMux(e, logger), codec, logger)

	fmt.Fprintf(os.Stderr, "Serving ngrev worker on ws://%s%s (Ctrl+C to stop)\n", addr, channel.Path)
	exitOnError("serving", channel.ListenAndServe(ctx, addr, server, logger))
}
