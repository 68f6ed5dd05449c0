// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/beevik/go6809/host"
	"github.com/beevik/term"
)

var (
	load   string
	origin uint
)

func init() {
	flag.StringVar(&load, "l", "", "load a raw binary file before running scripts")
	flag.UintVar(&origin, "o", 0x1000, "address at which the -l file is loaded")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: go6809 [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	h := host.New()

	if load != "" {
		cmd := fmt.Sprintf("load %s %d\n", load, origin&0xffff)
		run(h, strings.NewReader(cmd), false)
	}

	// Run commands contained in command-line files.
	for _, filename := range flag.Args() {
		file, err := os.Open(filename)
		if err != nil {
			exitOnError(err)
		}
		run(h, file, false)
		file.Close()
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	// Run commands interactively when attached to a terminal.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	run(h, os.Stdin, interactive)
}

func run(h *host.Host, r io.Reader, interactive bool) {
	err := h.RunCommands(r, os.Stdout, interactive)
	switch {
	case errors.Is(err, host.ErrQuit):
		os.Exit(0)
	case err != nil:
		exitOnError(err)
	}
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
