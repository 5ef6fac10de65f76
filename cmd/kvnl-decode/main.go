// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	_cbor "github.com/fxamacker/cbor/v2"

	"github.com/blinklabs-io/kvnl"
)

type globalFlags struct {
	flagset    *flag.FlagSet
	input      string
	hash       string
	depth      int
	format     string
	chunkSize  int
	configFile string
}

// fileConfig mirrors the flags that can be preset from a TOML file.
// Flags given on the command line override the file.
type fileConfig struct {
	Hash      string `toml:"hash"`
	Depth     int    `toml:"depth"`
	Format    string `toml:"format"`
	ChunkSize int    `toml:"chunk_size"`
}

func validFormat(format string) bool {
	switch format {
	case "text", "json", "cbor":
		return true
	}
	return false
}

func newGlobalFlags() *globalFlags {
	f := &globalFlags{
		flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.input,
		"input",
		"",
		"file to decode (defaults to stdin)",
	)
	f.flagset.StringVar(
		&f.hash,
		"hash",
		"",
		"verify hash lines using the named algorithm's registry",
	)
	f.flagset.IntVar(
		&f.depth,
		"depth",
		1,
		"nesting depth above blocks (1 = message of blocks)",
	)
	f.flagset.StringVar(
		&f.format,
		"format",
		"text",
		"output format: text, json, or cbor",
	)
	f.flagset.IntVar(
		&f.chunkSize,
		"chunk",
		4096,
		"read chunk size in bytes",
	)
	f.flagset.StringVar(
		&f.configFile,
		"config",
		"",
		"TOML config file with defaults for the above flags",
	)
	return f
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	f := newGlobalFlags()
	if err := f.flagset.Parse(os.Args[1:]); err != nil {
		logger.Error("failed to parse command args", "error", err)
		os.Exit(1)
	}
	if f.configFile != "" {
		if err := f.applyConfigFile(); err != nil {
			logger.Error("failed to load config file", "error", err)
			os.Exit(1)
		}
	}
	if !validFormat(f.format) {
		logger.Error("unknown output format", "format", f.format)
		os.Exit(1)
	}

	var input io.Reader = os.Stdin
	if f.input != "" {
		file, err := os.Open(f.input)
		if err != nil {
			logger.Error("failed to open input", "error", err)
			os.Exit(1)
		}
		defer file.Close()
		input = file
	}

	var opts []kvnl.Option
	opts = append(opts, kvnl.WithNestingDepth(f.depth))
	opts = append(opts, kvnl.WithLogger(logger))
	if f.hash != "" {
		opts = append(opts, kvnl.WithHashAlgorithm(f.hash))
	}
	decoder, err := kvnl.NewDecoder(opts...)
	if err != nil {
		logger.Error("failed to create decoder", "error", err)
		os.Exit(1)
	}

	printer := newPrinter(f.format, os.Stdout)
	chunk := make([]byte, f.chunkSize)
	for {
		n, readErr := input.Read(chunk)
		if n > 0 {
			events, _, err := decoder.Feed(chunk[:n])
			if perr := printer.print(events); perr != nil {
				logger.Error("failed to write output", "error", perr)
				os.Exit(1)
			}
			if err != nil {
				logger.Error("decode failed", "error", err)
				os.Exit(1)
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				logger.Error("read failed", "error", readErr)
				os.Exit(1)
			}
			break
		}
	}
	if err := decoder.Done(); err != nil {
		logger.Error("decode failed", "error", err)
		os.Exit(1)
	}
	if err := printer.flush(); err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(1)
	}
}

func (f *globalFlags) applyConfigFile() error {
	var cfg fileConfig
	if _, err := toml.DecodeFile(f.configFile, &cfg); err != nil {
		return err
	}
	// only fill in values the command line left at their defaults
	given := map[string]bool{}
	f.flagset.Visit(func(fl *flag.Flag) {
		given[fl.Name] = true
	})
	if !given["hash"] && cfg.Hash != "" {
		f.hash = cfg.Hash
	}
	if !given["depth"] && cfg.Depth > 0 {
		f.depth = cfg.Depth
	}
	if !given["format"] && cfg.Format != "" {
		f.format = cfg.Format
	}
	if !given["chunk"] && cfg.ChunkSize > 0 {
		f.chunkSize = cfg.ChunkSize
	}
	return nil
}

// printer renders decoder events. The text format streams as events
// arrive; json and cbor fold each message's blocks into an array of
// [key, value] pair lists and emit one document per message.
type printer struct {
	format  string
	out     io.Writer
	message [][][2]any
	block   [][2]any
}

func newPrinter(format string, out io.Writer) *printer {
	return &printer{
		format: format,
		out:    out,
	}
}

func (p *printer) print(events []kvnl.Event) error {
	for _, event := range events {
		switch e := event.(type) {
		case kvnl.LineEvent:
			if p.format == "text" {
				if _, err := fmt.Fprintf(
					p.out,
					"  %s\n",
					e.Line.String(),
				); err != nil {
					return err
				}
			} else {
				p.block = append(p.block, [2]any{e.Line.Key, e.Line.Value})
			}
		case kvnl.BlockEvent:
			for _, mismatch := range e.Block.Mismatches {
				fmt.Fprintf(os.Stderr, "warning: %s\n", mismatch.Error())
			}
			if p.format == "text" {
				if _, err := fmt.Fprintf(
					p.out,
					"-- block (%d lines)\n",
					len(e.Block.Lines),
				); err != nil {
					return err
				}
			} else {
				p.message = append(p.message, p.block)
				p.block = nil
			}
		case kvnl.MessageEvent:
			if p.format == "text" {
				if _, err := fmt.Fprintf(
					p.out,
					"== message (level %d)\n",
					e.Level,
				); err != nil {
					return err
				}
			} else if e.Level == 1 {
				if err := p.emitMessage(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *printer) emitMessage() error {
	defer func() {
		p.message = nil
	}()
	switch p.format {
	case "json":
		data, err := json.Marshal(p.message)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.out, "%s\n", data)
		return err
	case "cbor":
		data, err := _cbor.Marshal(p.message)
		if err != nil {
			return err
		}
		_, err = p.out.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

func (p *printer) flush() error {
	if p.format == "text" {
		return nil
	}
	// an unterminated trailing message would have been rejected by the
	// decoder already, so anything left here is empty
	return nil
}
