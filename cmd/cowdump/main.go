// Copyright 2021 the cowlog Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/snapfs/cowlog"
)

func main() {
	app := &cli.App{
		Name:  "cowdump",
		Usage: "inspect copy-on-write snapshot operation logs",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			dumpCommand,
			extractCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func openLog(c *cli.Context) (*cowlog.Reader, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one log file argument")
	}
	var opts []cowlog.Option
	if algo := c.String("verify-digest"); algo != "" {
		a := digest.Algorithm(algo)
		if !a.Available() {
			return nil, fmt.Errorf("digest algorithm %q not available", algo)
		}
		opts = append(opts, cowlog.WithDigester(cowlog.ForAlgorithm(a)))
	}
	return cowlog.Open(c.Args().First(), opts...)
}

var dumpCommand = &cli.Command{
	Name:      "dump",
	Usage:     "print header, footer, label watermark and operations",
	ArgsUsage: "<logfile>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "ops",
			Usage: "list every operation",
			Value: true,
		},
		&cli.StringFlag{
			Name:  "verify-digest",
			Usage: "verify footer digests with the given algorithm (e.g. sha256)",
		},
	},
	Action: func(c *cli.Context) error {
		r, err := openLog(c)
		if err != nil {
			return err
		}
		defer r.Close()

		h := r.Header()
		fmt.Printf("header: version %d.%d, block size %d, merged ops %d\n",
			h.MajorVersion, h.MinorVersion, h.BlockSize, h.NumMergeOps)

		if f, ok := r.Footer(); ok {
			fmt.Printf("footer: %d ops, %d op bytes\n", f.Op.NumOps, f.Op.OpsSize)
		} else {
			fmt.Println("footer: absent (recovered log)")
		}

		if label, ok := r.LastLabel(); ok {
			fmt.Printf("last label: %d\n", label)
		} else {
			fmt.Println("last label: none")
		}

		if !c.Bool("ops") {
			return nil
		}
		n := 0
		for it := r.OpIter(); !it.Done(); it.Next() {
			op := it.Get()
			switch op.Type {
			case cowlog.OpReplace:
				fmt.Printf("%6d: replace block %d, %d bytes @%d, compression %s\n",
					n, op.NewBlock, op.DataLength, op.Source, op.Compression)
			case cowlog.OpLabel:
				fmt.Printf("%6d: label %d\n", n, op.Source)
			default:
				fmt.Printf("%6d: %s block %d from %d\n", n, op.Type, op.NewBlock, op.Source)
			}
			n++
		}
		fmt.Printf("%d operations\n", n)
		return nil
	},
}

var extractCommand = &cli.Command{
	Name:      "extract",
	Usage:     "decode one operation's payload to a file",
	ArgsUsage: "<logfile>",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:     "op",
			Usage:    "index of the operation to decode",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "output file (default stdout)",
		},
		&cli.StringFlag{
			Name:  "verify-digest",
			Usage: "verify footer digests with the given algorithm (e.g. sha256)",
		},
	},
	Action: func(c *cli.Context) error {
		r, err := openLog(c)
		if err != nil {
			return err
		}
		defer r.Close()

		want := c.Int("op")
		idx := 0
		for it := r.OpIter(); !it.Done(); it.Next() {
			if idx != want {
				idx++
				continue
			}
			op := it.Get()
			if op.Type != cowlog.OpReplace {
				return fmt.Errorf("op %d is a %s op, nothing to decode", want, op.Type)
			}
			sink := os.Stdout
			if out := c.String("out"); out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				sink = f
			}
			logrus.Debugf("decoding %d bytes (%s) from offset %d",
				op.DataLength, op.Compression, op.Source)
			return r.ReadData(op, sink)
		}
		return fmt.Errorf("op %d out of range (%d ops)", want, idx)
	},
}
