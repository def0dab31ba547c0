// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command gzflate compresses and decompresses files in the gzip
// container format using this module's own DEFLATE implementation.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/cosnicolaou/gzflate"
)

const (
	libName    = "gzflate"
	libVersion = "1.0.0"
)

var log = logrus.New()

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     libName,
		Short:   "compress and decompress gzip/DEFLATE files",
		Version: libVersion,
	}
	root.SetVersionTemplate(versionBanner())

	versionCmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "print the version banner",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(versionBanner())
		},
	}

	compressCmd := &cobra.Command{
		Use:     "compress <file>",
		Aliases: []string{"c"},
		Short:   "compress a file to <file>.gz",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(args[0])
		},
	}

	decompressCmd := &cobra.Command{
		Use:     "decompress <file.gz>",
		Aliases: []string{"d"},
		Short:   "decompress a .gz file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompress(args[0])
		},
	}

	root.AddCommand(versionCmd, compressCmd, decompressCmd)
	return root
}

func versionBanner() string {
	return fmt.Sprintf("%s version %s\n", libName, libVersion)
}

func runCompress(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer in.Close()

	outPath := path + ".gz"
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", outPath)
	}
	defer out.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat %s", path)
	}

	reader := withProgressBar(in, info.Size(), "compressing")
	if err := gzflate.Compress(out, reader); err != nil {
		return errors.Wrapf(err, "compressing %s", path)
	}

	outInfo, err := out.Stat()
	if err == nil && info.Size() > 0 {
		ratio := float64(outInfo.Size()) / float64(info.Size()) * 100
		log.Infof("%s: %d -> %d bytes (%.1f%%)", path, info.Size(), outInfo.Size(), ratio)
	}
	return nil
}

func runDecompress(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer in.Close()

	outPath := trimGzSuffix(path)
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", outPath)
	}
	defer out.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat %s", path)
	}

	reader := withProgressBar(in, info.Size(), "decompressing")
	if err := gzflate.Decompress(out, reader); err != nil {
		return errors.Wrapf(err, "decompressing %s", path)
	}
	log.Infof("%s: decompressed", path)
	return nil
}

func trimGzSuffix(path string) string {
	const suffix = ".gz"
	if len(path) > len(suffix) && path[len(path)-len(suffix):] == suffix {
		return path[:len(path)-len(suffix)]
	}
	return path + ".out"
}

// withProgressBar wraps r with a byte-counting progress bar rendered to
// stderr, but only when stdout is an interactive terminal — a batch
// script piping our output elsewhere should not see progress-bar control
// characters.
func withProgressBar(r io.Reader, size int64, label string) io.Reader {
	if !terminal.IsTerminal(int(os.Stdout.Fd())) {
		return r
	}
	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetBytes64(size),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(true))
	return io.TeeReader(r, progressWriter{bar})
}

// progressWriter adapts a *progressbar.ProgressBar's Add method to the
// io.Writer shape io.TeeReader requires.
type progressWriter struct {
	bar *progressbar.ProgressBar
}

func (p progressWriter) Write(b []byte) (int, error) {
	p.bar.Add(len(b))
	return len(b), nil
}
