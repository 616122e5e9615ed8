package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const defaultBytesLen = 32

func main() {
	if err := run(os.Args[1:], rand.Reader, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

// run prints hex encoded random secret suitable for SECRET_KEY
func run(args []string, random io.Reader, out io.Writer) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	bytesLen := fs.IntP("bytes", "b", defaultBytesLen, "Number of random bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bytesLen <= 0 {
		return errors.New("bytes must be positive")
	}

	b := make([]byte, *bytesLen)
	if _, err := io.ReadFull(random, b); err != nil {
		return err
	}

	_, err := fmt.Fprintln(out, hex.EncodeToString(b))
	return err
}
