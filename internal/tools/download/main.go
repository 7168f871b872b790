// Command download fetches a file over HTTP unless it already exists. The
// sandbox package uses it through go generate to fetch a QuickJS WASI
// build for its tests.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	sum := pflag.String("sha256", "", "Expected hex SHA-256 of the file")
	timeout := pflag.Duration("timeout", 2*time.Minute, "Download timeout")
	pflag.Parse()

	if pflag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: download [--sha256 hex] <url> <output>")
		os.Exit(1)
	}

	url, output := pflag.Arg(0), pflag.Arg(1)

	if _, err := os.Stat(output); err == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := download(ctx, url, output, *sum); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// download writes url to output through a temporary file so a failed or
// mismatched download never leaves a partial file behind.
func download(ctx context.Context, url, output, want string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(output), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if got := hex.EncodeToString(h.Sum(nil)); want != "" && got != want {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", url, got, want)
	}
	return os.Rename(tmp.Name(), output)
}
