package shards

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// buildShardURL builds the download URL for fileName: the fixed base plus a
// percent-encoded query selecting the file inside the share, i.e.
// "<base>?files=<name>&path=%2F".
func buildShardURL(base, fileName string) string {
	q := url.Values{}
	q.Set("path", "/")
	q.Set("files", fileName)
	return base + "?" + q.Encode()
}

// download fetches rawURL into dest. Parent directories are created and any
// stale partial file at dest is removed before the transfer starts. The body
// is streamed into a temp file and renamed into place on success. Failures
// are not retried.
func download(client *http.Client, rawURL, dest string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale file %s: %w", dest, err)
	}

	resp, err := client.Get(rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}
	return writeAtomic(dest, resp.Body)
}

// writeAtomic streams r into dest via a temp file in the same directory and
// an atomic rename.
func writeAtomic(dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		// if the temp file still exists something failed; best-effort cleanup.
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		// non-fatal but warn
		log.Printf("warning: sync temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", dest, err)
	}
	return nil
}
