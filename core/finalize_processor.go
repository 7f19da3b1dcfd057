package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FinalizeProcessor consumes banner IDs from the queue and finalizes the
// stored image: verifies the file exists, records its size and checksum,
// and flips the row from processing to ready.
type FinalizeProcessor struct {
	banners   BannerRepository
	uploadDir string
}

func NewFinalizeProcessor(banners BannerRepository, uploadDir string) *FinalizeProcessor {
	return &FinalizeProcessor{banners: banners, uploadDir: uploadDir}
}

// Process takes a banner ID from the queue and finalizes it. A non-nil
// error means the job should be retried; ErrBannerNotProcessing means the
// job was already handled and should just be acked.
func (p *FinalizeProcessor) Process(ctx context.Context, jobID string) error {
	banner, err := p.banners.AcquireProcessing(ctx, jobID)
	if err != nil {
		return err
	}

	path := filepath.Join(p.uploadDir, filepath.Base(urlFileName(banner.URL)))
	size, sum, err := checksumFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// The stored file is gone; retrying cannot help.
			if markErr := p.banners.MarkFailed(ctx, jobID, "uploaded file missing"); markErr != nil {
				return markErr
			}
			return nil
		}
		return fmt.Errorf("checksum %s: %w", path, err)
	}

	return p.banners.MarkReady(ctx, jobID, size, sum)
}

// urlFileName extracts the stored file name from a banner URL like
// "/uploads/<name>".
func urlFileName(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}

func checksumFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return size, hex.EncodeToString(h.Sum(nil)), nil
}
