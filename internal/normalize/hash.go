package normalize

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// FileHash computes the hex-encoded SHA-256 of the file at path. The hash
// binds a batch to one underlying file across resumed chunk calls.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// LotKey computes the idempotency key for one fact row: SHA-256 over the
// batch id, source row number, and child ordinal. Re-running a chunk
// produces identical keys, so duplicate inserts conflict instead of
// double-billing.
func LotKey(batchID uuid.UUID, rowNumber int64, childOrdinal int) []byte {
	h := sha256.New()
	h.Write(batchID[:])
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(rowNumber))
	h.Write(buf)
	binary.LittleEndian.PutUint64(buf, uint64(childOrdinal))
	h.Write(buf)
	return h.Sum(nil)
}
