package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeResultID computes a deterministic result_id.
// Formula: SHA256(run_id|row_index|name), base58-encoded.
func ComputeResultID(runID string, rowIndex int, name string) string {
	data := fmt.Sprintf("%s|%d|%s", runID, rowIndex, name)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
