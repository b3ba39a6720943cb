package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// Fingerprint derives the canonical request fingerprint for a job launch. Two
// launches with the same job name and parameters always produce the same
// fingerprint regardless of map iteration order, and any difference in either
// produces a different one. The guard uses the fingerprint to detect a key
// being reused for different request content.
func Fingerprint(jobName string, params model.ExecutionParameters) string {
	keys := make([]string, 0, len(params.Params))
	for k := range params.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(jobName))
	for _, k := range keys {
		fmt.Fprintf(h, "|%s=%v", k, params.Params[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
