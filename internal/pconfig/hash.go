package pconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	pderrors "github.com/igamenovoer/peidocker/internal/errors"
)

// Hash computes a deterministic fingerprint of cfg. internal/resolve
// seeds its auto-volume names from it, so that two `configure` runs
// over an unchanged input produce the same names (spec §8 property 8,
// idempotence).
//
// encoding/json sorts map keys on marshal, so the digest is stable
// across runs despite cfg.Stage1.Storage/Mount being Go maps.
func Hash(cfg *ProjectConfig) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", pderrors.Wrap(err, pderrors.CategoryInternal, pderrors.CodeIO, "failed to marshal config for hashing")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
