package hasher

import (
	"context"
	"crypto/subtle"

	argon2engine "github.com/wippyai/argon2-engine"
	"github.com/wippyai/argon2-engine/errors"
)

// statusVerifyMismatch is the engine's status for a failed verification.
const statusVerifyMismatch int32 = 35

// Verify re-hashes password with the parameters embedded in encoded and
// compares in constant time. A mismatch surfaces as a HashError with the
// engine's verification-mismatch status; structural problems with the
// encoded form surface as decode errors.
func (h *Hasher) Verify(ctx context.Context, encoded string, password []byte) error {
	params, want, err := argon2engine.ParseEncoded(encoded)
	if err != nil {
		return err
	}
	params.Password = password

	res, err := h.Hash(ctx, params)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(res.RawHash, want) != 1 {
		return errors.NewHashError(statusVerifyMismatch, "")
	}
	return nil
}
