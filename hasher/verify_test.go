package hasher

import (
	"context"
	stderrors "errors"
	"testing"

	argon2engine "github.com/wippyai/argon2-engine"
	"github.com/wippyai/argon2-engine/errors"
)

func TestVerify_Roundtrip(t *testing.T) {
	h, _ := newTestHasher(t)

	res, err := h.Hash(context.Background(), argon2engine.HashParams{
		Password: []byte("correct horse"),
		Salt:     []byte("somesalt"),
		Variant:  argon2engine.TypeI,
	})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if err := h.Verify(context.Background(), res.Encoded, []byte("correct horse")); err != nil {
		t.Errorf("verify against own encoded form: %v", err)
	}
}

func TestVerify_Mismatch(t *testing.T) {
	h, _ := newTestHasher(t)

	res, err := h.Hash(context.Background(), argon2engine.HashParams{
		Password: []byte("correct horse"),
		Salt:     []byte("somesalt"),
	})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	err = h.Verify(context.Background(), res.Encoded, []byte("battery staple"))
	if err == nil {
		t.Fatal("expected mismatch")
	}

	var hashErr *errors.HashError
	if !stderrors.As(err, &hashErr) {
		t.Fatalf("error %T is not a HashError", err)
	}
	if hashErr.Code != statusVerifyMismatch {
		t.Errorf("code = %d, want %d", hashErr.Code, statusVerifyMismatch)
	}
}

func TestVerify_MalformedEncoded(t *testing.T) {
	h, _ := newTestHasher(t)

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"no fields", "argon2d"},
		{"missing sections", "$argon2d$v=19$m=1024"},
		{"unknown variant", "$argon2x$v=19$m=1024,t=1,p=1$c29tZXNhbHQ$AAAA"},
		{"bad version", "$argon2d$v=16$m=1024,t=1,p=1$c29tZXNhbHQ$AAAA"},
		{"bad base64 salt", "$argon2d$v=19$m=1024,t=1,p=1$!!!$AAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.Verify(context.Background(), tt.encoded, []byte("pw")); err == nil {
				t.Error("expected parse failure")
			}
		})
	}
}
