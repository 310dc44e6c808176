package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

func TestHash_LooksLikeBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("pass99()")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_IsSalted(t *testing.T) {
	ps := newTestPasswordService()

	h1, _ := ps.Hash("same-password")
	h2, _ := ps.Hash("same-password")
	if h1 == h2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
}

func TestHash_Limits(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(""); err == nil {
		t.Error("Hash() should reject an empty password")
	}
	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Error("Hash() should reject passwords over 72 bytes")
	}
	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Errorf("Hash() should accept exactly 72 bytes, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	cases := []struct {
		name     string
		hash     string
		password string
		wantErr  bool
		mismatch bool
	}{
		{"correct password", hash, "correct-horse", false, false},
		{"wrong password", hash, "battery-staple", true, true},
		{"empty password", hash, "", true, true},
		{"garbage hash", "not-a-bcrypt-hash", "correct-horse", true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ps.Verify(tc.hash, tc.password)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got := errors.Is(err, ErrPasswordMismatch); got != tc.mismatch {
				t.Errorf("errors.Is(err, ErrPasswordMismatch) = %v, want %v", got, tc.mismatch)
			}
		})
	}
}
