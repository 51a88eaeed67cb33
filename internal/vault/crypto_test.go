package vault

import (
	"strings"
	"testing"
)

var testKey = []byte("thisis32byteslongsecretkey123456") // 32 bytes for AES-256

func TestSealOpen(t *testing.T) {
	plaintext := []byte(`{"user":{"email":"jane@example.com"}}`)

	sealed, err := Seal(plaintext, testKey)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if strings.Contains(sealed, "jane") {
		t.Fatal("Sealed value should not contain the plaintext")
	}

	opened, err := Open(sealed, testKey)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(opened) != string(plaintext) {
		t.Errorf("Expected %s, got %s", plaintext, opened)
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	other := []byte("another32byteslongsecretkey65432")

	sealed, err := Seal([]byte("Secret message"), testKey)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := Open(sealed, other); err != ErrDecrypt {
		t.Fatalf("Expected ErrDecrypt, got %v", err)
	}
}

func TestInvalidKeySize(t *testing.T) {
	invalidKey := []byte("shortkey")

	if _, err := Seal([]byte("test"), invalidKey); err == nil {
		t.Fatal("Seal should fail with invalid key size")
	}
	if _, err := Open("0123456789abcdef", invalidKey); err == nil {
		t.Fatal("Open should fail with invalid key size")
	}
}

func TestOpenMalformed(t *testing.T) {
	if _, err := Open("not-hex", testKey); err == nil {
		t.Fatal("Open should fail with malformed hex")
	}
	// The GCM nonce alone is 12 bytes, so three bytes is too short.
	if _, err := Open("abcdef", testKey); err == nil {
		t.Fatal("Open should fail with too short ciphertext")
	}
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey(strings.Repeat("ab", KeySize))
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if len(key) != KeySize {
		t.Errorf("Expected %d bytes, got %d", KeySize, len(key))
	}

	if _, err := ParseKey("abcd"); err == nil {
		t.Error("ParseKey should reject short keys")
	}
	if _, err := ParseKey("zz"); err == nil {
		t.Error("ParseKey should reject non-hex input")
	}
}
