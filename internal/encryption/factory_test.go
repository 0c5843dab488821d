package encryption

import (
	"testing"

	"channels-go/internal/config"
)

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		for _, typ := range []string{"", "none"} {
			enc, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: typ})
			if err != nil {
				t.Fatalf("NewEncryptorFromConfig(%q) error = %v", typ, err)
			}
			if enc != nil {
				t.Errorf("NewEncryptorFromConfig(%q) = %T, want nil", typ, enc)
			}
		}
	})

	t.Run("age", func(t *testing.T) {
		enc, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "age"})
		if err != nil {
			t.Fatalf("NewEncryptorFromConfig() error = %v", err)
		}
		if _, ok := enc.(*AgeEncryptor); !ok {
			t.Errorf("NewEncryptorFromConfig() = %T, want *AgeEncryptor", enc)
		}
	})

	t.Run("test", func(t *testing.T) {
		enc, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "test"})
		if err != nil {
			t.Fatalf("NewEncryptorFromConfig() error = %v", err)
		}
		if _, ok := enc.(*TestEncryptor); !ok {
			t.Errorf("NewEncryptorFromConfig() = %T, want *TestEncryptor", enc)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "rot13"}); err == nil {
			t.Fatal("NewEncryptorFromConfig() expected error")
		}
	})
}
