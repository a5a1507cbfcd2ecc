package connection

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadIdentityRoundTrip(t *testing.T) {
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	path := filepath.Join(t.TempDir(), "identity.json")
	if err := SaveIdentity(path, "correct horse battery staple", id); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}

	loaded, err := LoadIdentity(path, "correct horse battery staple")
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if !loaded.Public().Equal(id.Public()) {
		t.Errorf("public key mismatch after round trip")
	}
}

func TestLoadIdentityWrongPassword(t *testing.T) {
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	path := filepath.Join(t.TempDir(), "identity.json")
	if err := SaveIdentity(path, "right-password", id); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	if _, err := LoadIdentity(path, "wrong-password"); err == nil {
		t.Fatalf("expected error decrypting with wrong password")
	}
}
