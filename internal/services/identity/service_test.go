package identity_test

import (
	"errors"
	"testing"

	"spkstore/internal/domain"
	"spkstore/internal/services/identity"
	"spkstore/internal/store"
)

const strongPassphrase = "Correct-Horse-9-Battery"

func TestGenerateIdentity_RejectsWeakPassphrase(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir(), domain.ScopePrimary))
	for _, p := range []string{"short", "alllowercase-but-long1", "NoDigitsHere!!!!", "NoSymbols12345678"} {
		if _, _, err := svc.GenerateIdentity(p); !errors.Is(err, identity.ErrWeakPassphrase) {
			t.Fatalf("%q: want ErrWeakPassphrase, got %v", p, err)
		}
	}
}

func TestGenerateIdentity_ThenFingerprint(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir(), domain.ScopePrimary))

	id, fp, err := svc.GenerateIdentity(strongPassphrase)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(fp) != 20 {
		t.Fatalf("fingerprint length = %d", len(fp))
	}

	got, err := svc.FingerprintIdentity(strongPassphrase)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if got != fp {
		t.Fatalf("fingerprint changed: %s != %s", got, fp)
	}

	loaded, err := svc.LoadIdentity(strongPassphrase)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != id {
		t.Fatal("loaded identity differs from generated one")
	}
}

func TestGenerateIdentity_RefusesToReplace(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir(), domain.ScopeSecondary))
	if _, _, err := svc.GenerateIdentity(strongPassphrase); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, _, err := svc.GenerateIdentity(strongPassphrase); !errors.Is(err, identity.ErrIdentityExists) {
		t.Fatalf("want ErrIdentityExists, got %v", err)
	}
}
