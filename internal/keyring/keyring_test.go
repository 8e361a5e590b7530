package keyring

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestRoundTrip(t *testing.T) {
	keyring.MockInit()

	const id = "0011223344556677"
	if HasPassword(id) {
		t.Fatal("fresh keyring should be empty")
	}

	if err := SavePassword(id, []byte("secret")); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}
	got, err := GetPassword(id)
	if err != nil {
		t.Fatalf("GetPassword failed: %v", err)
	}
	if string(got) != "secret" {
		t.Errorf("GetPassword = %q, want secret", got)
	}

	if err := DeletePassword(id); err != nil {
		t.Fatalf("DeletePassword failed: %v", err)
	}
	if _, err := GetPassword(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := DeletePassword(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestEntriesAreScopedPerStore(t *testing.T) {
	keyring.MockInit()

	if err := SavePassword("store-a", []byte("one")); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}
	if HasPassword("store-b") {
		t.Error("password leaked to another store id")
	}
	if _, err := keyring.Get(serviceName, "store-a"); err == nil {
		t.Error("entry should be stored under a prefixed account")
	}
}

func TestUpdatePassword(t *testing.T) {
	keyring.MockInit()

	updated, err := UpdatePassword("store-a", []byte("next"))
	if err != nil || updated {
		t.Errorf("UpdatePassword without entry = %v, %v; want false, nil", updated, err)
	}
	if HasPassword("store-a") {
		t.Error("UpdatePassword must not create an entry")
	}

	if err := SavePassword("store-a", []byte("old")); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}
	updated, err = UpdatePassword("store-a", []byte("next"))
	if err != nil || !updated {
		t.Fatalf("UpdatePassword failed: %v, %v", updated, err)
	}
	got, _ := GetPassword("store-a")
	if string(got) != "next" {
		t.Errorf("GetPassword = %q, want next", got)
	}
}

func TestRejectsInvalidInput(t *testing.T) {
	keyring.MockInit()

	if err := SavePassword("", []byte("x")); err == nil {
		t.Error("Expected error for empty store id")
	}
	if err := SavePassword("store-a", nil); err == nil {
		t.Error("Expected error for empty password")
	}
	if HasPassword("") {
		t.Error("empty store id should never have a password")
	}
}
