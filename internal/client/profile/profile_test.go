package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func TestDirHonorsEnv(t *testing.T) {
	t.Setenv("BITBOX_CONFIG_FOLDER", "/tmp/custom-profile")
	if got := Dir(); got != "/tmp/custom-profile" {
		t.Errorf("Dir = %q; want /tmp/custom-profile", got)
	}
}

func TestOpenCreatesSyncsDir(t *testing.T) {
	store := openStore(t)
	info, err := os.Stat(store.SyncsDir())
	if err != nil {
		t.Fatalf("stat syncs dir: %v", err)
	}
	if !info.IsDir() {
		t.Error("syncs path is not a directory")
	}
}

func TestKeyInfoMissing(t *testing.T) {
	store := openStore(t)
	keyInfo, err := store.KeyInfo()
	if err != nil {
		t.Fatalf("KeyInfo: %v", err)
	}
	if keyInfo != nil {
		t.Errorf("KeyInfo on fresh profile = %+v; want nil", keyInfo)
	}
}

func TestKeyInfoRoundTrip(t *testing.T) {
	store := openStore(t)
	want := models.KeyInfo{
		Username:   "alice",
		PublicKey:  "PUB",
		PrivateKey: "PRIV",
		Encrypted:  true,
	}
	if err := store.SetKeyInfo(want); err != nil {
		t.Fatalf("SetKeyInfo: %v", err)
	}
	got, err := store.KeyInfo()
	if err != nil {
		t.Fatalf("KeyInfo: %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("KeyInfo = %+v; want %+v", got, want)
	}
}

func TestKeyInfoCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "keyfile.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.KeyInfo(); !errors.Is(err, bberrors.ErrConfigParse) {
		t.Errorf("KeyInfo on corrupt file = %v; want ErrConfigParse", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	store := openStore(t)
	session, err := store.Session()
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if session != "" {
		t.Errorf("Session on fresh profile = %q; want empty", session)
	}
	if err := store.SetSession("session=abc123"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	session, err = store.Session()
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if session != "session=abc123" {
		t.Errorf("Session = %q; want session=abc123", session)
	}
}

func TestSyncInfoRoundTrip(t *testing.T) {
	store := openStore(t)
	records, err := store.SyncInfo()
	if err != nil {
		t.Fatalf("SyncInfo: %v", err)
	}
	if records != nil {
		t.Errorf("SyncInfo on fresh profile = %v; want nil", records)
	}

	want := []models.SyncRecord{
		{SyncID: 1, FileID: "f1", LastHash: "h1", Inode: 42},
		{SyncID: 2, FileID: "f2", LastHash: "h2", Inode: 43},
	}
	if err := store.SetSyncInfo(want); err != nil {
		t.Fatalf("SetSyncInfo: %v", err)
	}
	records, err = store.SyncInfo()
	if err != nil {
		t.Fatalf("SyncInfo: %v", err)
	}
	if len(records) != 2 || records[0] != want[0] || records[1] != want[1] {
		t.Errorf("SyncInfo = %+v; want %+v", records, want)
	}
}

func TestSetSyncInfoLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.SetSyncInfo([]models.SyncRecord{{SyncID: 1, FileID: "f", Inode: 1}}); err != nil {
		t.Fatalf("SetSyncInfo: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}
