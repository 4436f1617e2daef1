package sync

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/client/api"
	"github.com/trehansiddharth/bitbox-client/internal/crypto"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

type mockRemote struct {
	InfoFunc     func(ctx context.Context, fileID string, auth *api.Auth) (*models.FileInfo, error)
	DownloadFunc func(ctx context.Context, fileID string, auth *api.Auth) ([]byte, error)
}

func (m *mockRemote) Info(ctx context.Context, fileID string, auth *api.Auth) (*models.FileInfo, error) {
	return m.InfoFunc(ctx, fileID, auth)
}
func (m *mockRemote) Download(ctx context.Context, fileID string, auth *api.Auth) ([]byte, error) {
	return m.DownloadFunc(ctx, fileID, auth)
}

// syncedFile seeds one synced file whose last-synced hash matches its
// current content.
func syncedFile(t *testing.T, table *Table, name, content, fileID string) string {
	t.Helper()
	path := writeTemp(t, name, content)
	if _, err := table.Create(path, fileID, crypto.HashContent([]byte(content))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return path
}

func TestSyncFileUnchanged(t *testing.T) {
	table, _ := openTable(t)
	path := syncedFile(t, table, "a.txt", "same", "f1")

	remote := &mockRemote{
		InfoFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: fileID, Hash: crypto.HashContent([]byte("same"))}, nil
		},
	}
	outcome, err := NewEngine(table, remote, nil, nil).SyncFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	if outcome != Unchanged {
		t.Errorf("outcome = %v; want Unchanged", outcome)
	}
}

func TestSyncFileLocalEditsNeedConfirmation(t *testing.T) {
	table, _ := openTable(t)
	path := syncedFile(t, table, "a.txt", "old", "f1")
	if err := os.WriteFile(path, []byte("local edit"), 0o600); err != nil {
		t.Fatal(err)
	}

	remote := &mockRemote{
		InfoFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: fileID, Hash: crypto.HashContent([]byte("old"))}, nil
		},
		DownloadFunc: func(ctx context.Context, fileID string, _ *api.Auth) ([]byte, error) {
			return []byte("old"), nil
		},
	}

	// Declining keeps the local edits untouched.
	confirmed := false
	outcome, err := NewEngine(table, remote, nil, func(string) bool {
		confirmed = true
		return false
	}).SyncFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	if !confirmed {
		t.Fatal("local edits were reconciled without asking")
	}
	if outcome != Skipped {
		t.Fatalf("declined outcome = %v; want Skipped", outcome)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "local edit" {
		t.Errorf("declined overwrite touched the file: %q", content)
	}

	// Accepting pulls the server copy over the local edits.
	outcome, err = NewEngine(table, remote, nil, func(string) bool { return true }).
		SyncFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	if outcome != Pulled {
		t.Fatalf("accepted outcome = %v; want Pulled", outcome)
	}
	content, _ = os.ReadFile(path)
	if string(content) != "old" {
		t.Errorf("accepted overwrite did not pull: %q", content)
	}
}

func TestSyncFilePullsServerChange(t *testing.T) {
	table, _ := openTable(t)
	path := syncedFile(t, table, "a.txt", "old", "f1")
	aliasBefore, err := Inode(path)
	if err != nil {
		t.Fatal(err)
	}

	remote := &mockRemote{
		InfoFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: fileID, Hash: crypto.HashContent([]byte("new server"))}, nil
		},
		DownloadFunc: func(ctx context.Context, fileID string, _ *api.Auth) ([]byte, error) {
			return []byte("new server"), nil
		},
	}
	outcome, err := NewEngine(table, remote, nil, nil).SyncFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	if outcome != Pulled {
		t.Fatalf("outcome = %v; want Pulled", outcome)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "new server" {
		t.Errorf("local file = %q; want new server", content)
	}
	// The pull must write in place so the pinned inode survives.
	aliasAfter, err := Inode(path)
	if err != nil {
		t.Fatal(err)
	}
	if aliasAfter != aliasBefore {
		t.Error("pull replaced the inode instead of writing in place")
	}
}

func TestSyncFileEqualContentIsNoOp(t *testing.T) {
	table, _ := openTable(t)
	path := syncedFile(t, table, "a.txt", "old", "f1")
	if err := os.WriteFile(path, []byte("converged"), 0o600); err != nil {
		t.Fatal(err)
	}

	remote := &mockRemote{
		InfoFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: fileID, Hash: crypto.HashContent([]byte("converged"))}, nil
		},
	}
	outcome, err := NewEngine(table, remote, nil, nil).SyncFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	if outcome != Unchanged {
		t.Errorf("outcome = %v; want Unchanged", outcome)
	}
	// Neither the file nor its record is rewritten.
	rec, err := table.Lookup(path)
	if err != nil {
		t.Fatal(err)
	}
	if rec.LastHash != crypto.HashContent([]byte("old")) {
		t.Error("record rewritten for a no-op reconciliation")
	}
}

func TestSyncFileSkipsBusyRemote(t *testing.T) {
	table, _ := openTable(t)
	path := syncedFile(t, table, "a.txt", "old", "f1")

	remote := &mockRemote{
		InfoFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: fileID, Hash: crypto.HashContent([]byte("new server"))}, nil
		},
		DownloadFunc: func(ctx context.Context, fileID string, _ *api.Auth) ([]byte, error) {
			return nil, bberrors.NewServer("save", bberrors.CodeFileNotReady)
		},
	}
	outcome, err := NewEngine(table, remote, nil, nil).SyncFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	if outcome != Skipped {
		t.Fatalf("outcome = %v; want Skipped", outcome)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "old" {
		t.Errorf("busy remote touched the file: %q", content)
	}
}

func TestSyncFileConflict(t *testing.T) {
	table, _ := openTable(t)
	path := syncedFile(t, table, "a.txt", "old", "f1")
	if err := os.WriteFile(path, []byte("local edit"), 0o600); err != nil {
		t.Fatal(err)
	}
	remote := &mockRemote{
		InfoFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: fileID, Hash: crypto.HashContent([]byte("server edit"))}, nil
		},
		DownloadFunc: func(ctx context.Context, fileID string, _ *api.Auth) ([]byte, error) {
			return []byte("server edit"), nil
		},
	}

	// Declined conflict leaves the local file alone.
	outcome, err := NewEngine(table, remote, nil, func(string) bool { return false }).
		SyncFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	if outcome != Skipped {
		t.Fatalf("declined conflict outcome = %v; want Skipped", outcome)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "local edit" {
		t.Errorf("declined conflict touched the file: %q", content)
	}

	// Accepted conflict pulls the server version.
	outcome, err = NewEngine(table, remote, nil, func(string) bool { return true }).
		SyncFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	if outcome != Pulled {
		t.Fatalf("accepted conflict outcome = %v; want Pulled", outcome)
	}
	content, _ = os.ReadFile(path)
	if string(content) != "server edit" {
		t.Errorf("accepted conflict did not pull: %q", content)
	}
}

func TestSyncFileDetachesWhenRemoteGone(t *testing.T) {
	table, _ := openTable(t)
	path := syncedFile(t, table, "a.txt", "content", "f1")

	remote := &mockRemote{
		InfoFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.FileInfo, error) {
			return nil, bberrors.NewServer("file info", bberrors.CodeFileNotFound)
		},
	}
	outcome, err := NewEngine(table, remote, nil, nil).SyncFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	if outcome != Detached {
		t.Fatalf("outcome = %v; want Detached", outcome)
	}
	if _, err := table.Lookup(path); !errors.Is(err, bberrors.ErrSyncNotFound) {
		t.Error("stale record survived detachment")
	}
}

func TestSyncFileUnsynced(t *testing.T) {
	table, _ := openTable(t)
	path := writeTemp(t, "stray.txt", "x")
	_, err := NewEngine(table, &mockRemote{}, nil, nil).SyncFile(context.Background(), path, nil)
	if !errors.Is(err, bberrors.ErrSyncNotFound) {
		t.Errorf("SyncFile = %v; want ErrSyncNotFound", err)
	}
}

func TestSyncDirCountsModifications(t *testing.T) {
	table, _ := openTable(t)
	dir := t.TempDir()

	write := func(name, content string) string {
		path := dir + "/" + name
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	unchanged := write("same.txt", "same")
	changed := write("edited.txt", "old")
	write("unsynced.txt", "ignored")
	if _, err := table.Create(unchanged, "f1", crypto.HashContent([]byte("same"))); err != nil {
		t.Fatal(err)
	}
	if _, err := table.Create(changed, "f2", crypto.HashContent([]byte("old"))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(changed, []byte("new"), 0o600); err != nil {
		t.Fatal(err)
	}

	hashes := map[string]string{
		"f1": crypto.HashContent([]byte("same")),
		"f2": crypto.HashContent([]byte("old")),
	}
	remote := &mockRemote{
		InfoFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: fileID, Hash: hashes[fileID]}, nil
		},
		DownloadFunc: func(ctx context.Context, fileID string, _ *api.Auth) ([]byte, error) {
			return []byte("old"), nil
		},
	}

	modified, err := NewEngine(table, remote, nil, func(string) bool { return true }).
		SyncDir(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("SyncDir: %v", err)
	}
	if modified != 1 {
		t.Errorf("modified = %d; want 1", modified)
	}
}
