package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"tweetbot/pkg/logger"
)

func newTestManager(t *testing.T, screenName string) *Manager {
	t.Helper()
	mgr, err := NewManagerInDir(t.TempDir(), screenName)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	mgr.SetLogger(logger.NewTestLogger())
	return mgr
}

func TestCheckpointManager(t *testing.T) {
	t.Run("CreateAndLoad", func(t *testing.T) {
		mgr := newTestManager(t, "chinhdo")

		cp, err := mgr.Create("chinhdo")
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		if cp.ScreenName != "chinhdo" {
			t.Errorf("Expected screen name chinhdo, got %s", cp.ScreenName)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Version != currentVersion {
			t.Errorf("Expected version %d, got %d", currentVersion, loaded.Version)
		}
	})

	t.Run("UpdateProgress", func(t *testing.T) {
		mgr := newTestManager(t, "chinhdo")
		cp, err := mgr.Create("chinhdo")
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		if err := mgr.UpdateProgress(cp, "999", 200); err != nil {
			t.Fatalf("Failed to update progress: %v", err)
		}
		if err := mgr.UpdateProgress(cp, "799", 400); err != nil {
			t.Fatalf("Failed to update progress: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded.MaxID != "799" || loaded.Count != 400 || loaded.Pages != 2 {
			t.Errorf("Unexpected checkpoint state: %+v", loaded)
		}
	})

	t.Run("LoadMissing", func(t *testing.T) {
		mgr := newTestManager(t, "nobody")
		cp, err := mgr.Load()
		if err != nil || cp != nil {
			t.Errorf("Expected nil, nil for missing checkpoint, got %v, %v", cp, err)
		}
		if mgr.Exists() {
			t.Error("Expected no checkpoint to exist")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		mgr := newTestManager(t, "chinhdo")
		if _, err := mgr.Create("chinhdo"); err != nil {
			t.Fatal(err)
		}
		if !mgr.Exists() {
			t.Fatal("Expected checkpoint to exist")
		}
		if err := mgr.Delete(); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if mgr.Exists() {
			t.Error("Expected checkpoint to be deleted")
		}
		if err := mgr.Delete(); err != nil {
			t.Errorf("Deleting twice should not fail: %v", err)
		}
	})

	t.Run("Info", func(t *testing.T) {
		mgr := newTestManager(t, "chinhdo")
		info, err := mgr.Info()
		if err != nil || info != nil {
			t.Fatalf("Expected no info, got %v, %v", info, err)
		}

		cp, _ := mgr.Create("chinhdo")
		mgr.UpdateProgress(cp, "10", 5)

		info, err = mgr.Info()
		if err != nil {
			t.Fatal(err)
		}
		if info["count"] != 5 || info["max_id"] != "10" {
			t.Errorf("Unexpected info: %v", info)
		}
	})
}

func TestLoadRejectsCorruptAndFutureFiles(t *testing.T) {
	mgr := newTestManager(t, "chinhdo")

	if err := os.WriteFile(mgr.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Load(); err == nil {
		t.Error("Expected error for corrupt checkpoint")
	}

	if err := os.WriteFile(mgr.Path(), []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Load(); err == nil {
		t.Error("Expected error for unsupported version")
	}
}

func TestScreenNameIsSanitized(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerInDir(dir, "@Chinh.Do/../x")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := mgr.Path(), filepath.Join(dir, "chinhdox.checkpoint.json"); got != want {
		t.Errorf("Path() = %s, want %s", got, want)
	}

	if _, err := NewManagerInDir(dir, "@"); err == nil {
		t.Error("Expected error for empty screen name")
	}
}
