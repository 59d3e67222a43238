package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGlobalPath(t *testing.T) {
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	defer func() {
		if origXDG != "" {
			_ = os.Setenv("XDG_CONFIG_HOME", origXDG)
		} else {
			_ = os.Unsetenv("XDG_CONFIG_HOME")
		}
	}()

	t.Run("with XDG_CONFIG_HOME set", func(t *testing.T) {
		_ = os.Setenv("XDG_CONFIG_HOME", "/custom/config")
		want := "/custom/config/ticketscout/ticketscout.yml"
		if got := GlobalPath(); got != want {
			t.Errorf("GlobalPath() = %v, want %v", got, want)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		_ = os.Unsetenv("XDG_CONFIG_HOME")
		got := GlobalPath()
		if !filepath.IsAbs(got) {
			t.Errorf("GlobalPath() should return absolute path, got %v", got)
		}
		if filepath.Base(got) != "ticketscout.yml" {
			t.Errorf("GlobalPath() should end with ticketscout.yml, got %v", got)
		}
	})
}

func TestProjectPath(t *testing.T) {
	if got := ProjectPath(); got != "ticketscout.yml" {
		t.Errorf("ProjectPath() = %v, want ticketscout.yml", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	// Isolate from any real config files and env
	tmpDir := t.TempDir()
	origWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change to temp dir: %v", err)
	}

	origXDG := os.Getenv("XDG_CONFIG_HOME")
	defer func() {
		if origXDG != "" {
			_ = os.Setenv("XDG_CONFIG_HOME", origXDG)
		} else {
			_ = os.Unsetenv("XDG_CONFIG_HOME")
		}
	}()
	_ = os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.TrackerCmd != DefaultTrackerCmd {
		t.Errorf("expected default tracker_cmd, got %q", cfg.TrackerCmd)
	}
	if cfg.MaxDepth != 3 {
		t.Errorf("expected default max_depth 3, got %d", cfg.MaxDepth)
	}
	if cfg.DataDir != ".ticketscout" {
		t.Errorf("expected default data_dir .ticketscout, got %q", cfg.DataDir)
	}
	if cfg.InsightLimit != 10 {
		t.Errorf("expected default insight_limit 10, got %d", cfg.InsightLimit)
	}
	if !cfg.Render {
		t.Error("expected render to default to true")
	}
}

func TestProjectOverridesGlobal(t *testing.T) {
	tmpDir := t.TempDir()
	origWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change to temp dir: %v", err)
	}

	origXDG := os.Getenv("XDG_CONFIG_HOME")
	defer func() {
		if origXDG != "" {
			_ = os.Setenv("XDG_CONFIG_HOME", origXDG)
		} else {
			_ = os.Unsetenv("XDG_CONFIG_HOME")
		}
	}()
	xdgDir := filepath.Join(tmpDir, "config")
	_ = os.Setenv("XDG_CONFIG_HOME", xdgDir)

	// Write global config with max_depth 5
	global := Default()
	global.MaxDepth = 5
	if err := WriteGlobal(global); err != nil {
		t.Fatalf("WriteGlobal failed: %v", err)
	}

	// Write project config with max_depth 2
	project := Default()
	project.MaxDepth = 2
	if err := WriteProject(project); err != nil {
		t.Fatalf("WriteProject failed: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.MaxDepth != 2 {
		t.Errorf("expected project config to win with max_depth 2, got %d", cfg.MaxDepth)
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()
	origWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change to temp dir: %v", err)
	}

	origXDG := os.Getenv("XDG_CONFIG_HOME")
	defer func() {
		if origXDG != "" {
			_ = os.Setenv("XDG_CONFIG_HOME", origXDG)
		} else {
			_ = os.Unsetenv("XDG_CONFIG_HOME")
		}
	}()
	_ = os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))

	t.Run("no config exists", func(t *testing.T) {
		if Exists() {
			t.Error("Exists() should be false with no config files")
		}
	})

	t.Run("project config exists", func(t *testing.T) {
		if err := WriteProject(Default()); err != nil {
			t.Fatalf("WriteProject failed: %v", err)
		}
		if !Exists() {
			t.Error("Exists() should be true after writing project config")
		}
	})
}
