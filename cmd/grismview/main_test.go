package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/grismview/internal/config"
)

func TestFlagDefaults(t *testing.T) {
	if *listen != "" || *dbPath != "" || *grpcListen != "" {
		t.Errorf("override flags should default to empty")
	}
	if *debugLog {
		t.Errorf("debug should default to false")
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.json")
	if err := os.WriteFile(path, []byte(`{"listen":":9999","max_scale":10}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.GetListen() != ":9999" || cfg.GetMaxScale() != 10 {
		t.Errorf("got listen=%q max_scale=%g", cfg.GetListen(), cfg.GetMaxScale())
	}
	if cfg.GetDBPath() != config.DefaultDBPath {
		t.Errorf("unset db_path should fall back to %q, got %q", config.DefaultDBPath, cfg.GetDBPath())
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.GetListen() != config.DefaultListen {
		t.Errorf("listen = %q, want default", cfg.GetListen())
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.EmptyViewerConfig()
	applyFlags(cfg, ":1234", "", "127.0.0.1:50051")
	if cfg.GetListen() != ":1234" {
		t.Errorf("listen = %q", cfg.GetListen())
	}
	if cfg.GetDBPath() != config.DefaultDBPath {
		t.Errorf("empty db flag should keep the config value, got %q", cfg.GetDBPath())
	}
	if cfg.GetGRPCListen() != "127.0.0.1:50051" {
		t.Errorf("grpc listen = %q", cfg.GetGRPCListen())
	}
}

func TestNewSession(t *testing.T) {
	cfg := config.EmptyViewerConfig()
	sess := newSession(cfg)
	defer sess.Close()

	st := sess.State()
	if st.View.Scale != config.DefaultScale {
		t.Errorf("scale = %g", st.View.Scale)
	}
	if st.Norm.PMin != config.DefaultPMin || st.Norm.PMax != config.DefaultPMax {
		t.Errorf("norm = %+v", st.Norm)
	}
	if st.ExcludeZero != config.DefaultExcludeZero {
		t.Errorf("exclude_zero = %v", st.ExcludeZero)
	}
}
