package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.sh")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, "REPLICATE_SETS=pool/a:pool/b\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SnapKeep != 2 {
		t.Errorf("SnapKeep = %d; want 2", cfg.SnapKeep)
	}
	if cfg.SnapPattern != "@autorep-" {
		t.Errorf("SnapPattern = %q; want @autorep-", cfg.SnapPattern)
	}
	if !cfg.Syslog {
		t.Errorf("Syslog = false; want true (default)")
	}
	if cfg.AllowRootDatasets {
		t.Errorf("AllowRootDatasets = true; want false (default)")
	}
}

func TestLoad_MissingReplicateSets(t *testing.T) {
	p := writeConfig(t, "SNAP_KEEP=3\n")
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for missing REPLICATE_SETS")
	}
}

func TestLoad_SnapKeepBelowMinimum(t *testing.T) {
	p := writeConfig(t, "REPLICATE_SETS=pool/a:pool/b\nSNAP_KEEP=1\n")
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for SNAP_KEEP < 2")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeConfig(t, "REPLICATE_SETS=pool/a:pool/b\nSNAP_KEEP=3\n")
	t.Setenv("SNAP_KEEP", "5")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SnapKeep != 5 {
		t.Errorf("SnapKeep = %d; want 5 (from env)", cfg.SnapKeep)
	}
}

func TestLoad_TOMLDefaultsFragment(t *testing.T) {
	p := writeConfig(t, `REPLICATE_SETS=pool/a:pool/b
SNAP_KEEP=2
+++
[pair."pool/a:pool/b"]
recurse_children = true
snap_keep = 4
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	recurse, keep := cfg.ForPair("pool/a:pool/b")
	if !recurse {
		t.Errorf("ForPair recurse = false; want true (from TOML override)")
	}
	if keep != 4 {
		t.Errorf("ForPair snapKeep = %d; want 4", keep)
	}

	otherRecurse, otherKeep := cfg.ForPair("pool/c:pool/d")
	if otherRecurse {
		t.Errorf("ForPair(unlisted) recurse = true; want cfg default false")
	}
	if otherKeep != 2 {
		t.Errorf("ForPair(unlisted) snapKeep = %d; want cfg default 2", otherKeep)
	}
}

func TestLoad_ZFSOptsSplitOnWhitespace(t *testing.T) {
	p := writeConfig(t, "REPLICATE_SETS=pool/a:pool/b\nZFS_RECV_OPTS=-F -v -u\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"-F", "-v", "-u"}
	if len(cfg.ZFSRecvOpts) != len(want) {
		t.Fatalf("ZFSRecvOpts = %v; want %v", cfg.ZFSRecvOpts, want)
	}
	for i := range want {
		if cfg.ZFSRecvOpts[i] != want[i] {
			t.Fatalf("ZFSRecvOpts = %v; want %v", cfg.ZFSRecvOpts, want)
		}
	}
}
