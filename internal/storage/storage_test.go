package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hopper/internal/hostsvc"
	"hopper/internal/storage"
	"hopper/internal/testsupport"
)

func TestOpenValidatesMount(t *testing.T) {
	if _, err := storage.Open("", nil); err == nil {
		t.Fatal("expected error for empty mount")
	}

	missing := filepath.Join(t.TempDir(), "absent")
	_, err := storage.Open(missing, nil)
	if err == nil {
		t.Fatal("expected error for missing mount")
	}
	if !errors.Is(err, hostsvc.ErrUnavailable) {
		t.Fatalf("error not tagged unavailable: %v", err)
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := storage.Open(file, nil); err == nil {
		t.Fatal("expected error for non-directory mount")
	}
}

func TestVolumeStatsAndPath(t *testing.T) {
	mount := t.TempDir()
	vol, err := storage.Open(mount, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	stats, err := vol.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalBytes == 0 {
		t.Fatal("total bytes should be nonzero on a real filesystem")
	}
	if stats.FreeLabel() == "" {
		t.Fatal("free label should render")
	}

	want := filepath.Join(mount, "dumps", "title.bin")
	if got := vol.Path("dumps", "title.bin"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
}

func TestVolumeCommit(t *testing.T) {
	vol, err := storage.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := vol.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func TestEnsureOutputDirs(t *testing.T) {
	mount := t.TempDir()
	vol, err := storage.Open(mount, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := vol.EnsureOutputDirs(); err != nil {
		t.Fatalf("EnsureOutputDirs failed: %v", err)
	}
	for _, dir := range []string{"dumps", "staging", "reports", "keys"} {
		info, err := os.Stat(filepath.Join(mount, dir))
		if err != nil || !info.IsDir() {
			t.Fatalf("output dir %q missing (err=%v)", dir, err)
		}
	}
	// Second call over existing directories succeeds.
	if err := vol.EnsureOutputDirs(); err != nil {
		t.Fatalf("repeat EnsureOutputDirs failed: %v", err)
	}
}

func TestFileExistsAndEnsureTree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "c.bin")
	if storage.FileExists(path) {
		t.Fatal("missing file reported as existing")
	}
	if err := storage.EnsureParent(path); err != nil {
		t.Fatalf("EnsureParent failed: %v", err)
	}
	testsupport.WriteFile(t, path, 16)
	if !storage.FileExists(path) {
		t.Fatal("existing file not reported")
	}
	if storage.FileExists(filepath.Dir(path)) {
		t.Fatal("directory must not count as file")
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	testsupport.WriteFile(t, src, 64*1024+17)

	if err := storage.CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified failed: %v", err)
	}
	srcData, _ := os.ReadFile(src)
	dstData, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(srcData) != string(dstData) {
		t.Fatal("copied content differs")
	}

	if err := storage.CopyFileVerified(filepath.Join(dir, "nope"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestSplitLifecycle(t *testing.T) {
	dir := t.TempDir()
	split := filepath.Join(dir, "bigdump.bin")

	if err := storage.CreateSplit(split); err != nil {
		t.Fatalf("CreateSplit failed: %v", err)
	}
	if !storage.IsSplit(split) {
		t.Fatal("created split not recognized")
	}

	// Grow a second part and confirm ordering.
	testsupport.WriteFile(t, filepath.Join(split, "01"), 8)
	parts, err := storage.SplitParts(split)
	if err != nil {
		t.Fatalf("SplitParts failed: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(parts))
	}
	if filepath.Base(parts[0]) != "00" || filepath.Base(parts[1]) != "01" {
		t.Fatalf("parts out of order: %v", parts)
	}

	if err := storage.RemoveSplit(split); err != nil {
		t.Fatalf("RemoveSplit failed: %v", err)
	}
	if _, err := os.Stat(split); !os.IsNotExist(err) {
		t.Fatal("split not removed")
	}
	if err := storage.RemoveSplit(split); err != nil {
		t.Fatalf("RemoveSplit on missing path should be a no-op: %v", err)
	}
}

func TestCreateSplitRefusesForeignDirectory(t *testing.T) {
	dir := t.TempDir()
	foreign := filepath.Join(dir, "data")
	testsupport.WriteFile(t, filepath.Join(foreign, "precious.txt"), 8)

	if err := storage.CreateSplit(foreign); err == nil {
		t.Fatal("expected error for foreign directory")
	}
	if !storage.FileExists(filepath.Join(foreign, "precious.txt")) {
		t.Fatal("foreign directory contents were destroyed")
	}
}

func TestRemoveSplitLeavesForeignDirectories(t *testing.T) {
	dir := t.TempDir()
	foreign := filepath.Join(dir, "data")
	testsupport.WriteFile(t, filepath.Join(foreign, "precious.txt"), 8)

	if err := storage.RemoveSplit(foreign); err != nil {
		t.Fatalf("RemoveSplit failed: %v", err)
	}
	if !storage.FileExists(filepath.Join(foreign, "precious.txt")) {
		t.Fatal("foreign directory was removed")
	}
}

func TestCreateSplitReplacesRegularFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "dump.bin")
	testsupport.WriteFile(t, target, 32)

	if err := storage.CreateSplit(target); err != nil {
		t.Fatalf("CreateSplit over file failed: %v", err)
	}
	if !storage.IsSplit(target) {
		t.Fatal("replacement split not recognized")
	}
}
