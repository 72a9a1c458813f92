package sysimage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hopper/internal/sysimage"
)

func writeImage(t *testing.T, size int64, withMagic bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system.img")
	data := make([]byte, size)
	if withMagic && size > 1024+0x39 {
		data[1024+0x38] = 0x53
		data[1024+0x39] = 0xEF
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func TestMountValidImage(t *testing.T) {
	path := writeImage(t, 8192, true)

	img, err := sysimage.Mount(path, nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer img.Unmount()

	if img.Size() != 8192 {
		t.Fatalf("size = %d", img.Size())
	}
	if img.Path() != path {
		t.Fatalf("path = %q", img.Path())
	}

	buf := make([]byte, 2)
	if _, err := img.ReaderAt().ReadAt(buf, 1024+0x38); err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if buf[0] != 0x53 || buf[1] != 0xEF {
		t.Fatalf("magic read = %x", buf)
	}
}

func TestMountRejectsSmallImage(t *testing.T) {
	path := writeImage(t, 2048, false)
	_, err := sysimage.Mount(path, nil)
	if !errors.Is(err, sysimage.ErrImageTruncated) {
		t.Fatalf("expected truncated error, got %v", err)
	}
}

func TestMountRejectsUnalignedImage(t *testing.T) {
	path := writeImage(t, 8193, true)
	_, err := sysimage.Mount(path, nil)
	if !errors.Is(err, sysimage.ErrImageTruncated) {
		t.Fatalf("expected truncated error, got %v", err)
	}
}

func TestMountRejectsBadMagic(t *testing.T) {
	path := writeImage(t, 8192, false)
	_, err := sysimage.Mount(path, nil)
	if !errors.Is(err, sysimage.ErrImageMagic) {
		t.Fatalf("expected magic error, got %v", err)
	}
}

func TestMountMissingImage(t *testing.T) {
	if _, err := sysimage.Mount(filepath.Join(t.TempDir(), "absent.img"), nil); err == nil {
		t.Fatal("expected error for missing image")
	}
}

func TestUnmountIdempotent(t *testing.T) {
	img, err := sysimage.Mount(writeImage(t, 8192, true), nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if err := img.Unmount(); err != nil {
		t.Fatalf("Unmount failed: %v", err)
	}
	if err := img.Unmount(); err != nil {
		t.Fatalf("second Unmount should be a no-op: %v", err)
	}
}
