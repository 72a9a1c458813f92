package pathgen_test

import (
	"errors"
	"strings"
	"testing"

	"hopper/internal/pathgen"
)

func TestBuildPathRoundTrip(t *testing.T) {
	got, err := pathgen.BuildPath("sdmc:/out", "normal_name", ".bin")
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if want := "sdmc:/out/normal_name.bin"; got != want {
		t.Fatalf("BuildPath = %q, want %q", got, want)
	}
}

func TestBuildPathSeparatorHandling(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
		file   string
		ext    string
		want   string
	}{
		{"prefix with trailing separator", "dumps/", "game", ".xci", "dumps/game.xci"},
		{"no prefix", "", "game", ".xci", "game.xci"},
		{"no extension", "dumps", "game", "", "dumps/game"},
		{"nested prefix", "/mnt/hopper/dumps", "game", ".xci", "/mnt/hopper/dumps/game.xci"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pathgen.BuildPath(tc.prefix, tc.file, tc.ext)
			if err != nil {
				t.Fatalf("BuildPath failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("BuildPath = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildPathEmptyName(t *testing.T) {
	if _, err := pathgen.BuildPath("dumps", "", ".bin"); !errors.Is(err, pathgen.ErrEmptyName) {
		t.Fatalf("empty name: got %v, want ErrEmptyName", err)
	}
}

func TestBuildPathPreservesExtensionUnderTruncation(t *testing.T) {
	name := strings.Repeat("a", 300)
	got, err := pathgen.BuildPath("dumps", name, ".bin")
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}

	final := got[strings.LastIndex(got, "/")+1:]
	if !strings.HasSuffix(final, ".bin") {
		t.Fatalf("final segment %q lost its extension", final)
	}
	if len(final) > pathgen.MaxNameBytes {
		t.Fatalf("final segment is %d bytes, cap is %d", len(final), pathgen.MaxNameBytes)
	}
	if want := strings.Repeat("a", 251) + ".bin"; final != want {
		t.Fatalf("final segment = %q, want %q", final, want)
	}
}

func TestBuildPathTruncatesOnCodepointBoundary(t *testing.T) {
	name := strings.Repeat("ポ", 100) // 300 bytes of three-byte runes
	got, err := pathgen.BuildPath("", name, "")
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if len(got) != 255 {
		t.Fatalf("truncated to %d bytes, want 255", len(got))
	}
	if got != strings.Repeat("ポ", 85) {
		t.Fatalf("truncation split a codepoint: %q", got)
	}
}

func TestBuildPathClampsIntermediateSegments(t *testing.T) {
	dir := strings.Repeat("d", 300)
	got, err := pathgen.BuildPath(dir, "file", ".log")
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if want := strings.Repeat("d", 255) + "/file.log"; got != want {
		t.Fatalf("BuildPath = %q, want %q", got, want)
	}
}

func TestBuildPathExtensionTooLong(t *testing.T) {
	name := strings.Repeat("a", 300)
	ext := "." + strings.Repeat("b", 255)
	if _, err := pathgen.BuildPath("dumps", name, ext); !errors.Is(err, pathgen.ErrExtensionTooLong) {
		t.Fatalf("oversized extension: got %v, want ErrExtensionTooLong", err)
	}
}

func TestBuildPathTotalCeiling(t *testing.T) {
	segment := strings.Repeat("s", 250)
	parts := make([]string, 17)
	for i := range parts {
		parts[i] = segment
	}
	prefix := strings.Join(parts, "/")

	if _, err := pathgen.BuildPath(prefix, "tail", ".bin"); !errors.Is(err, pathgen.ErrPathTooLong) {
		t.Fatalf("oversized path: got %v, want ErrPathTooLong", err)
	}

	shorter := strings.Join(parts[:4], "/")
	got, err := pathgen.BuildPath(shorter, "tail", ".bin")
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if len(got) >= pathgen.MaxPathBytes {
		t.Fatalf("accepted path of %d bytes, cap is %d", len(got), pathgen.MaxPathBytes)
	}
}

func TestBuildPathKeepsShortSegmentsIntact(t *testing.T) {
	exact := strings.Repeat("e", pathgen.MaxNameBytes)
	got, err := pathgen.BuildPath(exact, exact, "")
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if want := exact + "/" + exact; got != want {
		t.Fatalf("segments at the cap were modified: %q", got)
	}
}
