package cmd

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kamusis/sight-cli/internal/config"
	"github.com/kamusis/sight-cli/internal/fingerprint"
	"github.com/kamusis/sight-cli/internal/fingerprint/fingerprinttest"
	"github.com/kamusis/sight-cli/internal/index"
	"github.com/kamusis/sight-cli/internal/indexer"
	"github.com/kamusis/sight-cli/internal/logging"
)

// setupSightTest points SIGHT_HOME at a temp dir and creates a photo
// directory holding three visually distinct PNGs.
func setupSightTest(t *testing.T) (photos string) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("SIGHT_HOME", filepath.Join(tmp, "home"))
	for _, k := range config.EnvKeys() {
		t.Setenv(k, "")
	}

	photos = filepath.Join(tmp, "photos")
	if err := os.MkdirAll(photos, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(photos, "horizontal.png"), func(x, y int) uint8 { return uint8(x * 4) })
	writePNG(t, filepath.Join(photos, "vertical.png"), func(x, y int) uint8 { return uint8(y * 4) })
	writePNG(t, filepath.Join(photos, "checker.png"), func(x, y int) uint8 {
		if (x/8+y/8)%2 == 0 {
			return 255
		}
		return 0
	})
	if err := os.WriteFile(filepath.Join(photos, "notes.txt"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	return photos
}

func writePNG(t *testing.T, path string, shade func(x, y int) uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: shade(x, y)})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// execute runs the root command with args, resetting flag globals first.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	flagIndexDirs, flagIndexWorkers, flagIndexForce = nil, 0, false
	flagSearchJSON = false
	flagPurge = false
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

// captureStdout returns what fn writes to os.Stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w
	out := make(chan string)
	go func() {
		b, _ := io.ReadAll(r)
		out <- string(b)
	}()
	defer func() { os.Stdout = orig }()
	fn()
	_ = w.Close()
	return <-out
}

func loadIndexFile(t *testing.T) *index.File {
	t.Helper()
	a, err := loadApp()
	if err != nil {
		t.Fatal(err)
	}
	f, status, err := index.Load(a.cfg.IndexPath, index.SchemaVersion(a.prov))
	if err != nil {
		t.Fatal(err)
	}
	if status != index.StatusLoaded {
		t.Fatalf("index status = %s, want loaded", status)
	}
	return f
}

func TestIndexThenSearch(t *testing.T) {
	photos := setupSightTest(t)

	if err := execute(t, "init", photos); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := execute(t, "index"); err != nil {
		t.Fatalf("index: %v", err)
	}

	f := loadIndexFile(t)
	if len(f.Entries) != 3 {
		t.Fatalf("index has %d entries, want 3", len(f.Entries))
	}
	created := f.CreatedAt

	query := filepath.Join(photos, "checker.png")
	var runErr error
	out := captureStdout(t, func() { runErr = execute(t, "search", query, "--json") })
	if runErr != nil {
		t.Fatalf("search: %v", runErr)
	}
	var hits []searchHit
	if err := json.Unmarshal([]byte(out), &hits); err != nil {
		t.Fatalf("search output is not JSON: %v\n%s", err, out)
	}
	if len(hits) == 0 {
		t.Fatal("search returned no results")
	}
	if filepath.Base(hits[0].Path) != "checker.png" || hits[0].Distance != 0 {
		t.Errorf("best match = %+v, want checker.png at distance 0", hits[0])
	}

	// A second pass finds nothing new and keeps the creation time.
	if err := execute(t, "index"); err != nil {
		t.Fatalf("second index: %v", err)
	}
	f = loadIndexFile(t)
	if len(f.Entries) != 3 {
		t.Errorf("after reindex: %d entries, want 3", len(f.Entries))
	}
	if f.CreatedAt != created {
		t.Errorf("created_at changed: %s -> %s", created, f.CreatedAt)
	}
}

func TestIndex_DeletedFileIsDropped(t *testing.T) {
	photos := setupSightTest(t)
	if err := execute(t, "init", photos); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "index"); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(photos, "vertical.png")); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "index"); err != nil {
		t.Fatal(err)
	}
	for _, e := range loadIndexFile(t).Entries {
		if filepath.Base(e.Path) == "vertical.png" {
			t.Error("deleted file is still indexed")
		}
	}
}

func TestIndex_NoDirectories(t *testing.T) {
	setupSightTest(t)
	err := execute(t, "index")
	if err == nil || !strings.Contains(err.Error(), "no directories configured") {
		t.Fatalf("err = %v, want no directories configured", err)
	}
}

func TestSearch_UndecodableQuery(t *testing.T) {
	photos := setupSightTest(t)
	err := execute(t, "search", filepath.Join(photos, "notes.txt"))
	if err == nil || !strings.Contains(err.Error(), fingerprint.ErrDecode.Error()) {
		t.Fatalf("err = %v, want decode error", err)
	}
}

func TestDirsRemovePurge(t *testing.T) {
	photos := setupSightTest(t)
	if err := execute(t, "init", photos); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "index"); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "dirs", "remove", photos, "--purge"); err != nil {
		t.Fatalf("dirs remove: %v", err)
	}

	a, err := loadApp()
	if err != nil {
		t.Fatal(err)
	}
	if len(a.cfg.Directories) != 0 {
		t.Errorf("directories = %v, want none", a.cfg.Directories)
	}
	if n := len(loadIndexFile(t).Entries); n != 0 {
		t.Errorf("index has %d entries after purge, want 0", n)
	}
}

func TestClear(t *testing.T) {
	photos := setupSightTest(t)
	if err := execute(t, "init", photos); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "index"); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	a, err := loadApp()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(a.cfg.IndexPath); !os.IsNotExist(err) {
		t.Errorf("index file still present: %v", err)
	}
}

func TestUnderAny(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "photos")
	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "a.png"), true},
		{filepath.Join(root, "trip", "b.png"), true},
		{filepath.Join(string(filepath.Separator), "photos-old", "c.png"), false},
		{filepath.Join(string(filepath.Separator), "other", "d.png"), false},
	}
	for _, c := range cases {
		if got := underAny(c.path, []string{root}); got != c.want {
			t.Errorf("underAny(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestWatchPass_SaveFailureKeepsWatching(t *testing.T) {
	tmp := t.TempDir()
	photos := filepath.Join(tmp, "photos")
	if err := os.MkdirAll(photos, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(photos, "a.png"), []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	// The index directory is a regular file, so every save fails.
	blocker := filepath.Join(tmp, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	a := &app{
		cfg:  &config.Config{IndexPath: filepath.Join(blocker, "index.json")},
		prov: &fingerprinttest.Provider{},
		log:  logging.New(io.Discard, logging.Config{}),
	}
	table := index.NewTable(nil)
	runner := indexer.NewRunner(a.prov, table)
	runner.CommitCancelled = true

	if err := a.watchPass(context.Background(), runner, []string{photos}, table, nil); err != nil {
		t.Fatalf("watchPass returned %v, want nil after a failed save", err)
	}
	if n := table.Snapshot().Len(); n != 1 {
		t.Errorf("table has %d entries, want the committed 1", n)
	}

	// The next pass still runs and tries to save again.
	if err := os.WriteFile(filepath.Join(photos, "b.png"), []byte("2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := a.watchPass(context.Background(), runner, []string{photos}, table, nil); err != nil {
		t.Fatalf("second watchPass: %v", err)
	}
	if n := table.Snapshot().Len(); n != 2 {
		t.Errorf("table has %d entries, want 2", n)
	}
}
