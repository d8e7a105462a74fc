package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"prompt-sorter/internal/mediatypes"
	"prompt-sorter/internal/metadata"
	"prompt-sorter/internal/metadata/metadatatest"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "nested", "meta.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMetadataRoundTripIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db := setupTestDB(t)
	ctx := context.Background()

	stamp := metadata.FileStamp{Path: "/img/a.png", Size: 123, ModTime: time.Unix(1700000000, 42)}
	res := metadata.Result{
		Path:      "/img/a.png",
		Container: mediatypes.ContainerPNG,
		Kind:      metadata.KindParsed,
		Triple:    metadata.Triple{Positive: "cat", Negative: "blurry", GenerationInfo: "Steps: 20"},
		Fields:    []metadata.Field{{Key: "parameters", Value: "cat\nNegative prompt: blurry\nSteps: 20"}},
	}

	if _, _, ok, err := db.LookupMetadata(ctx, stamp.Path); ok || err != nil {
		t.Fatalf("Expected miss on empty database, got ok=%v err=%v", ok, err)
	}

	if err := db.SaveMetadata(ctx, stamp, res); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}

	gotStamp, got, ok, err := db.LookupMetadata(ctx, stamp.Path)
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	if gotStamp.Size != stamp.Size || !gotStamp.ModTime.Equal(stamp.ModTime) {
		t.Errorf("Expected stamp %+v, got %+v", stamp, gotStamp)
	}
	if got.Triple != res.Triple || got.Kind != res.Kind || got.Container != res.Container {
		t.Errorf("Expected %+v, got %+v", res, got)
	}
	if len(got.Fields) != 1 || got.Fields[0] != res.Fields[0] {
		t.Errorf("Expected fields %+v, got %+v", res.Fields, got.Fields)
	}

	// Overwrite with no-metadata result
	noMeta := metadata.Result{Path: stamp.Path, Container: mediatypes.ContainerPNG, Kind: metadata.KindNoMetadata}
	stamp.Size = 456
	if err := db.SaveMetadata(ctx, stamp, noMeta); err != nil {
		t.Fatalf("SaveMetadata overwrite failed: %v", err)
	}
	gotStamp, got, _, _ = db.LookupMetadata(ctx, stamp.Path)
	if gotStamp.Size != 456 || got.Kind != metadata.KindNoMetadata || len(got.Fields) != 0 {
		t.Errorf("Expected overwritten entry, got %+v %+v", gotStamp, got)
	}

	n, err := db.CountMetadata(ctx)
	if err != nil || n != 1 {
		t.Errorf("Expected 1 entry, got %d (%v)", n, err)
	}
}

func TestSaveMetadataRejectsErrorsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db := setupTestDB(t)

	res := metadata.Result{Kind: metadata.KindError, Err: &metadata.ExtractionError{Path: "x", Err: errors.New("boom")}}
	if err := db.SaveMetadata(context.Background(), metadata.FileStamp{Path: "x"}, res); err == nil {
		t.Error("Expected error when saving a failed extraction")
	}
}

func TestDeleteMetadataIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db := setupTestDB(t)
	ctx := context.Background()

	for _, p := range []string{"/a.png", "/b.png", "/c.png"} {
		res := metadata.Result{Path: p, Kind: metadata.KindNoMetadata, Container: mediatypes.ContainerPNG}
		if err := db.SaveMetadata(ctx, metadata.FileStamp{Path: p, ModTime: time.Now()}, res); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := db.DeleteMetadata(ctx, []string{"/a.png", "/c.png", "/missing.png"})
	if err != nil {
		t.Fatalf("DeleteMetadata failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 rows removed, got %d", removed)
	}
	if n, _ := db.CountMetadata(ctx); n != 1 {
		t.Errorf("Expected 1 remaining, got %d", n)
	}
	if removed, err := db.DeleteMetadata(ctx, nil); removed != 0 || err != nil {
		t.Errorf("Expected no-op for empty input, got %d, %v", removed, err)
	}
}

func TestCachedExtractorWithDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db := setupTestDB(t)

	path := filepath.Join(t.TempDir(), "a.png")
	metadatatest.WritePNG(t, path, 2, 2, "parameters", "heron\nNegative prompt: fog\nSteps: 9")

	c := metadata.NewCachedExtractor(metadata.NewParser(), db, time.Second)
	first := c.Extract(path)
	second := c.Extract(path)

	if first.Triple != second.Triple || second.Triple.Positive != "heron" {
		t.Errorf("Expected identical cached results, got %+v and %+v", first.Triple, second.Triple)
	}
	if n, _ := db.CountMetadata(context.Background()); n != 1 {
		t.Errorf("Expected 1 cached row, got %d", n)
	}
}
