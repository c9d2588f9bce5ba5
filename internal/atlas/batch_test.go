package atlas

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/atlas-prep-mcp/internal/imaging"
	"github.com/ironsheep/atlas-prep-mcp/internal/ninepatch"
)

func TestAddDir_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", solidImage(5, 5, opaqueRed))
	writePNG(t, dir, "b.png", solidImage(5, 5, opaqueRed))
	writePNG(t, dir, "c.png", solidImage(4, 4, opaqueBlack))
	broken := patchImage(8, 8, 2, 5)
	broken.SetNRGBA(0, 3, color.NRGBA{9, 9, 9, 255})
	writePNG(t, dir, "d.9.png", broken)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "e.png"), []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	g := newIngestor(t, dir, nil)
	report, err := g.AddDir(context.Background(), dir, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 1, report.Aliased)
	assert.Equal(t, 0, report.Canceled)
	require.Len(t, report.Failures, 2)

	var perr *ninepatch.MalformedPatchError
	assert.True(t, errors.As(report.Failures[0].Err, &perr))
	assert.Equal(t, "d", perr.Name)
	var derr *imaging.DecodeError
	assert.True(t, errors.As(report.Failures[1].Err, &derr))
	assert.NotEmpty(t, report.Failures[1].Error)

	rects := g.Images()
	require.Len(t, rects, 2)
	assert.Equal(t, "a", rects[0].Name)
	assert.Equal(t, []string{"b"}, rects[0].AliasNames())
	assert.Equal(t, "c", rects[1].Name)
}

func TestAddFiles_DeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 24; i++ {
		c := opaqueRed
		if i%3 == 0 {
			c = color.NRGBA{uint8(i), 100, 200, 255}
		}
		paths = append(paths, writePNG(t, dir, fmt.Sprintf("frame_%02d.png", i), solidImage(6, 6, c)))
	}

	sequential := newIngestor(t, dir, func(s *Settings) { s.UseIndexes = false })
	for _, p := range paths {
		_, err := sequential.AddFile(p)
		require.NoError(t, err)
	}

	for _, workers := range []int{1, 4, 16} {
		g := newIngestor(t, dir, func(s *Settings) { s.UseIndexes = false })
		report := g.AddFiles(context.Background(), paths, workers)
		assert.Empty(t, report.Failures)

		got, want := g.Images(), sequential.Images()
		require.Len(t, got, len(want), "workers %d", workers)
		for i := range want {
			assert.Equal(t, want[i].Name, got[i].Name, "workers %d", workers)
			assert.Equal(t, want[i].AliasNames(), got[i].AliasNames(), "workers %d", workers)
		}
	}
}

func TestAddFiles_Canceled(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writePNG(t, dir, "one.png", solidImage(2, 2, opaqueRed)),
		writePNG(t, dir, "two.png", solidImage(2, 2, opaqueBlack)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newIngestor(t, dir, nil)
	report := g.AddFiles(ctx, paths, 2)
	assert.Equal(t, len(paths), report.Added+report.Canceled)
	assert.Empty(t, report.Failures)
	assert.Len(t, g.Images(), report.Added)
}

func TestAddDir_Missing(t *testing.T) {
	g := newIngestor(t, "", nil)
	_, err := g.AddDir(context.Background(), filepath.Join(t.TempDir(), "nope"), 1)
	assert.Error(t, err)
}
