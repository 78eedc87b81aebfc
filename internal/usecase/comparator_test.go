package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesync/internal/domain"
	"drivesync/internal/pkg/apicache"
)

func compare(t *testing.T, store *fakeStore, detailed bool) *Comparison {
	t.Helper()
	comp := NewComparator(NewEnumerator(store, apicache.New(), nil))
	report, err := comp.Compare(context.Background(), "src-root", "dst-root", detailed)
	require.NoError(t, err)
	return report
}

func TestCompareTotalsAndCompletion(t *testing.T) {
	store := newFakeStore()
	docs := store.addFolder("src-root", "docs")
	store.addFile("src-root", "a.txt", 100, "HA", "text/plain")
	store.addFile(docs, "b.pdf", 200, "HB", "application/pdf")

	store.addFolder("dst-root", "docs")
	store.addFile("dst-root", "a.txt", 100, "HA", "text/plain")

	report := compare(t, store, false)

	assert.Equal(t, 2, report.Source.TotalFiles)
	assert.Equal(t, 1, report.Source.TotalFolders)
	assert.Equal(t, int64(300), report.Source.TotalSize)
	assert.Equal(t, 1, report.Dest.TotalFiles)
	assert.InDelta(t, 50.0, report.CompletionPct, 0.001)

	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, domain.MissingFile, report.Discrepancies[0].Kind)
	assert.Equal(t, "docs/b.pdf", report.Discrepancies[0].Path)

	assert.Nil(t, report.Files)
	assert.Nil(t, report.Folders)
}

func TestCompareEmptySourceIsComplete(t *testing.T) {
	store := newFakeStore()
	store.addFile("dst-root", "leftover.txt", 1, "H", "text/plain")

	report := compare(t, store, false)
	assert.InDelta(t, 100.0, report.CompletionPct, 0.001)
	assert.Empty(t, report.Discrepancies)
}

func TestCompareFileTypeStats(t *testing.T) {
	store := newFakeStore()
	store.addFile("src-root", "a.PDF", 10, "", "application/pdf")
	store.addFile("src-root", "b.pdf", 20, "", "application/pdf")
	store.addFile("src-root", "README", 5, "", "text/plain")

	report := compare(t, store, false)

	types := report.Source.FileTypes
	require.Contains(t, types, "pdf")
	assert.Equal(t, 2, types["pdf"].Count)
	assert.Equal(t, int64(30), types["pdf"].TotalSize)
	require.Contains(t, types, "no_extension")
	assert.Equal(t, 1, types["no_extension"].Count)
}

func TestCompareDepthDistribution(t *testing.T) {
	store := newFakeStore()
	a := store.addFolder("src-root", "a")
	b := store.addFolder(a, "b")
	store.addFolder(b, "c")
	store.addFolder("src-root", "x")

	report := compare(t, store, false)

	depth := report.Source.Depth
	assert.Equal(t, 2, depth.Max)
	assert.InDelta(t, 0.75, depth.Average, 0.001)
	assert.Equal(t, map[int]int{0: 2, 1: 1, 2: 1}, depth.Distribution)
}

func TestCompareExtraFolders(t *testing.T) {
	store := newFakeStore()
	store.addFolder("src-root", "shared")
	store.addFolder("dst-root", "shared")
	store.addFolder("dst-root", "only-here")

	report := compare(t, store, false)
	assert.Equal(t, []string{"only-here"}, report.ExtraFolders)
}

func TestCompareDetailedListings(t *testing.T) {
	store := newFakeStore()
	docs := store.addFolder("src-root", "docs")
	store.addFolder(docs, "old")
	store.addFile("src-root", "same.txt", 10, "H", "text/plain")
	store.addFile("src-root", "changed.txt", 10, "A", "text/plain")
	store.addFile(docs, "gone.txt", 10, "B", "text/plain")

	store.addFolder("dst-root", "docs")
	store.addFile("dst-root", "same.txt", 10, "H", "text/plain")
	store.addFile("dst-root", "changed.txt", 99, "C", "text/plain")

	report := compare(t, store, true)

	require.NotNil(t, report.Files)
	assert.Equal(t, []string{"same.txt"}, report.Files.Matching)
	assert.Equal(t, []string{"docs/gone.txt"}, report.Files.Missing)
	require.Len(t, report.Files.Different, 1)
	assert.Equal(t, "changed.txt", report.Files.Different[0].Path)
	assert.Equal(t, int64(10), report.Files.Different[0].SourceSize)
	assert.Equal(t, int64(99), report.Files.Different[0].DestSize)

	require.NotNil(t, report.Folders)
	assert.Equal(t, []string{"docs"}, report.Folders.Matching)
	assert.Equal(t, []string{"docs/old"}, report.Folders.Missing)
	assert.Empty(t, report.Folders.Extra)
}

func TestTreeLines(t *testing.T) {
	snap := domain.NewTreeSnapshot()
	snap.Folders["docs"] = "d1"
	snap.Folders["docs/2024"] = "d2"
	snap.Files["docs/2024/report.pdf"] = domain.FileInfo{ID: "f1"}
	snap.Files["readme.md"] = domain.FileInfo{ID: "f2"}

	assert.Equal(t, []string{
		"My Drive/",
		"  docs/",
		"    2024/",
		"      report.pdf",
		"  readme.md",
	}, TreeLines("My Drive", snap))
}
