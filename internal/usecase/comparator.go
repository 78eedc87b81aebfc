package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"drivesync/internal/domain"
)

// TypeStat aggregates files sharing one extension.
type TypeStat struct {
	Count     int
	TotalSize int64
}

// DepthStats describes the folder-depth distribution of a tree.
type DepthStats struct {
	Max          int
	Average      float64
	Distribution map[int]int
}

// SideStats summarizes one tree.
type SideStats struct {
	TotalFiles   int
	TotalFolders int
	TotalSize    int64
	FileTypes    map[string]*TypeStat
	Depth        DepthStats
}

// FileDetails lists per-file outcomes, only populated in detailed mode.
type FileDetails struct {
	Matching  []string
	Different []domain.Discrepancy
	Missing   []string
}

// FolderDetails lists per-folder outcomes, only populated in detailed mode.
type FolderDetails struct {
	Matching []string
	Missing  []string
	Extra    []string
}

// Comparison is the audit-mode report for a source/destination pair.
type Comparison struct {
	Source        SideStats
	Dest          SideStats
	Discrepancies []domain.Discrepancy
	ExtraFolders  []string
	CompletionPct float64
	Elapsed       time.Duration

	// Nil unless detailed mode was requested.
	Files   *FileDetails
	Folders *FolderDetails
}

// Comparator computes audit reports over two independently-rooted trees.
// Purely read-only.
type Comparator struct {
	enum *TreeEnumerator
}

// NewComparator returns a comparator using enum for both trees.
func NewComparator(enum *TreeEnumerator) *Comparator {
	return &Comparator{enum: enum}
}

// Compare enumerates both trees and builds the report. detailed adds the
// per-file and per-folder listings.
func (c *Comparator) Compare(ctx context.Context, sourceID, destID string, detailed bool) (*Comparison, error) {
	start := time.Now()

	source, err := c.enum.Enumerate(ctx, sourceID, "source")
	if err != nil {
		return nil, err
	}
	dest, err := c.enum.Enumerate(ctx, destID, "destination")
	if err != nil {
		return nil, err
	}

	report := &Comparison{
		Source:        sideStats(source),
		Dest:          sideStats(dest),
		Discrepancies: CollectDiscrepancies(source, dest),
		ExtraFolders:  extraFolders(source, dest),
		CompletionPct: completionPct(source, dest),
		Elapsed:       time.Since(start),
	}
	if detailed {
		report.Files = fileDetails(source, dest)
		report.Folders = folderDetails(source, dest)
	}
	return report, nil
}

// completionPct is |dest.files| / |source.files| * 100, defined as 100 when
// the source is empty.
func completionPct(source, dest *domain.TreeSnapshot) float64 {
	if len(source.Files) == 0 {
		return 100
	}
	return float64(len(dest.Files)) / float64(len(source.Files)) * 100
}

func sideStats(snap *domain.TreeSnapshot) SideStats {
	stats := SideStats{
		TotalFiles:   len(snap.Files),
		TotalFolders: len(snap.Folders),
		FileTypes:    make(map[string]*TypeStat),
	}

	for path, f := range snap.Files {
		stats.TotalSize += f.Size

		ext := "no_extension"
		if i := strings.LastIndex(path, "."); i >= 0 && i > strings.LastIndex(path, "/") {
			ext = strings.ToLower(path[i+1:])
		}
		ts, ok := stats.FileTypes[ext]
		if !ok {
			ts = &TypeStat{}
			stats.FileTypes[ext] = ts
		}
		ts.Count++
		ts.TotalSize += f.Size
	}

	stats.Depth = depthStats(snap.Folders)
	return stats
}

func depthStats(folders map[string]string) DepthStats {
	ds := DepthStats{Distribution: make(map[int]int)}
	if len(folders) == 0 {
		return ds
	}

	sum := 0
	for path := range folders {
		depth := strings.Count(path, "/")
		ds.Distribution[depth]++
		sum += depth
		if depth > ds.Max {
			ds.Max = depth
		}
	}
	ds.Average = float64(sum) / float64(len(folders))
	return ds
}

func extraFolders(source, dest *domain.TreeSnapshot) []string {
	var extra []string
	for path := range dest.Folders {
		if _, ok := source.Folders[path]; !ok {
			extra = append(extra, path)
		}
	}
	sort.Strings(extra)
	return extra
}

func fileDetails(source, dest *domain.TreeSnapshot) *FileDetails {
	d := &FileDetails{}
	for path, src := range source.Files {
		dst, ok := dest.Files[path]
		switch {
		case !ok:
			d.Missing = append(d.Missing, path)
		case src.Size != dst.Size:
			d.Different = append(d.Different, domain.Discrepancy{
				Kind:       domain.SizeMismatch,
				Path:       path,
				SourceSize: src.Size,
				DestSize:   dst.Size,
			})
		default:
			d.Matching = append(d.Matching, path)
		}
	}
	sort.Strings(d.Matching)
	sort.Strings(d.Missing)
	sort.Slice(d.Different, func(i, j int) bool { return d.Different[i].Path < d.Different[j].Path })
	return d
}

func folderDetails(source, dest *domain.TreeSnapshot) *FolderDetails {
	d := &FolderDetails{}
	for path := range source.Folders {
		if _, ok := dest.Folders[path]; ok {
			d.Matching = append(d.Matching, path)
		} else {
			d.Missing = append(d.Missing, path)
		}
	}
	d.Extra = extraFolders(source, dest)
	sort.Strings(d.Matching)
	sort.Strings(d.Missing)
	return d
}
