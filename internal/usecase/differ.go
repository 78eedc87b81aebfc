package usecase

import (
	"sort"
	"strings"

	"drivesync/internal/domain"
)

// Diff computes the copy plan transforming dest toward source. A file is
// scheduled when it is absent from dest, when sizes differ, or when both
// sides carry a checksum and they differ. Size mismatch alone is sufficient:
// size is the cheap, always-available signal, the checksum a stronger
// optional confirmation. Files only present in dest are left alone.
func Diff(source, dest *domain.TreeSnapshot) domain.DiffPlan {
	var plan domain.DiffPlan
	for path, src := range source.Files {
		dst, exists := dest.Files[path]
		if !exists {
			plan.Copies = append(plan.Copies, domain.CopyTask{SourceID: src.ID, Path: path})
			continue
		}
		if src.Size != dst.Size {
			plan.Copies = append(plan.Copies, domain.CopyTask{SourceID: src.ID, Path: path})
			continue
		}
		if src.Checksum != "" && dst.Checksum != "" && src.Checksum != dst.Checksum {
			plan.Copies = append(plan.Copies, domain.CopyTask{SourceID: src.ID, Path: path})
		}
	}

	// Deterministic order for logging and tests; the copy pass does not
	// depend on it.
	sort.Slice(plan.Copies, func(i, j int) bool {
		return plan.Copies[i].Path < plan.Copies[j].Path
	})
	return plan
}

// MissingFolders returns the folder paths present in source but not in dest,
// sorted shallowest first so parents are always created before children.
func MissingFolders(source, dest *domain.TreeSnapshot) []string {
	var missing []string
	for path := range source.Folders {
		if _, ok := dest.Folders[path]; !ok {
			missing = append(missing, path)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		di, dj := strings.Count(missing[i], "/"), strings.Count(missing[j], "/")
		if di != dj {
			return di < dj
		}
		return missing[i] < missing[j]
	})
	return missing
}
