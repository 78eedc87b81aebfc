package usecase

import (
	"sort"
	"strings"

	"drivesync/internal/domain"
)

// TreeLines renders a snapshot as indented text lines, one entry per line,
// folders suffixed with a slash. Entries under a folder appear after it,
// sorted by path.
func TreeLines(rootName string, snap *domain.TreeSnapshot) []string {
	type entry struct {
		path     string
		isFolder bool
	}

	entries := make([]entry, 0, len(snap.Files)+len(snap.Folders))
	for path := range snap.Folders {
		entries = append(entries, entry{path: path, isFolder: true})
	}
	for path := range snap.Files {
		entries = append(entries, entry{path: path})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, rootName+"/")
	for _, e := range entries {
		depth := strings.Count(e.path, "/")
		name := e.path[strings.LastIndex(e.path, "/")+1:]
		if e.isFolder {
			name += "/"
		}
		lines = append(lines, strings.Repeat("  ", depth+1)+name)
	}
	return lines
}
