package usecase

import (
	"context"

	log "github.com/sirupsen/logrus"

	"drivesync/internal/domain"
	"drivesync/internal/pkg/apicache"
)

// TreeEnumerator walks a remote folder into a TreeSnapshot. Listings are
// paginated transparently and whole snapshots are memoized in the response
// cache, so enumerating the same root twice within the TTL costs no remote
// calls.
type TreeEnumerator struct {
	store domain.RemoteStore
	cache *apicache.Cache
	sink  domain.ProgressSink
}

// NewEnumerator returns an enumerator over store. sink may be nil.
func NewEnumerator(store domain.RemoteStore, cache *apicache.Cache, sink domain.ProgressSink) *TreeEnumerator {
	return &TreeEnumerator{store: store, cache: cache, sink: sink}
}

// SnapshotKey is the cache key under which a root's snapshot is stored.
func SnapshotKey(rootID string) string {
	return apicache.Key("tree_snapshot", rootID)
}

func countKey(rootID string) string {
	return apicache.Key("item_count", rootID)
}

type frame struct {
	id   string
	path string
}

// Enumerate lists the whole tree under rootID. A listing failure inside a
// subtree is logged and abandons that subtree only, leaving the snapshot
// under-populated; transient failures have already been retried by the rate
// governor below the store. side labels progress output.
func (e *TreeEnumerator) Enumerate(ctx context.Context, rootID, side string) (*domain.TreeSnapshot, error) {
	if v, ok := e.cache.Get(SnapshotKey(rootID)); ok {
		log.WithField("root", rootID).Debug("Using cached tree snapshot")
		return v.(*domain.TreeSnapshot), nil
	}

	// Cosmetic only: a failed pre-count renders as 0% and never affects the
	// walk itself.
	total := e.CountItems(ctx, rootID)

	snap := domain.NewTreeSnapshot()
	processed := 0

	// Explicit work stack instead of recursion, so depth is bounded only by
	// memory.
	stack := []frame{{id: rootID, path: ""}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		pageToken := ""
		for {
			page, err := e.store.ListChildren(ctx, cur.id, pageToken)
			if err != nil {
				log.WithError(err).WithFields(log.Fields{
					"folder": cur.id,
					"path":   cur.path,
				}).Error("Listing failed, abandoning subtree")
				break
			}
			log.WithFields(log.Fields{
				"path":  cur.path,
				"items": len(page.Items),
			}).Debug("Listed folder page")

			for _, item := range page.Items {
				processed++
				if e.sink != nil {
					e.sink.Enumerating(side, processed, total)
				}

				currentPath := item.Name
				if cur.path != "" {
					currentPath = cur.path + "/" + item.Name
				}

				if item.IsFolder() {
					snap.Folders[currentPath] = item.ID
					stack = append(stack, frame{id: item.ID, path: currentPath})
				} else {
					snap.Files[currentPath] = domain.FileInfo{
						ID:       item.ID,
						Size:     item.Size,
						Checksum: item.Checksum,
						MimeType: item.MimeType,
					}
				}
			}

			pageToken = page.NextPageToken
			if pageToken == "" {
				break
			}
		}
	}

	log.WithFields(log.Fields{
		"side":    side,
		"files":   len(snap.Files),
		"folders": len(snap.Folders),
	}).Info("Enumeration complete")

	e.cache.Set(SnapshotKey(rootID), snap)
	return snap, nil
}

// CountItems counts every entry under rootID, memoized per root. Errors make
// it return 0: the count only feeds progress display.
func (e *TreeEnumerator) CountItems(ctx context.Context, rootID string) int {
	if v, ok := e.cache.Get(countKey(rootID)); ok {
		return v.(int)
	}

	total := 0
	stack := []string{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		pageToken := ""
		for {
			page, err := e.store.ListChildren(ctx, id, pageToken)
			if err != nil {
				log.WithError(err).WithField("folder", id).Warn("Count pass failed")
				return 0
			}
			total += len(page.Items)
			for _, item := range page.Items {
				if item.IsFolder() {
					stack = append(stack, item.ID)
				}
			}
			pageToken = page.NextPageToken
			if pageToken == "" {
				break
			}
		}
	}

	e.cache.Set(countKey(rootID), total)
	return total
}
