package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"drivesync/internal/domain"
)

// fakeStore is an in-memory RemoteStore with scriptable pagination and
// failures.
type fakeStore struct {
	mu       sync.Mutex
	nodes    map[string]domain.RemoteNode
	children map[string][]string // parent id -> ordered child ids
	pageSize int
	nextID   int

	listCalls   int
	createCalls int
	copyCalls   int

	failCopy     map[string]error // source id -> error
	failCopyOnce map[string]error // source id -> error, cleared after first hit
	failList     map[string]error // folder id -> error
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		nodes:    make(map[string]domain.RemoteNode),
		children: make(map[string][]string),
		failCopy:     make(map[string]error),
		failCopyOnce: make(map[string]error),
		failList:     make(map[string]error),
	}
	s.nodes["src-root"] = domain.RemoteNode{ID: "src-root", Name: "source", Kind: domain.KindFolder}
	s.nodes["dst-root"] = domain.RemoteNode{ID: "dst-root", Name: "destination", Kind: domain.KindFolder}
	return s
}

func (s *fakeStore) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

func (s *fakeStore) addFolder(parentID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID("d")
	s.nodes[id] = domain.RemoteNode{ID: id, Name: name, Kind: domain.KindFolder}
	s.children[parentID] = append(s.children[parentID], id)
	return id
}

func (s *fakeStore) addFile(parentID, name string, size int64, checksum, mimeType string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID("f")
	s.nodes[id] = domain.RemoteNode{
		ID: id, Name: name, Kind: domain.KindFile,
		Size: size, Checksum: checksum, MimeType: mimeType,
	}
	s.children[parentID] = append(s.children[parentID], id)
	return id
}

func (s *fakeStore) GetMetadata(_ context.Context, id string) (domain.RemoteNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[id]
	if !ok {
		return domain.RemoteNode{}, domain.Permanent("files.get", 404,
			fmt.Errorf("%s: %w", id, domain.ErrNotFound))
	}
	return node, nil
}

func (s *fakeStore) ListChildren(_ context.Context, parentID, pageToken string) (domain.ChildPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if err := s.failList[parentID]; err != nil {
		return domain.ChildPage{}, err
	}

	ids := s.children[parentID]
	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}

	end := len(ids)
	next := ""
	if s.pageSize > 0 && start+s.pageSize < end {
		end = start + s.pageSize
		next = strconv.Itoa(end)
	}

	page := domain.ChildPage{NextPageToken: next}
	for _, id := range ids[start:end] {
		page.Items = append(page.Items, s.nodes[id])
	}
	return page, nil
}

func (s *fakeStore) FindByName(_ context.Context, parentID, name string, kind domain.NodeKind) (domain.RemoteNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.children[parentID] {
		node := s.nodes[id]
		if node.Name != name {
			continue
		}
		if kind != "" && node.Kind != kind {
			continue
		}
		return node, nil
	}
	return domain.RemoteNode{}, domain.Permanent("files.list", 0,
		fmt.Errorf("%q under %s: %w", name, parentID, domain.ErrNotFound))
}

func (s *fakeStore) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++
	id := s.newID("d")
	s.nodes[id] = domain.RemoteNode{ID: id, Name: name, Kind: domain.KindFolder}
	s.children[parentID] = append(s.children[parentID], id)
	return id, nil
}

func (s *fakeStore) CopyFile(_ context.Context, sourceID, destParentID, destName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.copyCalls++
	if err := s.failCopy[sourceID]; err != nil {
		return "", err
	}
	if err := s.failCopyOnce[sourceID]; err != nil {
		delete(s.failCopyOnce, sourceID)
		return "", err
	}

	src, ok := s.nodes[sourceID]
	if !ok {
		return "", domain.Permanent("files.copy", 404,
			fmt.Errorf("%s: %w", sourceID, domain.ErrNotFound))
	}

	id := s.newID("c")
	s.nodes[id] = domain.RemoteNode{
		ID: id, Name: destName, Kind: domain.KindFile,
		Size: src.Size, Checksum: src.Checksum, MimeType: src.MimeType,
	}
	s.children[destParentID] = append(s.children[destParentID], id)
	return id, nil
}

// findChild returns the direct child of parentID called name, if any.
func (s *fakeStore) findChild(parentID, name string) (domain.RemoteNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.children[parentID] {
		if s.nodes[id].Name == name {
			return s.nodes[id], true
		}
	}
	return domain.RemoteNode{}, false
}
