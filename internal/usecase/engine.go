package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"drivesync/internal/domain"
	"drivesync/internal/pkg/apicache"
)

// Phase names one step of the sync pipeline.
type Phase string

const (
	PhaseInit            Phase = "init"
	PhasePreflight       Phase = "preflight"
	PhaseEnumerateSource Phase = "enumerate_source"
	PhaseEnumerateDest   Phase = "enumerate_destination"
	PhaseDiff            Phase = "diff"
	PhaseCreateFolders   Phase = "create_folders"
	PhaseCopyFiles       Phase = "copy_files"
	PhaseValidate        Phase = "validate"
	PhaseDone            Phase = "done"
	PhaseFailed          Phase = "failed"
)

// Confirmer is an optional hook letting the caller approve the plan before
// any mutation happens.
type Confirmer interface {
	ConfirmPlan(copies, folders int) (bool, error)
}

// EngineConfig is the configuration surface the engine consumes.
type EngineConfig struct {
	SourceRootID    string
	DestRootID      string
	Workers         int
	BatchSize       int
	FinalValidation bool
	AutoFixMissing  bool
}

// Result summarizes a sync run.
type Result struct {
	Stats         Stats
	Discrepancies []domain.Discrepancy
	Cancelled     bool
}

// Engine reconciles the destination tree with the source tree: enumerate
// both, diff, create missing folders shallowest-first, copy missing or
// changed files, and optionally validate the outcome. Phases run
// sequentially; only independent file copies within the copy phase are
// parallelized.
type Engine struct {
	store     domain.RemoteStore
	cache     *apicache.Cache
	enum      *TreeEnumerator
	validator *Validator
	tracker   *Tracker
	confirmer Confirmer
	cfg       EngineConfig
}

// NewEngine wires an engine over store. confirmer may be nil.
func NewEngine(store domain.RemoteStore, cache *apicache.Cache, tracker *Tracker, confirmer Confirmer, cfg EngineConfig) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	enum := NewEnumerator(store, cache, tracker)
	return &Engine{
		store:     store,
		cache:     cache,
		enum:      enum,
		validator: NewValidator(enum),
		tracker:   tracker,
		confirmer: confirmer,
		cfg:       cfg,
	}
}

func (e *Engine) phase(p Phase) {
	log.WithField("phase", p).Info("Sync phase")
}

// Run executes one sync pass. The returned Result always carries the final
// counters; the error is non-nil when preflight fails, any copy failed, or
// validation found discrepancies. Partial success is reported as failure
// with counts, never silently as success.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	e.phase(PhasePreflight)
	if err := e.preflight(ctx); err != nil {
		e.phase(PhaseFailed)
		return Result{Stats: e.tracker.Snapshot()}, err
	}

	e.phase(PhaseEnumerateSource)
	source, err := e.enum.Enumerate(ctx, e.cfg.SourceRootID, "source")
	if err != nil {
		e.phase(PhaseFailed)
		return Result{Stats: e.tracker.Snapshot()}, fmt.Errorf("enumerate source: %w", err)
	}

	e.phase(PhaseEnumerateDest)
	dest, err := e.enum.Enumerate(ctx, e.cfg.DestRootID, "destination")
	if err != nil {
		e.phase(PhaseFailed)
		return Result{Stats: e.tracker.Snapshot()}, fmt.Errorf("enumerate destination: %w", err)
	}

	e.tracker.SetTotals(len(source.Files), len(source.Folders))

	e.phase(PhaseDiff)
	plan := Diff(source, dest)
	missing := MissingFolders(source, dest)
	log.WithFields(log.Fields{
		"copies":          len(plan.Copies),
		"missing_folders": len(missing),
	}).Info("Diff computed")

	if e.confirmer != nil {
		ok, err := e.confirmer.ConfirmPlan(len(plan.Copies), len(missing))
		if err != nil {
			return Result{Stats: e.tracker.Snapshot()}, err
		}
		if !ok {
			log.Info("Sync cancelled by user")
			return Result{Stats: e.tracker.Snapshot(), Cancelled: true}, nil
		}
	}

	// The snapshot stays immutable; folder creation works on its own copy of
	// the destination folder mapping.
	folders := newFolderMap(dest.Folders)

	e.phase(PhaseCreateFolders)
	e.createFolders(ctx, missing, folders)

	e.phase(PhaseCopyFiles)
	if err := e.copyFiles(ctx, source, plan, folders); err != nil {
		e.phase(PhaseFailed)
		return Result{Stats: e.tracker.Snapshot()}, err
	}

	// The destination changed under us: the next enumeration must not see
	// the pre-copy snapshot.
	e.invalidateDest()

	var discrepancies []domain.Discrepancy
	if e.cfg.FinalValidation {
		e.phase(PhaseValidate)
		discrepancies, err = e.validator.Validate(ctx, e.cfg.SourceRootID, e.cfg.DestRootID)
		if err != nil {
			e.phase(PhaseFailed)
			return Result{Stats: e.tracker.Snapshot()}, fmt.Errorf("validation: %w", err)
		}

		if e.cfg.AutoFixMissing && countMissing(discrepancies) > 0 {
			discrepancies, err = e.repair(ctx, source, folders)
			if err != nil {
				e.phase(PhaseFailed)
				return Result{Stats: e.tracker.Snapshot()}, err
			}
		}
	}

	stats := e.tracker.Snapshot()
	result := Result{Stats: stats, Discrepancies: discrepancies}
	if stats.FailedCopies > 0 || len(discrepancies) > 0 {
		e.phase(PhaseFailed)
		return result, fmt.Errorf("sync finished with %d failed copies and %d discrepancies",
			stats.FailedCopies, len(discrepancies))
	}

	e.phase(PhaseDone)
	return result, nil
}

// preflight verifies both roots resolve to accessible folders. Failure here
// halts the run before any work is attempted.
func (e *Engine) preflight(ctx context.Context) error {
	for side, id := range map[string]string{"source": e.cfg.SourceRootID, "destination": e.cfg.DestRootID} {
		node, err := e.store.GetMetadata(ctx, id)
		if err != nil {
			return fmt.Errorf("preflight: %s root %q not accessible: %w", side, id, err)
		}
		if !node.IsFolder() {
			return fmt.Errorf("preflight: %s root %q is not a folder", side, id)
		}
		log.WithFields(log.Fields{"side": side, "name": node.Name}).Info("Root verified")
	}
	return nil
}

// createFolders replicates the missing folder paths in the destination,
// shallowest first so parents exist before their children. Creation is
// idempotent and serialized; a failed folder downgrades to a warning, the
// files beneath it will fail on their own later.
func (e *Engine) createFolders(ctx context.Context, missing []string, folders *folderMap) {
	for _, path := range missing {
		if ctx.Err() != nil {
			return
		}

		name := path
		parentID := e.cfg.DestRootID
		if i := strings.LastIndex(path, "/"); i >= 0 {
			parentPath := path[:i]
			name = path[i+1:]
			id, ok := folders.get(parentPath)
			if !ok {
				// Inconsistent snapshot: the parent should have been created
				// in an earlier iteration.
				log.WithFields(log.Fields{"path": path, "parent": parentPath}).
					Warn("Parent folder missing in destination, skipping")
				continue
			}
			parentID = id
		}

		id, created, err := e.ensureFolder(ctx, name, parentID)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("Failed to create folder")
			continue
		}
		folders.set(path, id)
		if created {
			log.WithFields(log.Fields{"path": path, "id": id}).Info("Created folder")
			e.tracker.Update(domain.OpFolderCreated, path)
		} else {
			log.WithField("path", path).Debug("Folder already exists")
			e.tracker.Update(domain.OpFolderSkipped, path)
		}
	}
}

// ensureFolder finds or creates a folder called name under parentID,
// tolerating re-runs.
func (e *Engine) ensureFolder(ctx context.Context, name, parentID string) (id string, created bool, err error) {
	key := apicache.Key("folder_by_name", parentID, name)
	if v, ok := e.cache.Get(key); ok {
		return v.(string), false, nil
	}

	node, err := e.store.FindByName(ctx, parentID, name, domain.KindFolder)
	switch {
	case err == nil:
		e.cache.Set(key, node.ID)
		return node.ID, false, nil
	case !domain.IsNotFound(err):
		return "", false, err
	}

	id, err = e.store.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", false, err
	}
	e.cache.Set(key, id)
	return id, true, nil
}

// copyFiles runs the copy plan on a bounded worker pool. A failed copy marks
// that one item and continues; only a context cancellation aborts the batch.
func (e *Engine) copyFiles(ctx context.Context, source *domain.TreeSnapshot, plan domain.DiffPlan, folders *folderMap) error {
	total := len(plan.Copies)
	if total == 0 {
		log.Info("Everything is up to date")
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	var done int
	var doneMu sync.Mutex

	for _, task := range plan.Copies {
		if gCtx.Err() != nil {
			break
		}
		task := task
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			e.copyOne(gCtx, source, task, folders)

			doneMu.Lock()
			done++
			if done%e.cfg.BatchSize == 0 {
				log.WithFields(log.Fields{"done": done, "total": total}).Info("Copy progress")
			}
			doneMu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

// copyOne copies a single planned file, skipping when an identical file is
// already present at the destination. Failures are counted, never fatal.
func (e *Engine) copyOne(ctx context.Context, source *domain.TreeSnapshot, task domain.CopyTask, folders *folderMap) {
	name := task.Path
	if i := strings.LastIndex(task.Path, "/"); i >= 0 {
		name = task.Path[i+1:]
	}

	parentID, err := e.resolveParent(ctx, task.Path, folders)
	if err != nil {
		log.WithError(err).WithField("path", task.Path).Error("Cannot resolve destination folder")
		e.tracker.Update(domain.OpCopyFailed, task.Path)
		return
	}

	// Re-run safety: skip when the destination already holds an identical
	// same-named file.
	srcInfo := source.Files[task.Path]
	existing, err := e.findFile(ctx, parentID, name)
	if err == nil && filesMatch(srcInfo, existing) {
		log.WithField("path", task.Path).Info("Skipping identical file")
		e.tracker.Update(domain.OpCopySkipped, task.Path)
		return
	}

	if _, err := e.store.CopyFile(ctx, task.SourceID, parentID, name); err != nil {
		log.WithError(err).WithField("path", task.Path).Error("Copy failed")
		e.tracker.Update(domain.OpCopyFailed, task.Path)
		return
	}

	// The destination listing for that name is now stale.
	e.cache.Remove(apicache.Key("file_in_folder", parentID, name))

	log.WithField("path", task.Path).Info("Copied file")
	e.tracker.Update(domain.OpCopySucceeded, task.Path)
}

// resolveParent walks the path's folder segments against the destination
// folder mapping, creating any still-missing intermediate folder as a
// fallback.
func (e *Engine) resolveParent(ctx context.Context, path string, folders *folderMap) (string, error) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return e.cfg.DestRootID, nil
	}

	parentID := e.cfg.DestRootID
	prefix := ""
	for _, segment := range strings.Split(path[:i], "/") {
		if prefix == "" {
			prefix = segment
		} else {
			prefix = prefix + "/" + segment
		}

		if id, ok := folders.get(prefix); ok {
			parentID = id
			continue
		}

		log.WithField("path", prefix).Warn("Destination folder missing, creating on the fly")
		id, created, err := e.ensureFolder(ctx, segment, parentID)
		if err != nil {
			return "", fmt.Errorf("create fallback folder %q: %w", prefix, err)
		}
		folders.set(prefix, id)
		if created {
			e.tracker.Update(domain.OpFolderCreated, prefix)
		}
		parentID = id
	}
	return parentID, nil
}

// findFile looks up a same-named file in a destination folder, memoized.
func (e *Engine) findFile(ctx context.Context, parentID, name string) (domain.RemoteNode, error) {
	key := apicache.Key("file_in_folder", parentID, name)
	if v, ok := e.cache.Get(key); ok {
		return v.(domain.RemoteNode), nil
	}
	node, err := e.store.FindByName(ctx, parentID, name, domain.KindFile)
	if err != nil {
		return domain.RemoteNode{}, err
	}
	e.cache.Set(key, node)
	return node, nil
}

// filesMatch reports whether the destination already holds the source file's
// content: equal checksum and size, or, for native-format documents that
// carry no byte-level checksum, an equal rich-document type. The MIME-only
// equivalence is weak but matches what the remote service exposes for those
// documents.
func filesMatch(src domain.FileInfo, dst domain.RemoteNode) bool {
	if src.Checksum != "" && dst.Checksum != "" {
		return src.Checksum == dst.Checksum && src.Size == dst.Size
	}
	if strings.HasPrefix(src.MimeType, domain.NativeDocMimePrefix) &&
		strings.HasPrefix(dst.MimeType, domain.NativeDocMimePrefix) {
		return src.MimeType == dst.MimeType
	}
	return false
}

// repair runs one extra folder+copy pass against a fresh destination
// snapshot, then validates again. Used when validation reported missing
// files and auto-fix is enabled.
func (e *Engine) repair(ctx context.Context, source *domain.TreeSnapshot, folders *folderMap) ([]domain.Discrepancy, error) {
	log.Info("Auto-fixing missing files")

	dest, err := e.enum.Enumerate(ctx, e.cfg.DestRootID, "destination-repair")
	if err != nil {
		return nil, fmt.Errorf("repair enumeration: %w", err)
	}

	plan := Diff(source, dest)
	e.createFolders(ctx, MissingFolders(source, dest), folders)
	if err := e.copyFiles(ctx, source, plan, folders); err != nil {
		return nil, err
	}
	e.invalidateDest()

	return e.validator.Validate(ctx, e.cfg.SourceRootID, e.cfg.DestRootID)
}

func (e *Engine) invalidateDest() {
	e.cache.Remove(SnapshotKey(e.cfg.DestRootID))
	e.cache.Remove(countKey(e.cfg.DestRootID))
}

func countMissing(discrepancies []domain.Discrepancy) int {
	n := 0
	for _, d := range discrepancies {
		if d.Kind == domain.MissingFile {
			n++
		}
	}
	return n
}

// folderMap is the mutable destination path->id mapping shared between the
// folder-creation pass and concurrent copy workers.
type folderMap struct {
	mu sync.Mutex
	m  map[string]string
}

func newFolderMap(initial map[string]string) *folderMap {
	m := make(map[string]string, len(initial))
	for k, v := range initial {
		m[k] = v
	}
	return &folderMap{m: m}
}

func (f *folderMap) get(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.m[path]
	return id, ok
}

func (f *folderMap) set(path, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[path] = id
}
