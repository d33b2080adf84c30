package store

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/centy-dev/centy-core/internal/fs"
)

// lockFileName is the flock target under the store directory, coordinating
// writers/readers across processes (spec.md §5). Distinct from the manifest
// file so a reader never needs to open the manifest just to lock it.
const lockFileName = ".lock"

// lockRegistry serializes access to a project root within this process,
// mirroring the teacher's MDDB.mu + Locker pairing: the in-process
// sync.RWMutex is acquired first (cheap, fair within this process), then the
// flock-backed file lock guards against other processes.
type lockRegistry struct {
	mu  sync.Mutex
	byRoot map[string]*sync.RWMutex
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{byRoot: make(map[string]*sync.RWMutex)}
}

func (lr *lockRegistry) get(projectRoot string) *sync.RWMutex {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	m, ok := lr.byRoot[projectRoot]
	if !ok {
		m = &sync.RWMutex{}
		lr.byRoot[projectRoot] = m
	}

	return m
}

// projectLock holds both layers of a single project's lock (exclusive, or
// shared when shared is set): the in-process mutex and the cross-process
// flock. Release order is the
// reverse of acquisition order.
type projectLock struct {
	inProcess *sync.RWMutex
	shared    bool
	file      *fs.Lock
}

func (pl *projectLock) release() {
	if pl.file != nil {
		_ = pl.file.Close()
	}

	if pl.shared {
		pl.inProcess.RUnlock()
	} else {
		pl.inProcess.Unlock()
	}
}

// lockProject acquires the project-level write lock (spec.md §5): the
// in-process mutex exclusively, then the flock-backed file lock exclusively.
// When e.lockTimeout is set (projectcfg's LockTimeout), the file lock is
// acquired with that bound instead of blocking indefinitely.
func (e *Engine) lockProject(projectRoot string) (*projectLock, error) {
	m := e.locks.get(projectRoot)
	m.Lock()

	path := filepath.Join(storeDirPath(projectRoot, e.storeDirName), lockFileName)

	var (
		f   *fs.Lock
		err error
	)

	if e.lockTimeout > 0 {
		f, err = e.locker.LockWithTimeout(path, e.lockTimeout)
	} else {
		f, err = e.locker.Lock(path)
	}

	if err != nil {
		m.Unlock()

		return nil, err
	}

	return &projectLock{inProcess: m, file: f}, nil
}

// rLockProject acquires the project-level read lock: the in-process mutex in
// shared mode, then the flock-backed file lock in shared mode.
func (e *Engine) rLockProject(projectRoot string) (*projectLock, error) {
	m := e.locks.get(projectRoot)
	m.RLock()

	path := filepath.Join(storeDirPath(projectRoot, e.storeDirName), lockFileName)

	var (
		f   *fs.Lock
		err error
	)

	if e.lockTimeout > 0 {
		f, err = e.locker.RLockWithTimeout(path, e.lockTimeout)
	} else {
		f, err = e.locker.RLock(path)
	}

	if err != nil {
		m.RUnlock()

		return nil, err
	}

	return &projectLock{inProcess: m, shared: true, file: f}, nil
}

// lockTwoProjects acquires write locks on two distinct project roots in
// canonical lexicographic order, the deadlock-avoidance rule spec.md §5
// mandates for cross-project moves and duplications.
func (e *Engine) lockTwoProjects(a, b string) (first, second *projectLock, err error) {
	if a == b {
		l, err := e.lockProject(a)
		if err != nil {
			return nil, nil, err
		}

		return l, l, nil
	}

	roots := []string{a, b}
	sort.Strings(roots)

	l1, err := e.lockProject(roots[0])
	if err != nil {
		return nil, nil, err
	}

	l2, err := e.lockProject(roots[1])
	if err != nil {
		l1.release()

		return nil, nil, err
	}

	if roots[0] == a {
		return l1, l2, nil
	}

	return l2, l1, nil
}
