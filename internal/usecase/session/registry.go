package session

import "sync"

// fileRegistry is the per-session index of tracked files, keyed by
// normalized relative path. A single gate serializes creation so at most
// one File per path ever exists. The gate is held across creation-time
// reconciliation, so a caller that loses a creation race observes the
// winner's fully reconciled entry rather than a partially built one.
type fileRegistry struct {
	mu    sync.Mutex
	files map[string]*File
	order []string
}

func newFileRegistry() *fileRegistry {
	return &fileRegistry{files: make(map[string]*File)}
}

func (r *fileRegistry) get(path string) (*File, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path]
	return f, ok
}

// getOrCreate returns the existing entry for path or builds one via
// create under the gate. A create error leaves the registry unchanged,
// so a later lookup retries creation.
func (r *fileRegistry) getOrCreate(path string, create func(*File) error) (file *File, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[path]; ok {
		return f, false, nil
	}
	f := newFile(path)
	if err := create(f); err != nil {
		return nil, false, err
	}
	r.files[path] = f
	r.order = append(r.order, path)
	return f, true, nil
}

// all returns the tracked files in creation order.
func (r *fileRegistry) all() []*File {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*File, 0, len(r.order))
	for _, path := range r.order {
		out = append(out, r.files[path])
	}
	return out
}
