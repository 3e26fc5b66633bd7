package objectstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemorySink keeps objects in process memory. Keys registered with FailPut
// return a StorageError instead of being stored.
type MemorySink struct {
	mu       sync.Mutex
	objects  map[string]map[string][]byte
	failPut  map[string]error
	failList error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		objects: map[string]map[string][]byte{},
		failPut: map[string]error{},
	}
}

func (m *MemorySink) FailPut(bucket, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPut[bucket+"/"+key] = err
}

func (m *MemorySink) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failList = err
}

func (m *MemorySink) Put(ctx context.Context, bucket, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "put", Bucket: bucket, Key: key, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failPut[bucket+"/"+key]; ok {
		return &StorageError{Op: "put", Bucket: bucket, Key: key, Err: err}
	}
	if m.objects[bucket] == nil {
		m.objects[bucket] = map[string][]byte{}
	}
	m.objects[bucket][key] = append([]byte(nil), body...)
	return nil
}

func (m *MemorySink) Get(bucket, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.objects[bucket][key]
	return body, ok
}

func (m *MemorySink) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects[bucket]))
	for key := range m.objects[bucket] {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func (m *MemorySink) ListCommonPrefixes(ctx context.Context, bucket, prefix, delimiter string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return []string{}, &StorageError{Op: "list", Bucket: bucket, Key: prefix, Err: m.failList}
	}

	seen := map[string]struct{}{}
	for key := range m.objects[bucket] {
		if !strings.HasPrefix(key, prefix) || delimiter == "" {
			continue
		}
		rest := key[len(prefix):]
		idx := strings.Index(rest, delimiter)
		if idx < 0 {
			continue
		}
		seen[prefix+rest[:idx+len(delimiter)]] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}
