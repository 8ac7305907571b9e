package media

import (
	"context"
	"sync"
)

// Memory is an in-process uploader for tests and local runs. Uploaded paths
// map to deterministic fake URLs.
type Memory struct {
	mu      sync.Mutex
	uploads map[string]string
}

func NewMemory() *Memory {
	return &Memory{uploads: map[string]string{}}
}

func (m *Memory) Upload(_ context.Context, path, dataURI string) (string, error) {
	if err := validatePayload(dataURI); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url := "https://media.local/" + path
	m.uploads[path] = dataURI
	return url, nil
}

// Uploaded returns the payload stored under a path, if any.
func (m *Memory) Uploaded(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.uploads[path]
	return payload, ok
}
