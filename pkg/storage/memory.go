package storage

import (
	"context"
	"strings"
	"sync"
)

// Memory is a process-local Provider. Every device gets its own map.
type Memory struct {
	mu      sync.RWMutex
	devices map[string]map[string]string
}

// NewMemory builds an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{devices: make(map[string]map[string]string)}
}

// ForDevice returns the KV scoped to deviceID.
func (m *Memory) ForDevice(deviceID string) KV {
	return &memoryKV{parent: m, device: strings.TrimSpace(deviceID)}
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error {
	return nil
}

type memoryKV struct {
	parent *Memory
	device string
}

func (k *memoryKV) Get(_ context.Context, key string) (string, error) {
	k.parent.mu.RLock()
	defer k.parent.mu.RUnlock()
	value, ok := k.parent.devices[k.device][key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (k *memoryKV) Set(_ context.Context, key, value string) error {
	k.parent.mu.Lock()
	defer k.parent.mu.Unlock()
	space, ok := k.parent.devices[k.device]
	if !ok {
		space = make(map[string]string)
		k.parent.devices[k.device] = space
	}
	space[key] = value
	return nil
}

func (k *memoryKV) Remove(_ context.Context, key string) error {
	k.parent.mu.Lock()
	defer k.parent.mu.Unlock()
	delete(k.parent.devices[k.device], key)
	return nil
}
