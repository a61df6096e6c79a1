package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend adds credentials by rewriting the VPN daemon's JSON
// configuration file and signalling it to reload. A mutex serializes the
// read-modify-write cycle so concurrent provisions never interleave on the
// document. Fields the backend does not touch round-trip unmodified.
type FileBackend struct {
	// Path is the configuration file location
	Path string

	// Port and Protocol select the inbound the client is appended under
	Port     int
	Protocol string

	reloader Reloader
	mu       sync.Mutex
}

// NewFileBackend creates a file backend that signals reloader after each
// successful persist.
func NewFileBackend(path string, port int, protocol string, reloader Reloader) *FileBackend {
	return &FileBackend{
		Path:     path,
		Port:     port,
		Protocol: protocol,
		reloader: reloader,
	}
}

// inboundProbe reads just enough of an inbound to match it.
type inboundProbe struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
}

// AddClient appends the client under the matching inbound, persists the
// document atomically (write-then-rename, never an in-place truncate), then
// issues the reload signal. Success is returned only after the reload signal
// has been issued.
func (b *FileBackend) AddClient(ctx context.Context, client ClientEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.Path)
	if err != nil {
		return fmt.Errorf("%w: failed to read config: %v", ErrPersist, err)
	}

	updated, err := appendClient(data, b.Port, b.Protocol, client)
	if err != nil {
		return err
	}

	if err := b.writeAtomic(updated); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if err := b.reloader.Reload(ctx); err != nil {
		return fmt.Errorf("%w: reload signal: %v", ErrPersist, err)
	}
	return nil
}

// appendClient rewrites the raw config document with the client appended
// under the inbound matching port+protocol. Unknown fields at every level are
// preserved by keeping untouched subtrees as raw JSON.
func appendClient(data []byte, port int, protocol string, client ClientEntry) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed config document: %v", ErrRejected, err)
	}

	var inbounds []json.RawMessage
	if err := json.Unmarshal(doc["inbounds"], &inbounds); err != nil {
		return nil, fmt.Errorf("%w: malformed inbounds: %v", ErrRejected, err)
	}

	for i, raw := range inbounds {
		var probe inboundProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		if probe.Port != port || probe.Protocol != protocol {
			continue
		}

		var inbound map[string]json.RawMessage
		if err := json.Unmarshal(raw, &inbound); err != nil {
			return nil, fmt.Errorf("%w: malformed inbound: %v", ErrRejected, err)
		}

		settings := make(map[string]json.RawMessage)
		if rawSettings, ok := inbound["settings"]; ok {
			if err := json.Unmarshal(rawSettings, &settings); err != nil {
				return nil, fmt.Errorf("%w: malformed inbound settings: %v", ErrRejected, err)
			}
		}

		var clients []json.RawMessage
		if rawClients, ok := settings["clients"]; ok {
			if err := json.Unmarshal(rawClients, &clients); err != nil {
				return nil, fmt.Errorf("%w: malformed client list: %v", ErrRejected, err)
			}
		}

		entry, err := json.Marshal(client)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal client: %v", ErrRejected, err)
		}
		clients = append(clients, entry)

		if settings["clients"], err = json.Marshal(clients); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRejected, err)
		}
		if inbound["settings"], err = json.Marshal(settings); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRejected, err)
		}
		if inbounds[i], err = json.Marshal(inbound); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRejected, err)
		}
		if doc["inbounds"], err = json.Marshal(inbounds); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRejected, err)
		}

		return json.MarshalIndent(doc, "", "  ")
	}

	return nil, fmt.Errorf("%w: no inbound matching port %d protocol %q", ErrRejected, port, protocol)
}

// writeAtomic persists the document via a temp file and rename so a failed
// write can never leave a truncated config behind.
func (b *FileBackend) writeAtomic(data []byte) error {
	dir := filepath.Dir(b.Path)
	tmp, err := os.CreateTemp(dir, ".subgate-config-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, b.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
