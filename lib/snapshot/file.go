// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/console/lib/syncstate"
)

// WriteFile atomically writes a snapshot file. The snapshot is
// written to a temporary file in the same directory, fsynced and
// renamed into place, so readers never see a partial snapshot. The
// parent directory is created if needed.
func WriteFile(path string, snapshot syncstate.Snapshot, compression Compression) (Header, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Header{}, fmt.Errorf("snapshot: creating directory: %w", err)
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return Header{}, fmt.Errorf("snapshot: creating temporary file: %w", err)
	}

	writer := bufio.NewWriter(file)
	header, err := Write(writer, snapshot, compression)
	if err == nil {
		err = writer.Flush()
	}
	if err == nil {
		err = file.Sync()
	}
	if err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return Header{}, err
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return Header{}, fmt.Errorf("snapshot: closing temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return Header{}, fmt.Errorf("snapshot: renaming into place: %w", err)
	}

	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return header, nil
}

// ReadFile reads and verifies a snapshot file. When the file does not
// exist the error wraps os.ErrNotExist.
func ReadFile(path string) (syncstate.Snapshot, Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return syncstate.Snapshot{}, Header{}, err
	}
	defer file.Close()

	snapshot, header, err := Read(bufio.NewReader(file))
	if err != nil {
		return syncstate.Snapshot{}, Header{}, fmt.Errorf("%s: %w", path, err)
	}
	return snapshot, header, nil
}

// Restore reads a snapshot file into a new Store. A zero
// MessageCapacity is sized to hold the longest session in the
// snapshot, so nothing is evicted on import.
func Restore(path string, options syncstate.Options) (*syncstate.Store, Header, error) {
	snapshot, header, err := ReadFile(path)
	if err != nil {
		return nil, Header{}, err
	}
	if options.MessageCapacity <= 0 {
		options.MessageCapacity = syncstate.DefaultMessageCapacity
		for _, messages := range snapshot.Messages {
			options.MessageCapacity = max(options.MessageCapacity, len(messages))
		}
	}
	store := syncstate.NewStore(options)
	store.Update(func(state *syncstate.State) bool { return state.Import(snapshot) })
	return store, header, nil
}
