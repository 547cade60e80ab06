// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/syncstate"
)

// sampleStore builds a store with two sessions of chatty history.
func sampleStore(t *testing.T) *syncstate.Store {
	t.Helper()
	store := syncstate.NewStore(syncstate.Options{})
	store.Update(func(state *syncstate.State) bool {
		state.SetSessions([]agentapi.Session{
			{ID: "ses_a", Title: "refactor the parser"},
			{ID: "ses_b", Title: "write release notes"},
		})
		for _, sessionID := range []string{"ses_a", "ses_b"} {
			for i := range 20 {
				messageID := fmt.Sprintf("msg_%s_%02d", sessionID, i)
				state.UpsertMessage(agentapi.Message{ID: messageID, SessionID: sessionID, Role: agentapi.RoleAssistant})
				state.UpsertPart(agentapi.Part{
					ID:        "prt_" + messageID,
					SessionID: sessionID,
					MessageID: messageID,
					Type:      agentapi.PartText,
					Text:      strings.Repeat("the parser handles nested blocks. ", 4),
				})
			}
		}
		state.UpsertPermission(agentapi.PermissionRequest{ID: "per_1", SessionID: "ses_a", Permission: "bash"})
		state.SetTodos("ses_b", []agentapi.Todo{{ID: "todo_1", Content: "draft", Status: "pending"}})
		state.SetSessionStatus("ses_a", agentapi.SessionStatus{Type: agentapi.SessionBusy})
		state.SetVCSBranch("main")
		state.SetConfig(json.RawMessage(`{"theme":"system"}`))
		state.SetStatus(syncstate.StatusComplete)
		return true
	})
	return store
}

func TestWriteRead(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			original := sampleStore(t).Export()

			var buffer bytes.Buffer
			written, err := Write(&buffer, original, compression)
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			if written.Compression != compression {
				t.Fatalf("header compression = %s, want %s", written.Compression, compression)
			}
			if compression != CompressionNone && uint64(buffer.Len()-HeaderSize) >= written.Size {
				t.Fatalf("payload %d bytes is not smaller than %d uncompressed", buffer.Len()-HeaderSize, written.Size)
			}

			decoded, header, err := Read(&buffer)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if header != written {
				t.Fatalf("Read header = %+v, want %+v", header, written)
			}

			restored := syncstate.NewStore(syncstate.Options{})
			restored.Update(func(state *syncstate.State) bool { return state.Import(decoded) })

			if got := restored.Status(); got != syncstate.StatusComplete {
				t.Errorf("Status = %s", got)
			}
			if got := len(restored.Messages("ses_a")); got != 20 {
				t.Errorf("ses_a has %d messages, want 20", got)
			}
			// 136 runes per part: 34 tokens, 20 messages.
			if got := restored.SessionTokens("ses_b"); got != 680 {
				t.Errorf("SessionTokens(ses_b) = %d, want 680", got)
			}
			metadata := restored.Metadata()
			if metadata.VCS.Branch != "main" || string(metadata.Config) != `{"theme":"system"}` {
				t.Errorf("metadata = %+v", metadata)
			}

			// The restored store encodes to the same bytes.
			var again bytes.Buffer
			rewritten, err := Write(&again, restored.Export(), compression)
			if err != nil {
				t.Fatalf("Write restored: %v", err)
			}
			if rewritten.Checksum != written.Checksum {
				t.Error("restored store does not reproduce the original checksum")
			}
		})
	}
}

func TestWriteFallsBackWhenIncompressible(t *testing.T) {
	noise := make([]byte, 4096)
	random := rand.New(rand.NewPCG(1, 2))
	for i := range noise {
		noise[i] = byte(random.Uint32())
	}
	snapshot := syncstate.Snapshot{Metadata: syncstate.Metadata{Config: noise}}

	for _, compression := range []Compression{CompressionLZ4, CompressionZstd} {
		var buffer bytes.Buffer
		header, err := Write(&buffer, snapshot, compression)
		if err != nil {
			t.Fatalf("Write %s: %v", compression, err)
		}
		if header.Compression != CompressionNone {
			t.Errorf("%s: header compression = %s, want none", compression, header.Compression)
		}
		decoded, _, err := Read(&buffer)
		if err != nil {
			t.Fatalf("Read %s: %v", compression, err)
		}
		if !bytes.Equal(decoded.Metadata.Config, noise) {
			t.Errorf("%s: payload bytes changed", compression)
		}
	}
}

func encodeSample(t *testing.T, compression Compression) []byte {
	t.Helper()
	var buffer bytes.Buffer
	if _, err := Write(&buffer, sampleStore(t).Export(), compression); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buffer.Bytes()
}

func TestReadRejectsCorruption(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		data := encodeSample(t, CompressionNone)
		copy(data, "JUNK")
		if _, _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrNotSnapshot) {
			t.Fatalf("Read = %v, want ErrNotSnapshot", err)
		}
	})
	t.Run("truncated header", func(t *testing.T) {
		data := encodeSample(t, CompressionNone)[:HeaderSize-1]
		if _, _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrNotSnapshot) {
			t.Fatalf("Read = %v, want ErrNotSnapshot", err)
		}
	})
	t.Run("unknown version", func(t *testing.T) {
		data := encodeSample(t, CompressionNone)
		data[len(Magic)] = 9
		if _, _, err := Read(bytes.NewReader(data)); err == nil || !strings.Contains(err.Error(), "version 9") {
			t.Fatalf("Read = %v, want a version error", err)
		}
	})
	t.Run("unknown compression", func(t *testing.T) {
		data := encodeSample(t, CompressionNone)
		data[len(Magic)+1] = 7
		if _, _, err := Read(bytes.NewReader(data)); err == nil {
			t.Fatal("Read accepted compression tag 7")
		}
	})
	t.Run("flipped payload byte", func(t *testing.T) {
		data := encodeSample(t, CompressionNone)
		data[len(data)-1] ^= 0xff
		if _, _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrChecksum) {
			t.Fatalf("Read = %v, want ErrChecksum", err)
		}
	})
	t.Run("truncated payload", func(t *testing.T) {
		data := encodeSample(t, CompressionNone)
		if _, _, err := Read(bytes.NewReader(data[:len(data)-10])); err == nil {
			t.Fatal("Read accepted a truncated payload")
		}
	})
	t.Run("truncated zstd payload", func(t *testing.T) {
		data := encodeSample(t, CompressionZstd)
		if _, _, err := Read(bytes.NewReader(data[:len(data)-10])); err == nil {
			t.Fatal("Read accepted a truncated zstd payload")
		}
	})
}

func TestParseCompression(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		parsed, err := ParseCompression(compression.String())
		if err != nil || parsed != compression {
			t.Errorf("ParseCompression(%q) = %v, %v", compression.String(), parsed, err)
		}
	}
	if _, err := ParseCompression("brotli"); err == nil {
		t.Error("ParseCompression accepted brotli")
	}
	if got := Compression(5).String(); got != "unknown(5)" {
		t.Errorf("String = %q", got)
	}
}

func TestWriteFileRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "console.bcsn")
	original := sampleStore(t)

	written, err := WriteFile(path, original.Export(), CompressionZstd)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temporary file left behind: %v", err)
	}

	store, header, err := Restore(path, syncstate.Options{MessageCapacity: 5})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if header.Checksum != written.Checksum {
		t.Error("Restore header does not match the written header")
	}
	// Importing into a smaller store keeps only the newest messages.
	messages := store.Messages("ses_a")
	if len(messages) != 5 || messages[0].ID != "msg_ses_a_15" {
		t.Fatalf("restored messages = %d starting at %v", len(messages), messages)
	}
	if got := store.SessionTokens("ses_a"); got != 5*34 {
		t.Errorf("SessionTokens = %d, want %d", got, 5*34)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "absent.bcsn"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadFile = %v, want os.ErrNotExist", err)
	}
}
