// Package effects holds the side-effecting collaborators of the dispatch
// sequencer: clipboard writers and deep-link navigators.
package effects

import (
	"context"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// SystemClipboard writes to the OS clipboard.
//
// The OS clipboard only carries text here, so rasters are written as a
// data: URI, which chat and mail web clients accept on paste.
type SystemClipboard struct{}

// Write implements dispatch.Clipboard.
func (SystemClipboard) Write(ctx context.Context, data []byte, mimeType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return errors.New(errors.ErrCodeClipboard, "no clipboard available on this system")
	}
	text := string(data)
	if !strings.HasPrefix(mimeType, "text/") {
		text = design.Asset{Data: data, MIMEType: mimeType}.DataURL()
	}
	if err := clipboardWriteAll(text); err != nil {
		return errors.Wrap(errors.ErrCodeClipboard, err, "write clipboard")
	}
	return nil
}

// MemoryClipboard keeps the last write in memory.
type MemoryClipboard struct {
	mu       sync.Mutex
	data     []byte
	mimeType string
	writes   int
}

// Write implements dispatch.Clipboard.
func (m *MemoryClipboard) Write(_ context.Context, data []byte, mimeType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append(m.data[:0], data...)
	m.mimeType = mimeType
	m.writes++
	return nil
}

// Last returns the most recent write and the number of writes so far.
func (m *MemoryClipboard) Last() (data []byte, mimeType string, writes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...), m.mimeType, m.writes
}
