// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jeranaias/vasi-tui/internal/util"
)

// Attachment is a document queued to go out with the next send.
type Attachment struct {
	Name string
	Size int64

	open func() (io.ReadCloser, error)
}

// AttachFile validates path and returns an attachment that reads it at
// send time.
func AttachFile(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("attach %s: is a directory", path)
	}
	return &Attachment{
		Name: filepath.Base(path),
		Size: info.Size(),
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// AttachBytes wraps in-memory content.
func AttachBytes(name string, data []byte) *Attachment {
	return &Attachment{
		Name: name,
		Size: int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Label is the indicator text shown while the attachment is queued.
func (a *Attachment) Label() string {
	return a.Name + " (" + util.FormatFileSize(a.Size) + ")"
}

// Open returns a reader over the content.
func (a *Attachment) Open() (io.ReadCloser, error) {
	return a.open()
}
