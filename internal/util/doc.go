// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string and file helpers shared by vasi packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateRunesNoEllipsis: UTF-8 safe prefix (titles, context lines)
//   - TruncateWidth, PadRight: display-width aware layout helpers
//   - FormatFileSize: human readable attachment sizes
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateRunesNoEllipsis(firstMessage, 30)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
