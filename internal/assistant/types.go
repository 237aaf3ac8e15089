// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"io"

	"github.com/jeranaias/vasi-tui/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the JSON body of POST /api/chat.
type ChatRequest struct {
	Message      string `json:"message"`
	Context      string `json:"context"`
	UseReasoning bool   `json:"use_reasoning"`
}

// DocumentRequest is the multipart body of POST /api/chat-with-document.
type DocumentRequest struct {
	// Message is the question about the document. Empty means
	// DefaultDocumentPrompt.
	Message string

	// Filename is sent as the file part's filename.
	Filename string

	// File supplies the document bytes.
	File io.Reader
}

// DefaultDocumentPrompt is sent when a document goes out without text.
const DefaultDocumentPrompt = "Analyze this document"

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// DocumentInfo describes the processed attachment.
type DocumentInfo struct {
	Filename string `json:"filename"`
	Type     string `json:"type,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// ChatResponse is returned by both chat endpoints.
type ChatResponse struct {
	Response     string        `json:"response"`
	Reasoning    []string      `json:"reasoning,omitempty"`
	ModelUsed    string        `json:"model_used,omitempty"`
	Confidence   float64       `json:"confidence,omitempty"`
	DocumentInfo *DocumentInfo `json:"document_info,omitempty"`

	// Success is only sent by the document endpoint.
	Success *bool `json:"success,omitempty"`
}

// FileInfo converts the document descriptor to the model type.
func (r *ChatResponse) FileInfo() *model.FileInfo {
	if r.DocumentInfo == nil {
		return nil
	}
	return &model.FileInfo{
		Filename: r.DocumentInfo.Filename,
		Type:     r.DocumentInfo.Type,
		Summary:  r.DocumentInfo.Summary,
	}
}

// HealthResponse is returned by GET /.
type HealthResponse struct {
	Status   string            `json:"status"`
	Name     string            `json:"name"`
	Version  string            `json:"version"`
	Features []string          `json:"features,omitempty"`
	Models   map[string]string `json:"models,omitempty"`
}

// DocumentProcessorStatus is part of GET /api/status.
type DocumentProcessorStatus struct {
	OCREnabled       bool     `json:"ocr_enabled"`
	MaxFileSizeMB    float64  `json:"max_file_size_mb"`
	SupportedFormats []string `json:"supported_formats"`
}

// StatusResponse is returned by GET /api/status. Orchestrator details are
// service-specific and kept raw.
type StatusResponse struct {
	Status            string                   `json:"status"`
	Orchestrator      map[string]any           `json:"orchestrator,omitempty"`
	DocumentProcessor *DocumentProcessorStatus `json:"document_processor,omitempty"`
}

// errorBody is the error shape the service uses for non-2xx replies.
type errorBody struct {
	Detail string `json:"detail"`
}
