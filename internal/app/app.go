// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires configuration, storage, the assistant client and the
// speech engines into one set of services shared by the TUI and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/vasi-tui/internal/assistant"
	"github.com/jeranaias/vasi-tui/internal/config"
	"github.com/jeranaias/vasi-tui/internal/content"
	"github.com/jeranaias/vasi-tui/internal/logger"
	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/pipeline"
	"github.com/jeranaias/vasi-tui/internal/session"
	"github.com/jeranaias/vasi-tui/internal/speech"
	"github.com/jeranaias/vasi-tui/internal/storage"
)

// ErrNotLoggedIn is returned by operations that need a signed-in user.
var ErrNotLoggedIn = errors.New("not logged in")

// =============================================================================
// APP
// =============================================================================

// App holds the long-lived services.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Repo       *storage.Repository
	Sessions   *session.Store
	Client     *assistant.Client
	Pipeline   *pipeline.Pipeline
	VoiceInput *speech.VoiceInput
	Speaker    *speech.Speaker
	Clipboard  content.Clipboard

	// InitErr records a storage failure during startup. The app still runs
	// with an unsaved in-memory session.
	InitErr error

	backend storage.Backend

	mu   sync.RWMutex
	user *model.User
}

// Options configures New.
type Options struct {
	Config *config.Config
	Logger *log.Logger

	// Backend overrides the configured storage backend.
	Backend storage.Backend
	// Synthesizer and Recognizer override engine detection.
	Synthesizer speech.Synthesizer
	Recognizer  speech.Recognizer
	Clipboard   content.Clipboard
}

// New builds the services. Storage errors while loading saved data are kept
// in InitErr rather than returned; only an unusable backend fails New.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	lg := opts.Logger
	if lg == nil {
		lg = logger.Discard()
	}

	backend := opts.Backend
	if backend == nil {
		dir, err := cfg.DataDir()
		if err != nil {
			return nil, err
		}
		backend, err = storage.Open(cfg.Storage.Backend, dir)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	a := &App{
		Config:  cfg,
		Logger:  lg,
		backend: backend,
		Repo:    storage.NewRepository(backend, cfg.Storage.Namespace),
	}

	a.Sessions = session.NewStore(a.Repo, lg)
	if err := a.Sessions.Init(); err != nil {
		lg.Warn("could not load saved conversations", "err", err)
		a.InitErr = err
	}

	user, err := a.Repo.LoadUser()
	if err != nil {
		lg.Warn("could not load user", "err", err)
		a.InitErr = errors.Join(a.InitErr, err)
	}
	a.user = user

	a.Client = assistant.NewClientWithConfig(&assistant.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
	})
	a.Pipeline = pipeline.New(a.Sessions, a.Client, lg)

	prompt, err := a.Repo.LoadSystemPrompt()
	if err != nil {
		lg.Warn("could not load system prompt", "err", err)
	}
	a.Pipeline.SetSystemPrompt(prompt)

	synth := opts.Synthesizer
	if synth == nil {
		synth = speech.DetectSynthesizer(cfg.Speech.SynthesizerCommand)
	}
	rec := opts.Recognizer
	if rec == nil {
		rec = speech.NewCommandRecognizer(cfg.Speech.RecognizerCommand, lg)
	}
	a.Speaker = speech.NewSpeaker(synth, speech.SpeakerConfig{
		Voice: cfg.Speech.Voice,
		Lang:  cfg.Speech.Lang,
		Rate:  cfg.Speech.Rate,
	}, lg)
	a.VoiceInput = speech.NewVoiceInput(rec, cfg.Speech.Lang, lg)

	a.Clipboard = opts.Clipboard
	if a.Clipboard == nil {
		a.Clipboard = content.SystemClipboard{}
	}

	return a, nil
}

// Close stops speech and closes the storage backend.
func (a *App) Close() error {
	a.Speaker.Stop()
	a.VoiceInput.Stop()
	if a.Sessions.IsDirty() {
		if err := a.Sessions.Flush(); err != nil {
			a.Logger.Warn("unsaved conversations", "err", err)
		}
	}
	return a.backend.Close()
}

// =============================================================================
// USER
// =============================================================================

// User returns the signed-in user, or nil.
func (a *App) User() *model.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

// RequireUser returns the signed-in user or ErrNotLoggedIn.
func (a *App) RequireUser() (model.User, error) {
	u := a.User()
	if u == nil {
		return model.User{}, ErrNotLoggedIn
	}
	return *u, nil
}

// Login validates and stores a user record.
func (a *App) Login(name, email string) (model.User, error) {
	user := model.NewUser(name, email)
	if err := user.Validate(); err != nil {
		return model.User{}, err
	}
	if err := a.Repo.SaveUser(user); err != nil {
		return model.User{}, err
	}
	a.mu.Lock()
	a.user = &user
	a.mu.Unlock()
	a.Logger.Info("logged in", "name", user.Name)
	return user, nil
}

// Logout removes the stored user record. Conversations are kept.
func (a *App) Logout() error {
	a.Speaker.Stop()
	a.VoiceInput.Stop()
	if err := a.Repo.ClearUser(); err != nil {
		return err
	}
	a.mu.Lock()
	a.user = nil
	a.mu.Unlock()
	return nil
}

// =============================================================================
// SYSTEM PROMPT
// =============================================================================

// SetSystemPrompt stores the prompt and applies it to later requests.
// An empty prompt clears it.
func (a *App) SetSystemPrompt(prompt string) error {
	if err := a.Repo.SaveSystemPrompt(prompt); err != nil {
		return err
	}
	a.Pipeline.SetSystemPrompt(prompt)
	return nil
}

// =============================================================================
// EXTERNAL CHANGES
// =============================================================================

// Watch reports storage keys written by other processes until ctx is done.
// It returns immediately when the backend is not file based.
func (a *App) Watch(ctx context.Context, onChange func(key string)) error {
	fb, ok := a.backend.(*storage.FileBackend)
	if !ok {
		return nil
	}
	w, err := storage.NewWatcher(fb, storage.DefaultWatchDebounce)
	if err != nil {
		return err
	}
	defer w.Close()
	w.Run(ctx, onChange)
	return nil
}

// ApplyExternalChange reloads whatever key another process rewrote. The
// conversation list is left alone while a request is in flight; the reply
// is persisted on completion and wins. Reports whether anything changed.
func (a *App) ApplyExternalChange(key string) (bool, error) {
	switch key {
	case a.Repo.Key(storage.KeyChats):
		if a.Pipeline.Loading() {
			return false, nil
		}
		return true, a.Sessions.Reload()
	case a.Repo.Key(storage.KeySystemPrompt):
		prompt, err := a.Repo.LoadSystemPrompt()
		if err != nil {
			return false, err
		}
		a.Pipeline.SetSystemPrompt(prompt)
		return true, nil
	case a.Repo.Key(storage.KeyUser):
		user, err := a.Repo.LoadUser()
		if err != nil {
			return false, err
		}
		a.mu.Lock()
		a.user = user
		a.mu.Unlock()
		return true, nil
	}
	return false, nil
}
