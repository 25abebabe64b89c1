// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/apperr"
)

// # Durable Registry Format

// userRecord is the persistence shape of [User]. Unlike the API entity it
// carries the hash and salt; the registry file is the one place they live.
type userRecord struct {
	ID           string         `json:"user_id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"password_hash"`
	Salt         string         `json:"salt"`
	Profile      map[string]any `json:"profile,omitempty"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	LastLogin    time.Time      `json:"last_login,omitempty"`
}

// sessionRecord is the persistence shape of [Session]; the token is the map key.
type sessionRecord struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// registryFile is the single durable record set: all users, the live session
// map, and a last-updated stamp. Every write rewrites the whole file.
type registryFile struct {
	Users       []userRecord             `json:"users"`
	Sessions    map[string]sessionRecord `json:"sessions"`
	LastUpdated time.Time                `json:"last_updated"`
}

// # File Store

// FileStore is the durable implementation of [UserStore] and [SessionStore]
// backed by one JSON registry file.
//
// # Concurrency
//
// All state is guarded by a single RWMutex. Mutations run under the write
// lock as read-modify-write, which serializes concurrent operations on the
// same user (a change-password can never interleave with an authenticate
// such that a stale hash is compared). At the registry's scale (hundreds to
// low thousands of users) a store-wide lock is sufficient.
//
// # Durability
//
// Every mutation is persisted with write-temp-then-rename before it is
// committed: on a write failure the in-memory state is rolled back and the
// operation fails with STORAGE_ERROR, so memory and disk never diverge.
type FileStore struct {
	path string
	log  *slog.Logger

	mu          sync.RWMutex
	users       map[string]*User    // keyed by user ID
	sessions    map[string]*Session // keyed by token
	lastUpdated time.Time
}

// NewFileStore opens (or initializes) the registry at path.
//
// A missing file is not an error: the registry starts empty and the file is
// created on the first mutation. A present-but-unreadable file is fatal,
// because silently starting empty would orphan every existing account.
func NewFileStore(path string, log *slog.Logger) (*FileStore, error) {
	store := &FileStore{
		path:     path,
		log:      log,
		users:    make(map[string]*User),
		sessions: make(map[string]*Session),
	}

	if err := store.load(); err != nil {
		return nil, err
	}

	return store, nil
}

// load reads the registry file into memory.
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("registry_file_absent_starting_empty", slog.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("auth: failed to read registry %s: %w", s.path, err)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("auth: failed to parse registry %s: %w", s.path, err)
	}

	for _, record := range file.Users {
		user := record.toEntity()
		s.users[user.ID] = user
	}
	for token, record := range file.Sessions {
		s.sessions[token] = &Session{
			Token:     token,
			UserID:    record.UserID,
			CreatedAt: record.CreatedAt,
			ExpiresAt: record.ExpiresAt,
		}
	}
	s.lastUpdated = file.LastUpdated

	s.log.Info("registry_loaded",
		slog.Int("users", len(s.users)),
		slog.Int("sessions", len(s.sessions)),
	)
	return nil
}

// persistLocked rewrites the registry file atomically. Must be called with
// the write lock held.
func (s *FileStore) persistLocked() error {
	file := registryFile{
		Users:       make([]userRecord, 0, len(s.users)),
		Sessions:    make(map[string]sessionRecord, len(s.sessions)),
		LastUpdated: time.Now().UTC(),
	}
	for _, user := range s.users {
		file.Users = append(file.Users, toRecord(user))
	}
	for token, session := range s.sessions {
		file.Sessions[token] = sessionRecord{
			UserID:    session.UserID,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("auth: failed to encode registry: %w", err)
	}

	// Write to a sibling temp file, then rename over the registry. Rename is
	// atomic on POSIX filesystems, so readers never observe a partial file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("auth: failed to write registry temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("auth: failed to replace registry file: %w", err)
	}

	s.lastUpdated = file.LastUpdated
	return nil
}

// Ping reports whether the registry's directory is reachable. Used by the
// readiness probe.
func (s *FileStore) Ping() error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("auth: registry directory unavailable: %w", err)
	}
	return nil
}

// # UserStore Implementation

func (s *FileStore) FindByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user.Clone(), nil
}

func (s *FileStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return user.Clone(), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *FileStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return user.Clone(), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *FileStore) FindByIdentifier(_ context.Context, identifier string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			return user.Clone(), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *FileStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Authoritative uniqueness check, race-free under the write lock.
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return ErrDuplicateUsername
		}
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	s.users[user.ID] = user.Clone()
	if err := s.persistLocked(); err != nil {
		delete(s.users, user.ID)
		return apperr.Storage(err)
	}
	return nil
}

func (s *FileStore) Update(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}

	for id, existing := range s.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username {
			return ErrDuplicateUsername
		}
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	s.users[user.ID] = user.Clone()
	if err := s.persistLocked(); err != nil {
		s.users[user.ID] = previous
		return apperr.Storage(err)
	}
	return nil
}

func (s *FileStore) UpdatePassword(_ context.Context, userID, newHash, newSalt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}

	updated := previous.Clone()
	updated.PasswordHash = newHash
	updated.Salt = newSalt
	updated.UpdatedAt = time.Now().UTC()

	s.users[userID] = updated
	if err := s.persistLocked(); err != nil {
		s.users[userID] = previous
		return apperr.Storage(err)
	}
	return nil
}

func (s *FileStore) SetActive(_ context.Context, userID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}

	updated := previous.Clone()
	updated.IsActive = active
	updated.UpdatedAt = time.Now().UTC()

	s.users[userID] = updated
	if err := s.persistLocked(); err != nil {
		s.users[userID] = previous
		return apperr.Storage(err)
	}
	return nil
}

// # SessionStore Implementation

func (s *FileStore) Put(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	s.sessions[session.Token] = &copied
	if err := s.persistLocked(); err != nil {
		delete(s.sessions, session.Token)
		return apperr.Storage(err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *FileStore) Delete(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.sessions[token]
	if !ok {
		return false, nil
	}

	delete(s.sessions, token)
	if err := s.persistLocked(); err != nil {
		s.sessions[token] = previous
		return false, apperr.Storage(err)
	}
	return true, nil
}

func (s *FileStore) DeleteForUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]*Session)
	for token, session := range s.sessions {
		if session.UserID == userID {
			removed[token] = session
			delete(s.sessions, token)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}

	if err := s.persistLocked(); err != nil {
		for token, session := range removed {
			s.sessions[token] = session
		}
		return 0, apperr.Storage(err)
	}
	return len(removed), nil
}

func (s *FileStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]*Session)
	for token, session := range s.sessions {
		if session.Expired(now) {
			removed[token] = session
			delete(s.sessions, token)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}

	if err := s.persistLocked(); err != nil {
		for token, session := range removed {
			s.sessions[token] = session
		}
		return 0, apperr.Storage(err)
	}
	return len(removed), nil
}

func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

// # Record Mapping

func toRecord(user *User) userRecord {
	return userRecord{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Salt:         user.Salt,
		Profile:      user.Profile,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
		LastLogin:    user.LastLogin,
	}
}

func (r userRecord) toEntity() *User {
	return &User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Salt:         r.Salt,
		Profile:      r.Profile,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
}
