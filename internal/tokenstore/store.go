// Package tokenstore persists the session record (token, role, serialized
// user) and the remember-me convenience slots in a durable key-value backend.
package tokenstore

import (
	"context"
	"fmt"
	"strconv"
)

// Slot keys. They match the names the web client used in localStorage so a
// record exported from one can be loaded by the other.
const (
	KeyToken    = "authToken"
	KeyRole     = "userRole"
	KeyUserData = "userData"

	KeyRememberedRole     = "rememberedRole"
	KeyRememberedUsername = "rememberedUsername"
	KeyRememberedFlag     = "rememberedRemember"
)

var allKeys = []string{
	KeyToken,
	KeyRole,
	KeyUserData,
	KeyRememberedRole,
	KeyRememberedUsername,
	KeyRememberedFlag,
}

// KV is a string slot backend. Get returns "" for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Record is the persisted mirror of a session. Any field may be empty when
// the record was never written, was cleared, or was interrupted mid-write.
type Record struct {
	Token    string
	Role     string
	UserData string
}

func (r Record) Complete() bool {
	return r.Token != "" && r.Role != "" && r.UserData != ""
}

func (r Record) Empty() bool {
	return r.Token == "" && r.Role == "" && r.UserData == ""
}

type Remembered struct {
	Role     string
	Username string
	Remember bool
}

type Store struct {
	kv KV
}

func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Write stores the three session slots with sequential writes. There is no
// rollback: an error part-way leaves the earlier slots written.
func (s *Store) Write(ctx context.Context, rec Record) error {
	if err := s.kv.Set(ctx, KeyToken, rec.Token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := s.kv.Set(ctx, KeyRole, rec.Role); err != nil {
		return fmt.Errorf("write role: %w", err)
	}
	if err := s.kv.Set(ctx, KeyUserData, rec.UserData); err != nil {
		return fmt.Errorf("write user data: %w", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context) (Record, error) {
	var rec Record
	var err error

	if rec.Token, err = s.kv.Get(ctx, KeyToken); err != nil {
		return Record{}, fmt.Errorf("read token: %w", err)
	}
	if rec.Role, err = s.kv.Get(ctx, KeyRole); err != nil {
		return Record{}, fmt.Errorf("read role: %w", err)
	}
	if rec.UserData, err = s.kv.Get(ctx, KeyUserData); err != nil {
		return Record{}, fmt.Errorf("read user data: %w", err)
	}

	return rec, nil
}

// Clear removes the session slots together with the remember-me slots.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, allKeys...); err != nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}

func (s *Store) Remember(ctx context.Context, r Remembered) error {
	if err := s.kv.Set(ctx, KeyRememberedRole, r.Role); err != nil {
		return fmt.Errorf("write remembered role: %w", err)
	}
	if err := s.kv.Set(ctx, KeyRememberedUsername, r.Username); err != nil {
		return fmt.Errorf("write remembered username: %w", err)
	}
	if err := s.kv.Set(ctx, KeyRememberedFlag, strconv.FormatBool(r.Remember)); err != nil {
		return fmt.Errorf("write remember flag: %w", err)
	}
	return nil
}

func (s *Store) Remembered(ctx context.Context) (Remembered, error) {
	role, err := s.kv.Get(ctx, KeyRememberedRole)
	if err != nil {
		return Remembered{}, fmt.Errorf("read remembered role: %w", err)
	}
	username, err := s.kv.Get(ctx, KeyRememberedUsername)
	if err != nil {
		return Remembered{}, fmt.Errorf("read remembered username: %w", err)
	}
	flag, err := s.kv.Get(ctx, KeyRememberedFlag)
	if err != nil {
		return Remembered{}, fmt.Errorf("read remember flag: %w", err)
	}

	remember, _ := strconv.ParseBool(flag)
	return Remembered{Role: role, Username: username, Remember: remember}, nil
}
