package google

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// tokenFileMode keeps the cached credential readable by its owner only.
const tokenFileMode = 0o600

// StoredToken is the on-disk form of a user credential.
type StoredToken struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// NewStoredToken records tok together with the scopes it grants.
func NewStoredToken(tok *oauth2.Token, scopes []string) *StoredToken {
	return &StoredToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scopes:       slices.Clone(scopes),
		Expiry:       tok.Expiry,
	}
}

// OAuth2 converts the stored credential into an oauth2.Token.
func (s *StoredToken) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// Covers reports whether every required scope was granted.
// A token without recorded scopes covers nothing.
func (s *StoredToken) Covers(required []string) bool {
	for _, scope := range required {
		if !slices.Contains(s.Scopes, scope) {
			return false
		}
	}
	return len(s.Scopes) > 0
}

// LoadToken reads a token file.
func LoadToken(path string) (*StoredToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok StoredToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds no credential", path)
	}
	return &tok, nil
}

// SaveToken replaces the token file with tok. The file is written next to
// its final location and renamed into place, so readers never see a
// partial write.
func SaveToken(path string, tok *StoredToken) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := f.Chmod(tokenFileMode); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to set token file mode: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// grantedScopes returns the scopes the token endpoint reported for tok,
// falling back to the requested ones when the response carried none.
func grantedScopes(tok *oauth2.Token, requested []string) []string {
	if raw, ok := tok.Extra("scope").(string); ok && strings.TrimSpace(raw) != "" {
		return strings.Fields(raw)
	}
	return slices.Clone(requested)
}
