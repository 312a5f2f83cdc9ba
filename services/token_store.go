package services

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// TokenStore owns persistence of the mail-API OAuth token. The Gmail service
// is the only component that touches it; nothing else does ambient file IO
// for credentials.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(*oauth2.Token) error
}

// FileTokenStore keeps the token as JSON on disk (token.json between runs).
type FileTokenStore struct {
	Path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

// Load reads the cached token. A missing file is reported as os.ErrNotExist
// so callers can fall back to the interactive flow.
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("could not parse token file %s: %v", s.Path, err)
	}
	return token, nil
}

// Save writes the token with owner-only permissions.
func (s *FileTokenStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("could not encode token: %v", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("could not write token file %s: %v", s.Path, err)
	}
	return nil
}

// persistingTokenSource saves the token back to the store whenever the
// underlying source refreshes it.
type persistingTokenSource struct {
	src   oauth2.TokenSource
	store TokenStore
	last  string
}

func newPersistingTokenSource(src oauth2.TokenSource, store TokenStore, current *oauth2.Token) oauth2.TokenSource {
	last := ""
	if current != nil {
		last = current.AccessToken
	}
	return &persistingTokenSource{src: src, store: store, last: last}
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != p.last {
		p.last = token.AccessToken
		if err := p.store.Save(token); err != nil {
			// A failed save costs a re-auth next run, not this one.
			fmt.Fprintf(os.Stderr, "warning: could not persist refreshed token: %v\n", err)
		}
	}
	return token, nil
}
