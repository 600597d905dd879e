// internal/sender/gmail/token.go
package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// token.json holds an authorized-user credential produced by a one-time
// OAuth consent flow run out of band. The refresh token in it is the
// durable part; access tokens are minted (and written back) as needed.
type tokenFile struct {
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"token,omitempty"`
	Expiry       string `json:"expiry,omitempty"`
}

func tokenSource(ctx context.Context, path string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if tf.RefreshToken == "" {
		return nil, fmt.Errorf("%s has no refresh token; re-run the OAuth setup", path)
	}

	conf := &oauth2.Config{
		ClientID:     tf.ClientID,
		ClientSecret: tf.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{Scope},
	}
	seed := &oauth2.Token{
		AccessToken:  tf.AccessToken,
		RefreshToken: tf.RefreshToken,
	}
	if tf.Expiry != "" {
		if t, err := time.Parse(time.RFC3339, tf.Expiry); err == nil {
			seed.Expiry = t
		}
	}

	return &persistingTokenSource{
		base: conf.TokenSource(ctx, seed),
		path: path,
		file: tf,
		last: seed.AccessToken,
	}, nil
}

// persistingTokenSource writes refreshed access tokens back to the token
// file so later runs (and other processes) start from a valid credential.
type persistingTokenSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	path string
	file tokenFile
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		p.file.AccessToken = tok.AccessToken
		p.file.Expiry = tok.Expiry.Format(time.RFC3339)
		if tok.RefreshToken != "" {
			p.file.RefreshToken = tok.RefreshToken
		}
		if data, err := json.MarshalIndent(p.file, "", "  "); err == nil {
			// Best effort: a failed write just means another refresh later.
			_ = os.WriteFile(p.path, data, 0o600)
		}
	}
	return tok, nil
}
