package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/erazemk/labinventory/internal/model"
)

const loginPath = "/api/auth/login"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReply struct {
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
	Error   text            `json:"error"`
	Message text            `json:"message"`
}

// Login exchanges email and password for a session. A non-2xx reply yields a
// *StatusError whose Message is the body's "error" field, else its "message"
// field, else empty.
func (c *Client) Login(ctx context.Context, email, password string) (*model.Session, error) {
	resp, err := c.postJSON(ctx, loginPath, credentials{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}

	var reply loginReply
	if err := resp.decode(&reply); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if !resp.ok() {
		msg := string(reply.Error)
		if msg == "" {
			msg = string(reply.Message)
		}
		return nil, &StatusError{Op: OpLogin, Status: resp.status, Message: msg}
	}

	session := &model.Session{Token: reply.Token, RawUser: reply.User}
	if len(reply.User) > 0 && !bytes.Equal(reply.User, []byte("null")) {
		if err := json.Unmarshal(reply.User, &session.User); err != nil {
			return nil, fmt.Errorf("login: decoding user: %w", err)
		}
	}
	return session, nil
}

type emailOnly struct {
	Email string `json:"email"`
}

type accessReply struct {
	AccessToken *string `json:"access_token"`
}

// Authenticate performs the email-only login and returns the access token.
func (c *Client) Authenticate(ctx context.Context, email string) (string, error) {
	resp, err := c.postJSON(ctx, loginPath, emailOnly{Email: email})
	if err != nil {
		return "", fmt.Errorf("authenticate request: %w", err)
	}
	if !resp.ok() {
		return "", &StatusError{Op: OpAuthenticate, Status: resp.status}
	}

	var reply accessReply
	if err := resp.decode(&reply); err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}
	if reply.AccessToken == nil || *reply.AccessToken == "" {
		return "", ErrNoToken
	}
	return *reply.AccessToken, nil
}
