package acceptance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

const testGoogleClientID = "test-client-id"

// mailerStub stands in for the OTP delivery service and captures the
// last passcode sent to each address
type mailerStub struct {
	mu     sync.Mutex
	codes  map[string]string
	server *httptest.Server
}

func newMailerStub() *mailerStub {
	m := &mailerStub{codes: map[string]string{}}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Email string `json:"email"`
			OTP   string `json:"otp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		m.codes[payload.Email] = payload.OTP
		m.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	return m
}

func (m *mailerStub) URL() string {
	return m.server.URL
}

// LastCode returns the most recent passcode delivered to the address
func (m *mailerStub) LastCode(email string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[email]
	return code, ok
}

func (m *mailerStub) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = map[string]string{}
}

func (m *mailerStub) Close() {
	m.server.Close()
}

// tokenInfoStub stands in for Google's tokeninfo endpoint. Tests register
// ID tokens with Issue; anything else is rejected the way Google would.
type tokenInfoStub struct {
	mu     sync.Mutex
	tokens map[string]googleIdentity
	server *httptest.Server
}

type googleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Picture       string
}

func newTokenInfoStub() *tokenInfoStub {
	g := &tokenInfoStub{tokens: map[string]googleIdentity{}}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		identity, ok := g.tokens[r.URL.Query().Get("id_token")]
		g.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"sub":            identity.Subject,
			"aud":            testGoogleClientID,
			"iss":            "https://accounts.google.com",
			"email":          identity.Email,
			"email_verified": strconv.FormatBool(identity.EmailVerified),
			"given_name":     identity.GivenName,
			"family_name":    identity.FamilyName,
			"picture":        identity.Picture,
			"exp":            strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
		})
	}))
	return g
}

func (g *tokenInfoStub) URL() string {
	return g.server.URL
}

// Issue registers an ID token the stub will accept
func (g *tokenInfoStub) Issue(token string, identity googleIdentity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens[token] = identity
}

func (g *tokenInfoStub) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens = map[string]googleIdentity{}
}

func (g *tokenInfoStub) Close() {
	g.server.Close()
}
