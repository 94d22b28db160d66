package apiclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// Credential is the ambient session credential: the cookie jar the API's
// session cookie lives in. It is acquired when a session is established and
// released on logout or when the owning dashboard state is evicted. After
// Release every request goes out without cookies.
type Credential struct {
	mu       sync.RWMutex
	jar      *cookiejar.Jar
	released bool
}

// NewCredential returns an empty credential.
func NewCredential() (*Credential, error) {
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	return &Credential{jar: jar}, nil
}

func newJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// SetCookies implements http.CookieJar.
func (c *Credential) SetCookies(u *url.URL, cookies []*http.Cookie) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.released {
		return
	}
	c.jar.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (c *Credential) Cookies(u *url.URL) []*http.Cookie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.released {
		return nil
	}
	return c.jar.Cookies(u)
}

// Held reports whether the credential carries a cookie for u.
func (c *Credential) Held(u *url.URL) bool {
	return len(c.Cookies(u)) > 0
}

// Renew drops any stored cookies and makes the credential usable again.
// Called before a new session is established.
func (c *Credential) Renew() error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.jar = jar
	c.released = false
	c.mu.Unlock()
	return nil
}

// Release discards the stored cookies. Subsequent requests are anonymous
// until Renew is called.
func (c *Credential) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if jar, err := newJar(); err == nil {
		c.jar = jar
	}
	c.released = true
}

// Released reports whether Release has been called since the last Renew.
func (c *Credential) Released() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.released
}
