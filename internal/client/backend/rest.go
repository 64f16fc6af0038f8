package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/framezapp/framez/internal/logging"
)

// expirySkew is how close to expiry an access token may get before it is
// refreshed rather than used.
const expirySkew = 30 * time.Second

// Options configures a RESTClient.
type Options struct {
	// BaseURL is the project root, e.g. "https://abc.example.co".
	BaseURL string
	// AnonKey is the public API key sent with every request and used as the
	// bearer token until a user signs in.
	AnonKey string
	// TokenPath is where the session token pair is persisted. Empty disables
	// persistence.
	TokenPath string

	HTTPClient *http.Client
	Logger     logging.Logger
}

// RESTClient implements Client against the hosted backend's REST surface:
// managed auth under /auth/v1, the table API under /rest/v1, and object
// storage under /storage/v1.
type RESTClient struct {
	baseURL string
	anonKey string
	http    *http.Client
	store   *TokenStore
	log     logging.Logger
	disp    *dispatcher

	mu      sync.Mutex
	session *Session
}

func NewRESTClient(opts Options) (*RESTClient, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend: base URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNoopLogger()
	}
	return &RESTClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		anonKey: opts.AnonKey,
		http:    httpClient,
		store:   NewTokenStore(opts.TokenPath),
		log:     log,
		disp:    newDispatcher(),
	}, nil
}

// Close stops event delivery. Pending queued events are still drained.
func (c *RESTClient) Close() {
	c.disp.close()
}

func (c *RESTClient) OnAuthStateChange(h Handler) Subscription {
	return c.disp.subscribe(h)
}

// ---------- auth ----------

// sessionResponse is the token-grant response shape of the auth endpoint.
type sessionResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         Identity `json:"user"`

	// Set instead of the token fields when sign-up requires email
	// confirmation and no session is issued.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r *sessionResponse) toSession() (*Session, error) {
	if r.AccessToken == "" {
		return nil, nil
	}
	s := &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		User:         r.User,
	}
	if r.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	} else if r.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	if s.User.ID == "" {
		user, err := identityFromToken(s.AccessToken)
		if err != nil {
			return nil, err
		}
		s.User = user
	}
	return s, nil
}

func (c *RESTClient) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s != nil && !s.Expired(expirySkew) {
		return copySession(s), nil
	}

	if s == nil {
		loaded, err := c.store.Load()
		if err != nil {
			c.log.Warn(ctx, "stored session unreadable, discarding", "error", err)
			_ = c.store.Clear()
			return nil, nil
		}
		if loaded == nil {
			return nil, nil
		}
		s = loaded
	}

	if s.Expired(expirySkew) {
		refreshed, err := c.refreshSession(ctx, s.RefreshToken)
		if err != nil {
			// A dead refresh token means no session, not a failure: the
			// caller settles into the anonymous state.
			c.log.Warn(ctx, "session refresh failed, signing out locally", "error", err)
			c.clearSession()
			return nil, nil
		}
		c.setSession(refreshed)
		c.disp.emit(EventSignedIn, copySession(refreshed))
		return copySession(refreshed), nil
	}

	c.setSession(s)
	return copySession(s), nil
}

func (c *RESTClient) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	q := url.Values{}
	if req.RedirectTo != "" {
		q.Set("redirect_to", req.RedirectTo)
	}
	body := map[string]any{
		"email":    req.Email,
		"password": req.Password,
	}
	if len(req.Data) > 0 {
		body["data"] = req.Data
	}

	var resp sessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/signup", q, body, &resp); err != nil {
		return nil, err
	}

	s, err := resp.toSession()
	if err != nil {
		return nil, err
	}
	if s != nil {
		// Confirmation disabled on the project: the user is signed in at once.
		c.setSession(s)
		c.saveSession(ctx, s)
		c.disp.emit(EventSignedIn, copySession(s))
	}
	return copySession(s), nil
}

func (c *RESTClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	q := url.Values{"grant_type": {"password"}}
	body := map[string]any{"email": email, "password": password}

	var resp sessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token", q, body, &resp); err != nil {
		return nil, err
	}
	s, err := resp.toSession()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("backend: token grant returned no session")
	}

	c.setSession(s)
	c.saveSession(ctx, s)
	c.disp.emit(EventSignedIn, copySession(s))
	return copySession(s), nil
}

func (c *RESTClient) SignOut(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
	c.clearSession()
	c.disp.emit(EventSignedOut, nil)
	return err
}

func (c *RESTClient) Resend(ctx context.Context, req ResendRequest) error {
	q := url.Values{}
	if req.RedirectTo != "" {
		q.Set("redirect_to", req.RedirectTo)
	}
	body := map[string]any{"type": req.Type, "email": req.Email}
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/resend", q, body, nil)
}

func (c *RESTClient) refreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	q := url.Values{"grant_type": {"refresh_token"}}
	body := map[string]any{"refresh_token": refreshToken}

	var resp sessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token", q, body, &resp); err != nil {
		return nil, err
	}
	s, err := resp.toSession()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("backend: refresh grant returned no session")
	}
	return s, nil
}

// ---------- table API ----------

func (c *RESTClient) Select(ctx context.Context, q Query, dest any) error {
	path := "/rest/v1/" + q.Table + "?" + q.Encode()

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if q.One {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	return c.doTable(req, dest)
}

func (c *RESTClient) Insert(ctx context.Context, table string, row any, dest any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/rest/v1/"+table, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if dest != nil {
		req.Header.Set("Prefer", "return=representation")
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	} else {
		req.Header.Set("Prefer", "return=minimal")
	}
	return c.doTable(req, dest)
}

// ---------- storage ----------

func (c *RESTClient) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/storage/v1/object/"+bucket+"/"+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	return nil
}

func (c *RESTClient) GetPublicURL(bucket, path string) string {
	return c.baseURL + "/storage/v1/object/public/" + bucket + "/" + path
}

// StorageEndpoint is the storage API root, used by upload strategies that
// build their own requests.
func (c *RESTClient) StorageEndpoint() string {
	return c.baseURL + "/storage/v1"
}

// AccessToken returns the current bearer token: the signed-in user's access
// token, or the anon key when no session is held.
func (c *RESTClient) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session.AccessToken
	}
	return c.anonKey
}

// APIKey returns the project API key.
func (c *RESTClient) APIKey() string {
	return c.anonKey
}

// ---------- internals ----------

func (c *RESTClient) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *RESTClient) saveSession(ctx context.Context, s *Session) {
	if err := c.store.Save(s); err != nil {
		c.log.Warn(ctx, "could not persist session tokens", "error", err)
	}
}

func (c *RESTClient) clearSession() {
	c.setSession(nil)
	_ = c.store.Clear()
}

func (c *RESTClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.AccessToken())
	return req, nil
}

// doJSON performs an auth-surface request with a JSON body and decodes the
// response into dest when provided.
func (c *RESTClient) doJSON(ctx context.Context, method, path string, q url.Values, body any, dest any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	if len(q) > 0 {
		path = path + "?" + q.Encode()
	}

	req, err := c.newRequest(ctx, method, path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *RESTClient) doTable(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readAPIError parses the error body. The auth and table surfaces use
// slightly different shapes, so all known fields are tried.
func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var payload struct {
		Code             any    `json:"code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorCode        string `json:"error_code"`
		ErrorField       string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(data, &payload)

	code := ""
	switch v := payload.Code.(type) {
	case string:
		code = v
	case float64:
		code = fmt.Sprintf("%d", int(v))
	}
	if code == "" {
		code = payload.ErrorCode
	}

	message := payload.Message
	if message == "" {
		message = payload.Msg
	}
	if message == "" {
		message = payload.ErrorDescription
	}
	if message == "" {
		message = payload.ErrorField
	}
	if message == "" {
		message = strings.TrimSpace(string(data))
	}
	if message == "" {
		message = resp.Status
	}
	return newAPIError(resp.StatusCode, code, message)
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
