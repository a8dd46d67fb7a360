package secrets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrSecretNotFound is returned when a path holds no secret
var ErrSecretNotFound = errors.New("vault secret not found")

// VaultConfig locates the KV engine. Mount defaults to "secret" and
// KVVersion to 2.
type VaultConfig struct {
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
}

// VaultClient reads and writes single-field secrets on a KV engine. Each
// key lives at <Path>/<key> as {"value": ...}.
type VaultClient struct {
	cfg        VaultConfig
	httpClient *http.Client
}

// NewVaultClient validates cfg and creates a client
func NewVaultClient(cfg VaultConfig) (*VaultClient, error) {
	if cfg.Addr == "" || cfg.Token == "" {
		return nil, errors.New("vault configuration incomplete (addr, token)")
	}
	if cfg.Mount == "" {
		cfg.Mount = "secret"
	}
	if cfg.KVVersion != 1 {
		cfg.KVVersion = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &VaultClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Read returns the value stored under key
func (c *VaultClient) Read(ctx context.Context, key string) (string, error) {
	url, err := c.url("data", key)
	if err != nil {
		return "", err
	}

	body, status, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", ErrSecretNotFound
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("vault fetch failed: %d %s", status, strings.TrimSpace(string(body)))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	data, err := extractVaultData(payload, c.cfg.KVVersion)
	if err != nil {
		return "", err
	}
	value, ok := data["value"]
	if !ok {
		return "", ErrSecretNotFound
	}
	return stringifyVaultValue(value), nil
}

// Write stores value under key, replacing the previous version
func (c *VaultClient) Write(ctx context.Context, key, value string) error {
	url, err := c.url("data", key)
	if err != nil {
		return err
	}

	secret := map[string]interface{}{"value": value}
	var payload interface{} = secret
	if c.cfg.KVVersion == 2 {
		payload = map[string]interface{}{"data": secret}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	body, status, err := c.do(ctx, http.MethodPost, url, encoded)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("vault write failed: %d %s", status, strings.TrimSpace(string(body)))
	}
	return nil
}

// Delete removes key with all of its versions; a missing key is not an error
func (c *VaultClient) Delete(ctx context.Context, key string) error {
	url, err := c.url("metadata", key)
	if err != nil {
		return err
	}

	body, status, err := c.do(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("vault delete failed: %d %s", status, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *VaultClient) do(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-Vault-Token", c.cfg.Token)
	if c.cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", c.cfg.Namespace)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// url builds the endpoint for key. KV v2 splits data and metadata; v1 uses
// one path for everything.
func (c *VaultClient) url(kind, key string) (string, error) {
	path := strings.Trim(c.cfg.Path, "/")
	if path != "" {
		path += "/"
	}
	path += strings.Trim(key, "/")
	if c.cfg.KVVersion == 1 {
		return buildVaultURL(c.cfg.Addr, c.cfg.Mount, "", path, 1)
	}
	return buildVaultURL(c.cfg.Addr, c.cfg.Mount, kind, path, 2)
}

func buildVaultURL(addr, mount, kind, path string, kvVersion int) (string, error) {
	addr = strings.TrimRight(addr, "/")
	mount = strings.Trim(mount, "/")
	path = strings.TrimLeft(path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", errors.New("vault address, mount, and path must be set")
	}
	if kvVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/%s/%s", addr, mount, kind, path), nil
}

func extractVaultData(payload map[string]interface{}, kvVersion int) (map[string]interface{}, error) {
	if kvVersion == 1 {
		if data, ok := payload["data"].(map[string]interface{}); ok {
			return data, nil
		}
		return nil, errors.New("vault response missing data for KV v1")
	}

	if data, ok := payload["data"].(map[string]interface{}); ok {
		if inner, ok := data["data"].(map[string]interface{}); ok {
			return inner, nil
		}
		// A deleted latest version reads back as data: null.
		if data["data"] == nil {
			return map[string]interface{}{}, nil
		}
	}
	return nil, errors.New("vault response missing data for KV v2")
}

func stringifyVaultValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
