package secrets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is a tiny KV v2 engine mounted at /v1/secret
type fakeKV struct {
	mu     sync.Mutex
	values map[string]string
	token  string
}

func (f *fakeKV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Vault-Token") != f.token {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/v1/secret/data/"):
		key := strings.TrimPrefix(r.URL.Path, "/v1/secret/data/")
		switch r.Method {
		case http.MethodGet:
			value, ok := f.values[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"errors":[]}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"data": map[string]any{"value": value}}})
		case http.MethodPost:
			var body struct {
				Data map[string]string `json:"data"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.values[key] = body.Data["value"]
			w.WriteHeader(http.StatusOK)
		}
	case strings.HasPrefix(r.URL.Path, "/v1/secret/metadata/") && r.Method == http.MethodDelete:
		delete(f.values, strings.TrimPrefix(r.URL.Path, "/v1/secret/metadata/"))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFakeVault(t *testing.T) (*fakeKV, *VaultClient) {
	t.Helper()
	kv := &fakeKV{values: make(map[string]string), token: "root"}
	server := httptest.NewServer(kv)
	t.Cleanup(server.Close)

	client, err := NewVaultClient(VaultConfig{Addr: server.URL, Token: "root", Path: "patientportal"})
	require.NoError(t, err)
	return kv, client
}

func TestVaultClient_RoundTrip(t *testing.T) {
	kv, client := newFakeVault(t)
	ctx := context.Background()

	_, err := client.Read(ctx, "access_token")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	require.NoError(t, client.Write(ctx, "access_token", "tok"))
	assert.Equal(t, "tok", kv.values["patientportal/access_token"])

	value, err := client.Read(ctx, "access_token")
	require.NoError(t, err)
	assert.Equal(t, "tok", value)

	require.NoError(t, client.Delete(ctx, "access_token"))
	_, err = client.Read(ctx, "access_token")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	assert.NoError(t, client.Delete(ctx, "access_token"))
}

func TestVaultClient_BadToken(t *testing.T) {
	kv := &fakeKV{values: make(map[string]string), token: "root"}
	server := httptest.NewServer(kv)
	defer server.Close()

	client, err := NewVaultClient(VaultConfig{Addr: server.URL, Token: "wrong", Path: "p"})
	require.NoError(t, err)

	_, err = client.Read(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSecretNotFound)
}

func TestNewVaultClient_Incomplete(t *testing.T) {
	_, err := NewVaultClient(VaultConfig{Addr: "http://vault:8200"})
	assert.Error(t, err)
}

func TestBuildVaultURL(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		mount   string
		kind    string
		path    string
		version int
		want    string
		wantErr bool
	}{
		{name: "kv2 data", addr: "http://v:8200/", mount: "secret", kind: "data", path: "app/k", version: 2, want: "http://v:8200/v1/secret/data/app/k"},
		{name: "kv2 metadata", addr: "http://v:8200", mount: "/kv/", kind: "metadata", path: "/k", version: 2, want: "http://v:8200/v1/kv/metadata/k"},
		{name: "kv1", addr: "http://v:8200", mount: "secret", path: "app/k", version: 1, want: "http://v:8200/v1/secret/app/k"},
		{name: "missing path", addr: "http://v:8200", mount: "secret", version: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildVaultURL(tt.addr, tt.mount, tt.kind, tt.path, tt.version)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringifyVaultValue(t *testing.T) {
	assert.Equal(t, "abc", stringifyVaultValue("abc"))
	assert.Equal(t, "", stringifyVaultValue(nil))
	assert.Equal(t, "true", stringifyVaultValue(true))
	assert.Equal(t, "42", stringifyVaultValue(float64(42)))
	assert.Equal(t, `{"a":1}`, stringifyVaultValue(map[string]int{"a": 1}))
}
