package credentials

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientportal/internal/domain/providers"
	redisclient "github.com/zatekoja/patientportal/internal/infrastructure/clients/redis"
	"github.com/zatekoja/patientportal/pkg/config"
	"github.com/zatekoja/patientportal/pkg/secrets"
)

// runStoreContract checks the behaviour every CredentialStore shares
func runStoreContract(t *testing.T, store providers.CredentialStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, providers.AccessTokenKey)
	require.NoError(t, err)
	assert.False(t, ok, "never-set key must be absent")

	require.NoError(t, store.Set(ctx, providers.AccessTokenKey, "first"))
	require.NoError(t, store.Set(ctx, providers.AccessTokenKey, "second"))

	value, ok, err := store.Get(ctx, providers.AccessTokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", value)

	require.NoError(t, store.Remove(ctx, providers.AccessTokenKey))
	_, ok, err = store.Get(ctx, providers.AccessTokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Remove(ctx, providers.AccessTokenKey), "removing a missing key")
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	runStoreContract(t, NewFileStore(path))
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	require.NoError(t, NewFileStore(path).Set(ctx, providers.AccessTokenKey, "tok"))

	value, ok, err := NewFileStore(path).Get(ctx, providers.AccessTokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", value)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "credentials.json"))

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := NewFileStore(path).Get(context.Background(), providers.AccessTokenKey)
	assert.Error(t, err)
}

func TestFileStore_RemoveReplacesCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"tok"`), 0o600))

	store := NewFileStore(path)
	require.NoError(t, store.Remove(ctx, providers.AccessTokenKey))

	_, ok, err := store.Get(ctx, providers.AccessTokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok")
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("PATIENTPORTAL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PATIENTPORTAL_TEST_REDIS_ADDR not set")
	}

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := redisclient.NewClient(context.Background(), &config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	defer client.Close()

	prefix := "patientportal-test:" + strconv.FormatInt(time.Now().UnixNano(), 10) + ":"
	runStoreContract(t, NewRedisStore(client, prefix))
}

func TestVaultStore(t *testing.T) {
	var mu sync.Mutex
	values := make(map[string]string)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/secret/data/"):
			value, ok := values[strings.TrimPrefix(r.URL.Path, "/v1/secret/data/")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"data": map[string]any{"value": value}}})
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/v1/secret/data/"):
			var body struct {
				Data map[string]string `json:"data"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			values[strings.TrimPrefix(r.URL.Path, "/v1/secret/data/")] = body.Data["value"]
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/v1/secret/metadata/"):
			delete(values, strings.TrimPrefix(r.URL.Path, "/v1/secret/metadata/"))
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := secrets.NewVaultClient(secrets.VaultConfig{Addr: server.URL, Token: "root", Path: "patientportal"})
	require.NoError(t, err)

	runStoreContract(t, NewVaultStore(client))
}
