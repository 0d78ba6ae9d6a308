package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, StorageBackendMinio, cfg.Storage.Backend)
	assert.Equal(t, "us-east-1", cfg.Storage.MinioRegion)
	assert.Equal(t, time.Hour, cfg.Storage.SignedURLExpiry)
	assert.Equal(t, "images", cfg.Search.Index)
	assert.Equal(t, int64(32<<20), cfg.Upload.MaxFileSize)
	assert.True(t, cfg.Insecure())
	assert.False(t, cfg.IsProduction())
}

func TestLoadPrefixedSections(t *testing.T) {
	t.Setenv("AUTH_ISSUER_URL", "https://id.example.com/realms/beiboot")
	t.Setenv("AUTH_CLIENT_ID", "spa")
	t.Setenv("MEILISEARCH_URL", "http://search:7700")
	t.Setenv("MEILISEARCH_API_KEY", "secret")
	t.Setenv("EXIFTOOL_SCRATCH_DIR", "/scratch")
	t.Setenv("UPLOAD_MAX_FILE_SIZE", "1024")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://id.example.com/realms/beiboot", cfg.Auth.IssuerURL)
	assert.Equal(t, "spa", cfg.Auth.ClientID)
	assert.Equal(t, "http://search:7700", cfg.Search.URL)
	assert.Equal(t, "secret", cfg.Search.APIKey)
	assert.Equal(t, "/scratch", cfg.Metadata.ScratchDir)
	assert.Equal(t, int64(1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.Insecure())
}

func TestValidate(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "supabase")
	t.Setenv("SUPABASE_URL", "")
	_, err := Load()
	assert.Error(t, err, "supabase backend needs url and key")

	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageBackendSupabase, cfg.Storage.Backend)

	t.Setenv("STORAGE_BACKEND", "ftp")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("UPLOAD_MAX_FILE_SIZE", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}
