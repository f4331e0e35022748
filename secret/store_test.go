package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(KeyAPIToken)
	assert.ErrorIs(t, err, ErrSecretNotFound)

	require.NoError(t, store.Set(KeyAPIToken, "hunter2"))

	value, err := store.Get(KeyAPIToken)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)

	assert.Error(t, store.Set("", "value"))
	assert.Error(t, store.Set(KeyAPIToken, ""))

	require.NoError(t, store.Close())
	_, err = store.Get(KeyAPIToken)
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestEnvStore(t *testing.T) {
	t.Setenv("FLOMVAKT_API_TOKEN", "hunter2")

	store := NewEnvStore("FLOMVAKT_")

	value, err := store.Get(KeyAPIToken)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)

	_, err = store.Get("missing_secret")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	assert.Error(t, store.Set(KeyAPIToken, "other"))
	assert.NoError(t, store.Close())
}
