package redis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidURL(t *testing.T) {
	cfg := Config{URL: "not-a-redis-url"}
	client, err := cfg.New()
	require.Error(t, err)
	require.Nil(t, client)
}
