package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RunScript(t *testing.T) {
	srv := miniredis.RunT(t)
	c, err := NewClient(srv.Addr())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.LoadScriptFromContent("incr_by", `return redis.call('INCRBY', KEYS[1], ARGV[1])`))

	res, err := c.RunScript(context.Background(), "incr_by", []string{"counter"}, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 5, res)

	res, err = c.RunScript(context.Background(), "incr_by", []string{"counter"}, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 7, res)
}

func TestClient_RunUnknownScript(t *testing.T) {
	srv := miniredis.RunT(t)
	c, err := NewClient(srv.Addr())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.RunScript(context.Background(), "missing", nil)
	assert.Error(t, err)
}

func TestNewClient_RequiresAddress(t *testing.T) {
	_, err := NewClient(" , ")
	assert.Error(t, err)
}
