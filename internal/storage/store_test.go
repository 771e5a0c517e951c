package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type fakeMongoConn struct {
	pingErr      error
	disconnected int
}

func (c *fakeMongoConn) Ping(context.Context, *readpref.ReadPref) error { return c.pingErr }

func (c *fakeMongoConn) Disconnect(context.Context) error {
	c.disconnected++
	return nil
}

func TestPingOrDisconnect(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		conn := &fakeMongoConn{}
		require.NoError(t, pingOrDisconnect(context.Background(), conn))
		assert.Zero(t, conn.disconnected)
	})

	t.Run("unreachable releases the client", func(t *testing.T) {
		down := errors.New("server selection timeout")
		conn := &fakeMongoConn{pingErr: down}

		err := pingOrDisconnect(context.Background(), conn)
		require.ErrorIs(t, err, down)
		assert.Contains(t, err.Error(), "ping mongo")
		assert.Equal(t, 1, conn.disconnected)
	})
}
