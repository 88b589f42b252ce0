package mnet

import (
	"context"
	"fmt"
	"io"
	"net"
	. "testing"

	"github.com/Nick-ccq/k10-base64/mcfg"
	"github.com/Nick-ccq/k10-base64/mrun"
	"github.com/Nick-ccq/k10-base64/mtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReservedIP(t *T) {
	for _, tc := range []struct {
		ip       string
		reserved bool
	}{
		{"127.0.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"192.168.40.50", true},
		{"::1", true},
		{"100::1", true},
		{"8.8.8.8", false},
		{"::ffff:8.8.8.8", false},
		{"2600:1700:7580:6e80:21c:25ff:fe97:44df", false},
	} {
		ip := net.ParseIP(tc.ip)
		require.NotNil(t, ip, "ip:%q", tc.ip)
		assert.Equal(t, tc.reserved, IsReservedIP(ip), "ip:%q", tc.ip)
	}
}

func TestMListen(t *T) {
	cmp := mtest.Component()
	l := MListen(cmp, "", "127.0.0.1:0")
	mtest.Run(cmp, t, func() {
		go func() {
			conn, err := net.Dial("tcp", l.Addr().String())
			if err != nil {
				t.Error(err)
				return
			} else if _, err = fmt.Fprint(conn, "hello world"); err != nil {
				t.Error(err)
			}
			conn.Close()
		}()

		conn, err := l.Accept()
		require.NoError(t, err)
		defer conn.Close()
		b, err := io.ReadAll(conn)
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(b))
	})
}

func TestMListenBadAddr(t *T) {
	cmp := mtest.Component()
	MListen(cmp, "", "")
	err := mcfg.Populate(cmp, &mcfg.SourceEnv{Env: []string{"LISTEN_ADDR=not-an-address"}})
	require.NoError(t, err)

	err = mrun.Init(context.Background(), cmp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-an-address")

	// the listener was never opened, so shutting down is a no-op
	assert.NoError(t, mrun.Shutdown(context.Background(), cmp))
}
