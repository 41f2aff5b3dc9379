package rendezvous_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-rendezvous/internal/rendezvous"
	pkgif "github.com/dep2p/go-rendezvous/pkg/interfaces"
)

func TestModuleWiring(t *testing.T) {
	serverTr := newTestTransport(t)
	ln, err := serverTr.Listen("127.0.0.1:0")
	require.NoError(t, err)

	var point *rendezvous.Point
	app := fxtest.New(t,
		fx.Supply(fx.Annotate(ln, fx.As(new(pkgif.Listener)))),
		rendezvous.Module,
		fx.Populate(&point),
	)
	app.RequireStart()
	defer app.RequireStop()

	// 生命周期钩子启动了服务，客户端可以直接使用
	client := newTestClient(t, ln.Addr())
	ttl, err := client.Register(context.Background(), "my-app", []string{"/a"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)
	assert.Equal(t, 1, point.Stats().TotalRegistrations)
}
