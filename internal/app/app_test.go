package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/config"
	"github.com/five82/ecoshop/internal/kvstore"
	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/storefront"
)

// unreachableConfig points at a port nothing listens on so requests fail
// fast without leaving connections behind.
func unreachableConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.APIURL = "http://127.0.0.1:1/api"
	cfg.StorePath = filepath.Join(t.TempDir(), "store.db")
	cfg.RequestTimeout = 2 * time.Second
	return cfg
}

func TestBuildPersistsSessionInSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := unreachableConfig(t)

	svc, err := Build(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = svc.Session.Adopt(ctx, session.LoginResult{Token: "abc", User: session.User{Username: "ana"}})
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	svc, err = Build(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer svc.Close()
	assert.Equal(t, "abc", svc.Session.Token())
	assert.IsType(t, &kvstore.SQLite{}, svc.Store)
}

func TestBuildFallsBackToMemoryStore(t *testing.T) {
	cfg := unreachableConfig(t)
	cfg.StorePath = ""

	svc, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer svc.Close()
	assert.IsType(t, &kvstore.Memory{}, svc.Store)
}

func TestForcedLogoutResetsCartAndSignals(t *testing.T) {
	ctx := context.Background()
	svc, err := Build(ctx, unreachableConfig(t), nil)
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Session.Adopt(ctx, session.LoginResult{Token: "abc"})
	require.NoError(t, err)

	svc.Session.ForceLogout(ctx)
	select {
	case forced := <-svc.LoggedOut:
		assert.True(t, forced)
	default:
		t.Fatalf("expected a logged-out signal")
	}
	assert.Equal(t, cart.SourceNone, svc.Cart.State().Cart.Source)

	// A second forced logout must not block on the full channel.
	svc.Session.ForceLogout(ctx)
	svc.Session.ForceLogout(ctx)
}

func TestBootstrapRecordsFailures(t *testing.T) {
	ctx := context.Background()
	svc, err := Build(ctx, unreachableConfig(t), nil)
	require.NoError(t, err)
	defer svc.Close()

	filter := storefront.ProductFilter{Ordering: "-price"}
	initial := Bootstrap(ctx, svc, filter)
	assert.Error(t, initial.ProductsErr)
	assert.Equal(t, filter, initial.Filter)

	st := svc.Cart.State()
	assert.Error(t, st.Err)
	assert.Equal(t, 1, st.ConsecutiveFailures)
}
