package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/config"
	"github.com/five82/ecoshop/internal/kvstore"
	"github.com/five82/ecoshop/internal/media"
	"github.com/five82/ecoshop/internal/notify"
	"github.com/five82/ecoshop/internal/pages"
	"github.com/five82/ecoshop/internal/prefs"
	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/storefront"
	"github.com/five82/ecoshop/internal/ui"
)

// Options configure the ecoshop TUI.
type Options struct {
	Config    config.Config
	Logger    *zap.Logger
	PrefsPath string // empty uses default ~/.config/ecoshop/prefs.toml
	PollEvery int    // seconds; zero uses the config value
}

// Services is everything one ecoshop process talks to. Build creates it and
// Close releases it; nothing here is global.
type Services struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    kvstore.Store
	Session  *session.Session
	Client   *storefront.Client
	Auth     *storefront.AuthService
	Products *storefront.ProductService
	Cart     *cart.Synchronizer
	Center   *notify.Center
	Deps     pages.Deps

	// LoggedOut receives true when the storefront rejected the token and the
	// session was cleared. Sends never block.
	LoggedOut chan bool

	closeStore func() error
}

// Build wires the storefront client, session and cart synchronizer. extra
// sinks receive every notification alongside the toast center and the log.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, extra ...notify.Sink) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Services{
		Config:    cfg,
		Logger:    logger,
		Center:    notify.NewCenter(5, 6*time.Second),
		LoggedOut: make(chan bool, 1),
	}

	svc.Store, svc.closeStore = openStore(ctx, cfg.StorePath, logger)

	sess, err := session.Open(ctx, nil, svc.Store, logger.Named("session"))
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("open session: %w", err)
	}
	svc.Session = sess

	client, err := storefront.NewClient(cfg.APIURL,
		storefront.WithTimeout(cfg.RequestTimeout),
		storefront.WithLogger(logger.Named("storefront")),
		storefront.WithToken(sess.Token),
		storefront.WithSessionKey(func() string {
			key, err := sess.GuestKey(context.Background())
			if err != nil {
				logger.Warn("guest session key unavailable", zap.Error(err))
			}
			return key
		}),
		storefront.WithUnauthorized(func() { sess.ForceLogout(context.Background()) }),
	)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("init storefront client: %w", err)
	}
	svc.Client = client

	images := media.NewResolver(cfg.MediaURL, cfg.Cloudinary)
	svc.Auth = storefront.NewAuthService(client)
	svc.Products = storefront.NewProductService(client, images)
	sess.SetRemote(svc.Auth)

	svc.Cart = cart.NewSynchronizer(
		storefront.NewCartService(client, images, sess.GuestKey),
		svc.Store,
		cart.WithLogger(logger.Named("cart")),
	)

	sess.OnLogout(func(forced bool) {
		svc.Cart.Reset(context.Background())
		if forced {
			select {
			case svc.LoggedOut <- true:
			default:
			}
		}
	})

	sinks := notify.Multi{svc.Center, notify.NewLog(logger)}
	sinks = append(sinks, extra...)
	svc.Deps = pages.Deps{
		Session:   sess,
		Cart:      svc.Cart,
		Registrar: svc.Auth,
		Catalog:   svc.Products,
		Notify:    sinks,
		Logger:    logger.Named("pages"),
	}
	return svc, nil
}

// Close releases the KV store.
func (s *Services) Close() error {
	if s.closeStore == nil {
		return nil
	}
	return s.closeStore()
}

// openStore prefers the SQLite file and degrades to memory so the client
// still runs on a read-only home directory.
func openStore(ctx context.Context, path string, logger *zap.Logger) (kvstore.Store, func() error) {
	if path == "" {
		return kvstore.NewMemory(), nil
	}
	db, err := kvstore.OpenSQLite(ctx, path)
	if err != nil {
		logger.Warn("persistent store unavailable, using memory", zap.String("path", path), zap.Error(err))
		return kvstore.NewMemory(), nil
	}
	return db, db.Close
}

// Initial is what Bootstrap loaded before the UI starts.
type Initial struct {
	Products    storefront.ProductPage
	ProductsErr error
	Filter      storefront.ProductFilter
}

// Bootstrap verifies a restored token, loads the cart and fetches the first
// product page concurrently. Failures are recorded, not returned: the UI
// starts either way.
func Bootstrap(ctx context.Context, svc *Services, filter storefront.ProductFilter) Initial {
	initial := Initial{Filter: filter}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		svc.Session.CheckAuth(gctx)
		return nil
	})
	g.Go(func() error {
		if err := svc.Cart.Refresh(gctx); err != nil {
			svc.Logger.Info("initial cart load failed", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		initial.Products, initial.ProductsErr = svc.Products.List(gctx, filter)
		return nil
	})
	_ = g.Wait()
	return initial
}

// Run boots the ecoshop TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	svc, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	filter := storefront.ProductFilter{Ordering: userPrefs.Ordering, EcoBadge: userPrefs.EcoBadge, Limit: ui.ProductPageSize}
	initial := Bootstrap(ctx, svc, filter)

	pollCtx, stopPoller := context.WithCancel(ctx)
	done := StartPoller(pollCtx, svc.Cart, interval, logger.Named("poller"))
	defer func() {
		stopPoller()
		<-done
	}()

	return ui.Run(ui.Options{
		Context:   ctx,
		Deps:      svc.Deps,
		Session:   svc.Session,
		Cart:      svc.Cart,
		Center:    svc.Center,
		LoggedOut: svc.LoggedOut,
		Products:  initial.Products,
		LoadErr:   initial.ProductsErr,
		Filter:    initial.Filter,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Logger:    logger.Named("ui"),
	})
}
