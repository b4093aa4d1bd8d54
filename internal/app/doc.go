// Package app is the composition root for ecoshop.
//
// # Overview
//
// Build connects configuration, the KV store, the session, the storefront
// client and its services, the cart synchronizer and the notification
// sinks. Both the TUI (Run) and the one-shot CLI commands go through Build,
// so there is exactly one wiring of the client and no package-level state.
//
// # Wiring
//
//	┌──────────────┐
//	│   Build()    │
//	└──────┬───────┘
//	       │
//	       ├─────> kvstore.OpenSQLite()   falls back to kvstore.NewMemory()
//	       ├─────> session.Open()         restores token and user
//	       ├─────> storefront.NewClient() token, guest key, 401 hook
//	       ├─────> storefront services    auth, products, cart
//	       ├─────> cart.NewSynchronizer() over the cart service
//	       └─────> pages.Deps             notify.Multi{Center, Log, extra...}
//
// The storefront client reads the token from the session on every request.
// A 401 runs session.ForceLogout, whose logout hook resets the cart and
// signals LoggedOut so the UI can switch to the login view.
//
// # Startup
//
// Run loads preferences, calls Bootstrap and then starts the poller and the
// UI. Bootstrap runs three independent loads on an errgroup: verifying a
// restored token, the first cart refresh and the first product page. None
// of them is fatal; their failures are recorded for the UI to show.
//
// # Polling Behavior
//
// StartPoller refreshes the cart every poll interval (poll_seconds, default
// 15 s). While refreshes fail the delay doubles per consecutive failure up
// to 30 s, and the cart state reports offline after two failures. The
// synchronizer itself falls back to the last confirmed cart, so the UI keeps
// showing something useful offline.
//
// # Error Handling
//
// Fatal errors returned from Run and Build:
//   - Session restore failure (the KV store could not be read)
//   - Invalid api_url
//
// Everything else is logged and surfaced in state.
package app
