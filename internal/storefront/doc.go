// Package storefront provides an HTTP client for the storefront REST API.
//
// # Overview
//
// The storefront backend owns every wire format; this package only consumes
// it. A single Client handles transport concerns and three services map the
// API onto ecoshop's domain types:
//
//   - CartService: implements cart.Remote
//   - AuthService: implements session.Remote, plus account registration
//   - ProductService: product listing and detail by slug
//
// # Client Usage
//
//	client, err := storefront.NewClient(cfg.APIURL,
//		storefront.WithToken(sess.Token),
//		storefront.WithUnauthorized(func() { sess.ForceLogout(ctx) }),
//	)
//	if err != nil {
//		return err
//	}
//	carts := storefront.NewCartService(client, images, sess.GuestKey)
//
// # API Endpoints
//
//   - GET /cart/, POST /cart/add_item/, PUT|DELETE /cart/items/{id}/
//   - DELETE /cart/clear/, POST /cart/checkout/, POST /cart/merge/
//   - POST /auth/login, POST /auth/logout, POST /auth/change-password
//   - POST /auth/register/, GET /profile
//   - GET /products/?filters, GET /products/{slug}/
//
// Paths are appended to the configured API root, so an api_url of
// http://host:8000/api yields http://host:8000/api/cart/.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and a User-Agent of ecoshop/0.1
//   - Carry Authorization: Token <token> when a token is available
//   - Carry X-Session-Key when a guest session key is available
//   - Carry a fresh X-Request-ID, logged alongside the response status
//
// Responses may wrap their payload in a {"data": ...} envelope; it is
// unwrapped transparently.
//
// # Error Handling
//
//   - 401: the unauthorized hook runs, then ErrUnauthorized is returned
//   - other 4xx/5xx: *APIError whose message is taken from the body's
//     "message", "detail" or "error" member, else "Error <code>: <text>"
//   - network and decoding failures are wrapped with fmt.Errorf
//
// # Decimals
//
// Django serialises DecimalField values as strings. Decimal and ID accept
// strings, numbers and null so callers never see the difference.
//
// # Thread Safety
//
// Client and the services are safe for concurrent use.
package storefront
