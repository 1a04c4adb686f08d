package deeplink

import "strings"

// Route is the closed set of deep-link destinations the app understands.
type Route int

const (
	RouteUnknown Route = iota
	RouteAuthCallback
	RoutePaymentCallback
	RouteShare
)

func (r Route) String() string {
	switch r {
	case RouteAuthCallback:
		return "auth_callback"
	case RoutePaymentCallback:
		return "payment_callback"
	case RouteShare:
		return "share"
	}
	return "unknown"
}

// routePrefixes is checked in order; the first literal prefix match wins.
var routePrefixes = []struct {
	route  Route
	prefix string
}{
	{RouteAuthCallback, AuthCallbackPrefix},
	{RoutePaymentCallback, PaymentCallbackPrefix},
	{RouteShare, SharePrefix},
}

// Classify maps a URL to its route. Anything unrecognized is RouteUnknown.
func Classify(url string) Route {
	for _, rp := range routePrefixes {
		if strings.HasPrefix(url, rp.prefix) {
			return rp.route
		}
	}
	return RouteUnknown
}
