package mid

import (
	"context"
	"net/http"
	"strings"

	"github.com/ardanlabs/powchain/foundation/web"
)

// Cors sets the headers browsers need to call the public API from another
// origin. The origins are a comma separated list and "*" allows any. A
// request from an origin that is not listed gets no CORS headers.
func Cors(origins string) web.Middleware {
	allowed := make(map[string]bool)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			switch origin := r.Header.Get("Origin"); {
			case allowed["*"]:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			default:
				return handler(ctx, w, r)
			}

			// The node only serves reads and submissions.
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length")

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
