package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to make cross-origin requests.
	// Empty, or a single "*", allows every origin.
	AllowOrigins []string
	// AllowMethods lists permitted methods; a sensible default is applied
	// when empty.
	AllowMethods []string
	// AllowHeaders lists permitted request headers. When empty the preflight
	// echoes back Access-Control-Request-Headers.
	AllowHeaders []string
	// ExposeHeaders lists response headers the browser may read.
	ExposeHeaders []string
	// AllowCredentials echoes the specific origin instead of "*", as the
	// wildcard is forbidden with credentials.
	AllowCredentials bool
	// MaxAge caches preflight results for this many seconds when positive.
	MaxAge int
}

// CORS returns a middleware handling cross-origin resource sharing, including
// preflight requests. Origins match case-insensitively; Vary headers are set
// so shared caches never serve one origin's response to another.
func CORS(cfg CORSConfig) Middleware {
	wildcard := len(cfg.AllowOrigins) == 0
	origins := make(map[string]string, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
			break
		}
		origins[strings.ToLower(o)] = o
	}
	if cfg.AllowCredentials {
		wildcard = false
	}

	methods := strings.Join(cfg.AllowMethods, ", ")
	if methods == "" {
		methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	headers := strings.Join(cfg.AllowHeaders, ", ")
	expose := strings.Join(cfg.ExposeHeaders, ", ")

	allowOrigin := func(origin string) string {
		if wildcard {
			return "*"
		}
		return origins[strings.ToLower(origin)]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				if !wildcard {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Add("Vary", "Origin")
				w.Header().Add("Vary", "Access-Control-Request-Method")
				w.Header().Add("Vary", "Access-Control-Request-Headers")

				allowed := allowOrigin(origin)
				if allowed == "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}

				w.Header().Set("Access-Control-Allow-Origin", allowed)
				w.Header().Set("Access-Control-Allow-Methods", methods)
				switch {
				case headers != "":
					w.Header().Set("Access-Control-Allow-Headers", headers)
				case r.Header.Get("Access-Control-Request-Headers") != "":
					w.Header().Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
				}
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if !wildcard {
				w.Header().Add("Vary", "Origin")
			}
			if allowed := allowOrigin(origin); allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if expose != "" {
					w.Header().Set("Access-Control-Expose-Headers", expose)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
