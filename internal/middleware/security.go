package middleware

import (
	"net/http"
	"regexp"

	"github.com/unrolled/secure"

	"github.com/ayush/user-service/internal/config"
	"github.com/ayush/user-service/internal/models"
	"github.com/ayush/user-service/internal/utils"
)

// Security enforces the host allow-list, redirects plain HTTP to HTTPS and
// sets the fixed security headers on every response. X-Forwarded-Proto only
// counts as HTTPS when cfg.TrustProxy is set.
func Security(cfg config.Security) func(http.Handler) http.Handler {
	hosts := make([]string, 0, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		// any port
		hosts = append(hosts, `(?i)^`+regexp.QuoteMeta(h)+`(:\d+)?$`)
	}

	opts := secure.Options{
		AllowedHosts:          hosts,
		AllowedHostsAreRegex:  true,
		SSLRedirect:           cfg.HTTPSRedirect,
		SSLTemporaryRedirect:  true,
		ContentSecurityPolicy: "default-src 'self'",
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		BrowserXssFilter:      true,
	}
	if cfg.TrustProxy {
		opts.SSLProxyHeaders = map[string]string{"X-Forwarded-Proto": "https"}
	}

	s := secure.New(opts)
	s.SetBadHostHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSON(w, models.Detail{Detail: "Invalid host header"}, http.StatusBadRequest)
	}))

	return s.Handler
}
