package api

import (
	"net/http"

	"github.com/denizumutdereli/moodlens/pkg/api/apierr"
	"github.com/denizumutdereli/moodlens/pkg/core"
)

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.handleConfigGet(w, r)
	case "POST":
		s.handleConfigSet(w, r)
	default:
		apierr.MethodNotAllowed(w)
	}
}

// handleConfigGet returns the active configuration snapshot. Secrets are omitted.
func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	s.cfgMu.RLock()
	sec := s.config.Security
	s.cfgMu.RUnlock()

	s.rateLimitMu.Lock()
	rateLimit := s.rateLimitRequests
	s.rateLimitMu.Unlock()

	writeResponse(w, r, http.StatusOK, map[string]any{
		"server": map[string]any{
			"httpAddr": s.config.Server.HTTPAddr,
		},
		"engine": map[string]any{
			"lexiconPath":     s.config.Engine.LexiconPath,
			"baselineEnabled": s.baseline != nil,
		},
		"checkin": map[string]any{
			"stripMarkup": s.config.Checkin.StripMarkup,
		},
		"batch": map[string]any{
			"workers":  s.batch.Workers(),
			"maxItems": s.batch.MaxItems(),
		},
		"mcp": map[string]any{
			"enabled":      s.config.MCP.Enabled,
			"path":         s.config.MCP.Path,
			"authEnabled":  s.config.MCP.APIKey != "",
			"stateless":    s.config.MCP.Stateless,
			"allowedTools": s.config.MCP.AllowedTools,
		},
		"admin": map[string]any{
			"enabled": s.config.Admin.Enabled,
			"user":    s.config.Admin.User,
		},
		"security": map[string]any{
			"allowedOrigins":    sec.AllowedOrigins,
			"maxRequestBody":    sec.MaxRequestBody,
			"maxTextBytes":      core.MaxTextBytes(),
			"rateLimitRequests": rateLimit,
			"rateLimitWindow":   s.rateLimitWindow.String(),
			"tlsEnabled":        sec.TLSCert != "",
			"readTimeout":       sec.ReadTimeout.String(),
			"writeTimeout":      sec.WriteTimeout.String(),
		},
	})
}

// handleConfigSet applies a partial runtime configuration patch.
// Only fields that are safe to change at runtime are accepted.
func (s *Server) handleConfigSet(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		Security *struct {
			AllowedOrigins    *string `json:"allowedOrigins,omitempty"`
			MaxRequestBody    *int64  `json:"maxRequestBody,omitempty"`
			MaxTextBytes      *int64  `json:"maxTextBytes,omitempty"`
			RateLimitRequests *int    `json:"rateLimitRequests,omitempty"`
		} `json:"security,omitempty"`
	}

	if !s.decodeJSONRequest(w, r, &patch, apierr.CodeBadRequest) {
		return
	}

	changed := []string{}
	rejected := []string{}

	if sec := patch.Security; sec != nil {
		s.cfgMu.Lock()
		if v := sec.AllowedOrigins; v != nil {
			if *v == "*" && s.config.Admin.Enabled {
				rejected = append(rejected, "security.allowedOrigins: wildcard not allowed while admin is enabled")
			} else {
				s.config.Security.AllowedOrigins = *v
				changed = append(changed, "security.allowedOrigins")
			}
		}
		if v := sec.MaxRequestBody; v != nil {
			if *v < 0 {
				rejected = append(rejected, "security.maxRequestBody: must be >= 0")
			} else {
				s.config.Security.MaxRequestBody = *v
				changed = append(changed, "security.maxRequestBody")
			}
		}
		if v := sec.MaxTextBytes; v != nil {
			if err := core.SetMaxTextBytes(*v); err != nil {
				rejected = append(rejected, "security.maxTextBytes: must be > 0")
			} else {
				s.config.Security.MaxTextBytes = *v
				changed = append(changed, "security.maxTextBytes")
			}
		}
		s.cfgMu.Unlock()

		if v := sec.RateLimitRequests; v != nil {
			if *v < 0 {
				rejected = append(rejected, "security.rateLimitRequests: must be >= 0")
			} else {
				s.rateLimitMu.Lock()
				s.rateLimitRequests = *v
				s.rateLimitMu.Unlock()
				changed = append(changed, "security.rateLimitRequests")
			}
		}
	}

	if len(changed) == 0 {
		msg := "no valid runtime parameters provided"
		if len(rejected) > 0 {
			msg = "all parameters rejected"
		}
		apierr.BadRequest(w, apierr.CodeBadRequest, msg)
		return
	}

	resp := map[string]any{
		"changed": changed,
		"count":   len(changed),
	}
	if len(rejected) > 0 {
		resp["rejected"] = rejected
	}
	writeOK(w, r, resp)
}
