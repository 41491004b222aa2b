package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/denizumutdereli/moodlens/pkg/api/apierr"
	"github.com/denizumutdereli/moodlens/pkg/checkin"
	"github.com/denizumutdereli/moodlens/pkg/core"
	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

type analyzeRequest struct {
	Text    string `json:"text"`
	Explain bool   `json:"explain,omitempty"`
}

type batchRequest struct {
	Texts    []string        `json:"texts,omitempty"`
	Checkins []checkin.Input `json:"checkins,omitempty"`
}

// handleHealth returns health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, r, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"lexicon":   s.adapter.Engine().Lexicon().Stats(),
		"baseline":  s.baseline != nil,
		"batch":     s.batch.Stats(),
	})
}

// handleAnalyze scores free text. Empty text is valid and yields the
// neutral zero-confidence result.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apierr.MethodNotAllowed(w)
		return
	}
	var req analyzeRequest
	if !s.decodeJSONRequest(w, r, &req, apierr.CodeBadRequest) {
		return
	}
	if err := core.ValidateText(req.Text); err != nil {
		s.writeOperationError(w, err)
		return
	}

	engine := s.adapter.Engine()
	if req.Explain || explainRequested(r) {
		result, bd := engine.Explain(req.Text)
		writeOK(w, r, map[string]any{"result": result, "breakdown": bd})
		return
	}
	writeOK(w, r, map[string]any{"result": engine.Analyze(req.Text)})
}

// handleCheckin scores a check-in record. ?explain=true adds the breakdown.
func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apierr.MethodNotAllowed(w)
		return
	}
	var in checkin.Input
	if !s.decodeJSONRequest(w, r, &in, apierr.CodeInvalidCheckin) {
		return
	}
	if err := validateCheckin(in); err != nil {
		s.writeOperationError(w, err)
		return
	}

	text, result, bd := s.adapter.Explain(in)
	body := map[string]any{"text": text, "result": result}
	if explainRequested(r) {
		body["breakdown"] = bd
	}
	writeOK(w, r, body)
}

// handleBatch scores either a list of texts or a list of check-ins.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apierr.MethodNotAllowed(w)
		return
	}
	var req batchRequest
	if !s.decodeJSONRequest(w, r, &req, apierr.CodeBadRequest) {
		return
	}

	var (
		results []sentiment.Result
		err     error
	)
	switch {
	case len(req.Texts) == 0 && len(req.Checkins) == 0:
		s.writeOperationError(w, fmt.Errorf("%w: provide texts or checkins", core.ErrBatchEmpty))
		return
	case len(req.Texts) > 0 && len(req.Checkins) > 0:
		apierr.BadRequest(w, apierr.CodeBadRequest, "provide either texts or checkins, not both")
		return
	case len(req.Texts) > 0:
		for i, text := range req.Texts {
			if err := core.ValidateText(text); err != nil {
				s.writeOperationError(w, fmt.Errorf("texts[%d]: %w", i, err))
				return
			}
		}
		results, err = s.batch.AnalyzeTexts(r.Context(), req.Texts)
	default:
		for i, in := range req.Checkins {
			if err := validateCheckin(in); err != nil {
				s.writeOperationError(w, fmt.Errorf("checkins[%d]: %w", i, err))
				return
			}
		}
		results, err = s.batch.AnalyzeCheckins(r.Context(), req.Checkins)
	}
	if err != nil {
		s.writeOperationError(w, err)
		return
	}

	writeOK(w, r, map[string]any{"results": results, "count": len(results)})
}

// handleCompare places the engine result next to the VADER baseline.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apierr.MethodNotAllowed(w)
		return
	}
	if s.baseline == nil {
		s.writeOperationError(w, core.ErrBaselineDisabled)
		return
	}
	var req analyzeRequest
	if !s.decodeJSONRequest(w, r, &req, apierr.CodeBadRequest) {
		return
	}
	if err := core.ValidateRequiredText(req.Text); err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeOK(w, r, map[string]any{"comparison": s.baseline.Compare(s.adapter.Engine(), req.Text)})
}

// handleCheckinSchema serves the JSON schema of a check-in record.
func (s *Server) handleCheckinSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apierr.MethodNotAllowed(w)
		return
	}
	blob, err := checkin.SchemaJSON()
	if err != nil {
		apierr.Internal(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

// handleLexicon reports the size and origin of the active lexicon.
func (s *Server) handleLexicon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apierr.MethodNotAllowed(w)
		return
	}
	writeOK(w, r, map[string]any{
		"source": lexiconSource(s.config.Engine.LexiconPath),
		"stats":  s.adapter.Engine().Lexicon().Stats(),
	})
}

func explainRequested(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("explain"))
	return err == nil && v
}
