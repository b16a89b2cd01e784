package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/leapstack-labs/leapexpr/internal/engine"
	"github.com/leapstack-labs/leapexpr/internal/metadata"
	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/complete"
	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/mbql"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error       string            `json:"error"`
	Diagnostics []core.Diagnostic `json:"diagnostics,omitempty"`
}

// badRequest marks errors caused by the request itself.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to its status code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var br badRequest
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &br):
		status = http.StatusBadRequest
	case errors.Is(err, metadata.ErrTableNotFound):
		status = http.StatusNotFound
	case errors.Is(err, mbql.ErrMalformed), errors.Is(err, mbql.ErrUnknownClause):
		status = http.StatusUnprocessableEntity
	default:
		var perr *metadata.ProviderError
		if errors.As(err, &perr) {
			status = http.StatusBadGateway
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return badRequest{fmt.Errorf("invalid request body: %w", err)}
	}
	return nil
}

// checkMode rejects unknown modes before the engine runs.
func checkMode(mode string) error {
	if _, err := core.ParseExpressionMode(mode); err != nil {
		return badRequest{err}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type tokenizeRequest struct {
	Source string `json:"source"`
	Trivia bool   `json:"trivia,omitempty"`
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	toks := s.engine.Tokenize(req.Source, req.Trivia)
	writeJSON(w, http.StatusOK, map[string]any{"tokens": engine.TokenInfos(toks)})
}

type parseResponse struct {
	Tree        string            `json:"tree,omitempty"`
	Diagnostics []core.Diagnostic `json:"diagnostics"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tree, diags := s.engine.Parse(req.Source)
	resp := parseResponse{Diagnostics: nonNil(diags)}
	if tree != nil {
		resp.Tree = tree.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// compile decodes an engine request and runs the pipeline.
func (s *Server) compile(w http.ResponseWriter, r *http.Request) (*engine.Result, bool) {
	var req engine.Request
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if err := checkMode(req.Mode); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	res, err := s.engine.Compile(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	res.Diagnostics = nonNil(res.Diagnostics)
	return res, true
}

// handleCheck always answers 200; validity is in the diagnostics.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	res, ok := s.compile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	res, ok := s.compile(w, r)
	if !ok {
		return
	}
	if !res.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "formula has errors", Diagnostics: res.Diagnostics})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mbql": res.MBQL, "type": res.Type})
}

type decompileRequest struct {
	MBQL json.RawMessage `json:"mbql"`
}

func (s *Server) handleDecompile(w http.ResponseWriter, r *http.Request) {
	var req decompileRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.MBQL) == 0 {
		s.writeError(w, r, badRequest{errors.New("mbql is required")})
		return
	}
	formula, err := s.engine.Decompile(req.MBQL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"formula": formula})
}

type formatRequest struct {
	Source    string `json:"source"`
	Multiline bool   `json:"multiline,omitempty"`
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	formatted, diags := s.engine.Format(req.Source, req.Multiline)
	if len(diags) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "formula does not parse", Diagnostics: diags})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"formatted": formatted})
}

type suggestRequest struct {
	engine.Request
	// Cursor is a byte offset; nil means the end of the source.
	Cursor   *int   `json:"cursor,omitempty"`
	Category string `json:"category,omitempty"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkMode(req.Mode); err != nil {
		s.writeError(w, r, err)
		return
	}
	category, err := complete.ParseCategory(req.Category)
	if err != nil {
		s.writeError(w, r, badRequest{err})
		return
	}
	cursor := len(req.Source)
	if req.Cursor != nil {
		cursor = *req.Cursor
	}
	if cursor < 0 || cursor > len(req.Source) {
		s.writeError(w, r, badRequest{fmt.Errorf("cursor %d is outside the source", cursor)})
		return
	}

	res, err := s.engine.Suggest(r.Context(), req.Request, cursor, category)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res == nil {
		res = &complete.Result{From: cursor, To: cursor}
	}
	if res.Candidates == nil {
		res.Candidates = []complete.Candidate{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClauses(w http.ResponseWriter, r *http.Request) {
	var cats []clause.Category
	if name := r.URL.Query().Get("category"); name != "" {
		cat, err := clause.ParseCategory(name)
		if err != nil {
			s.writeError(w, r, badRequest{err})
			return
		}
		cats = append(cats, cat)
	}
	defs, err := s.engine.Clauses(r.Context(), cats...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clauses": engine.ClauseInfos(defs)})
}

// handleEvents streams a "metadata" event each time the metadata is
// reloaded, until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			_, _ = fmt.Fprint(w, "event: metadata\ndata: {\"reloaded\":true}\n\n")
			flusher.Flush()
		}
	}
}

func nonNil(diags []core.Diagnostic) []core.Diagnostic {
	if diags == nil {
		return []core.Diagnostic{}
	}
	return diags
}
