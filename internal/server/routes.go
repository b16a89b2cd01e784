package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) routes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.AllowContentType("application/json"),
				middleware.Compress(5),
			)
			r.Post("/tokenize", s.handleTokenize)
			r.Post("/parse", s.handleParse)
			r.Post("/check", s.handleCheck)
			r.Post("/compile", s.handleCompile)
			r.Post("/decompile", s.handleDecompile)
			r.Post("/format", s.handleFormat)
			r.Post("/suggest", s.handleSuggest)
		})

		r.With(middleware.Compress(5)).Get("/clauses", s.handleClauses)
	})
}
