package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Route("/watchparty", func(r chi.Router) {
			r.Post("/token", c.issueToken)
			r.Get("/public", c.listPublicRooms)

			r.Group(func(r chi.Router) {
				r.Use(c.authMw)

				r.Post("/create", c.createRoom)
				r.Post("/join", c.joinRoom)
				r.Route("/{room-code}", func(r chi.Router) {
					r.Get("/", c.getRoom)
					r.Post("/leave", c.leaveRoom)
					r.Put("/video/{video-path}", c.setCurrentVideo)
					r.Get("/ws", c.connectRoom)
				})
			})
		})
	})

	return r
}
