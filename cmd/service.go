package cmd

import (
	log "github.com/sirupsen/logrus"

	"arxiv_digest/config"
	"arxiv_digest/digest"
	"arxiv_digest/internal/store"
	"arxiv_digest/render"
)

// newService builds a digest service for one-shot commands. The returned
// closer releases the run store.
func newService(cfg config.Config) (*digest.Service, func()) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open run store: %v", err)
	}
	renderer, err := render.NewHTMLRenderer(cfg.TemplatePath)
	if err != nil {
		st.Close()
		log.Fatalf("renderer: %v", err)
	}
	return digest.NewService(cfg, st, renderer), func() { st.Close() }
}
