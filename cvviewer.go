package main

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/miki-714/portfolio/internal/cv"
)

// cvViewer renders the résumé panel: the page count when the document
// loads, otherwise an inline reason with a retry button.
func (s *server) cvViewer(c *gin.Context) {
	doc, err := cv.Load(s.cfg.CVPath)
	if err != nil {
		log.Printf("CV unavailable: %v", err)
		reason := "The CV could not be loaded."
		switch {
		case errors.Is(err, cv.ErrMissing):
			reason = "The CV hasn't been uploaded yet."
		case errors.Is(err, cv.ErrNotPDF), errors.Is(err, cv.ErrNoPages):
			reason = "The CV file is damaged."
		}
		c.HTML(http.StatusOK, "cv-error", gin.H{"error": reason})
		return
	}
	c.HTML(http.StatusOK, "cv-viewer", gin.H{"doc": doc})
}

func (s *server) cvDownload(c *gin.Context) {
	if _, err := cv.Load(s.cfg.CVPath); err != nil {
		c.HTML(http.StatusNotFound, "cv-error", gin.H{"error": "The CV is not available right now."})
		return
	}
	c.FileAttachment(s.cfg.CVPath, filepath.Base(s.cfg.CVPath))
}
