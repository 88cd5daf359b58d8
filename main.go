package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/miki-714/portfolio/internal/content"
	"github.com/miki-714/portfolio/internal/store"
	"github.com/miki-714/portfolio/internal/typewriter"
)

type server struct {
	cfg     Config
	site    *content.Site
	store   *store.Store
	mailer  mailer
	limiter *contactLimiter
	admin   *adminAuth
	salt    string
	// hero is the text shown before any stream has started.
	hero typewriter.Frame

	// bg tracks background writes started by request handlers.
	bg sync.WaitGroup
	// streams tracks hero handlers. Shutdown does not wait for hijacked
	// WebSocket connections, so these are drained before the store closes.
	streams sync.WaitGroup
}

// drain waits for hero streams and background writes to finish.
func (s *server) drain() {
	s.streams.Wait()
	s.bg.Wait()
}

func newServer(cfg Config, site *content.Site, st *store.Store, m mailer) (*server, error) {
	salt := cfg.HashSalt
	if salt == "" {
		salt = randomToken()
	}
	admin, err := newAdminAuth(cfg)
	if err != nil {
		return nil, err
	}
	s := &server{
		cfg:     cfg,
		site:    site,
		store:   st,
		mailer:  m,
		limiter: newContactLimiter(cfg.ContactLimit, cfg.ContactWindow),
		admin:   admin,
		salt:    salt,
	}
	// Fail fast on a role list the hero could never animate.
	c, err := s.newCycler()
	if err != nil {
		return nil, err
	}
	s.hero = c.Frame()
	return s, nil
}

func (s *server) routes() (*gin.Engine, error) {
	r := gin.Default()

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	r.StaticFS("/static", http.FS(staticFiles()))
	r.Use(s.visitorTrackingMiddleware())

	r.GET("/", s.page("home", "Home"))
	r.GET("/about", s.page("about", "About"))
	r.GET("/portfolio", s.page("portfolio", "Portfolio"))
	r.GET("/blog", s.page("blog", "Blog"))
	r.GET("/contact", s.page("contact", "Contact"))

	// Project notice fragment shown when an unfinished project is opened.
	r.GET("/projects/:id/notice", s.projectNotice)

	r.GET("/hero", s.heroFragment)
	r.GET("/hero/stream", s.heroStream)
	r.GET("/ws/hero", s.heroSocket)

	r.GET("/cv", s.cvViewer)
	r.GET("/cv/download", s.cvDownload)

	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact-form", s.pageData(c, "Contact", nil))
	})
	r.POST("/contact", s.submitContact)

	s.setupAdminRoutes(r)
	return r, nil
}

// pageData is the common template data for every page and fragment.
func (s *server) pageData(c *gin.Context, title string, extra gin.H) gin.H {
	data := gin.H{
		"title":    title,
		"site":     s.site,
		"nav":      navItems(c.Request.URL.Path),
		"menuOpen": menuOpen(c),
		"hero":     s.hero,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// page renders the full layout, or only the page body for HTMX requests.
func (s *server) page(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := s.pageData(c, title, nil)
		if c.GetHeader("HX-Request") == "true" {
			c.HTML(http.StatusOK, name+"-body", data)
			return
		}
		c.HTML(http.StatusOK, name+".html", data)
	}
}

func menuOpen(c *gin.Context) bool {
	return c.Query("menu") == "open"
}

func (s *server) projectNotice(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid project id")
		return
	}
	p, ok := s.site.Project(id)
	if !ok {
		c.String(http.StatusNotFound, "project not found")
		return
	}
	c.HTML(http.StatusOK, "project-notice", gin.H{"project": p})
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	site, err := loadSite(cfg.ContentFile)
	if err != nil {
		log.Fatalf("Failed to load site content: %v", err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	srv, err := newServer(cfg, site, st, newSMTPMailer(cfg))
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	r, err := srv.routes()
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Hero streams run until their request context ends, so requests
	// inherit ctx and stop with the server.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		color.New(color.FgYellow, color.Bold).Printf("%s portfolio listening on :%s\n", site.Owner.Brand, cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		srv.runRetention(ctx, 24*time.Hour)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
	// Every stream's context derives from ctx, which is done by now.
	srv.drain()
	log.Println("Shutdown complete")
}
