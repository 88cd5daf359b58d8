// admin.go - privacy-conscious visitor tracking and the operator dashboard
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/miki-714/portfolio/internal/store"
)

const (
	adminCookie   = "admin_token"
	adminTokenTTL = 24 * time.Hour
	adminIssuer   = "portfolio-admin"
)

// devAdminPassword is accepted only in gin debug mode when no password is
// configured.
const devAdminPassword = "admin123"

type adminAuth struct {
	username string
	password string
	secret   []byte
}

func newAdminAuth(cfg Config) (*adminAuth, error) {
	a := &adminAuth{username: cfg.AdminUsername, password: cfg.AdminPassword}
	if a.password == "" && gin.Mode() == gin.DebugMode {
		log.Println("WARNING: Using default admin password. Set ADMIN_PASSWORD environment variable.")
		a.password = devAdminPassword
	}
	if a.password == "" {
		log.Println("Admin login disabled: ADMIN_PASSWORD is not set")
	}

	if cfg.AdminSecret != "" {
		a.secret = []byte(cfg.AdminSecret)
	} else {
		// Sessions won't survive a restart without a configured secret.
		secret, err := hex.DecodeString(randomToken())
		if err != nil {
			return nil, fmt.Errorf("admin secret: %w", err)
		}
		a.secret = secret
	}
	log.Printf("Admin access available at: /admin/login")
	return a, nil
}

func (a *adminAuth) check(username, password string) bool {
	if a.password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

func (a *adminAuth) issue(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    adminIssuer,
		Subject:   a.username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *adminAuth) verify(token string) error {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(adminIssuer),
		jwt.WithSubject(a.username),
		jwt.WithExpirationRequired(),
	)
	return err
}

func randomToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal("Failed to generate random token:", err)
	}
	return hex.EncodeToString(bytes)
}

// Hash IP address for privacy compliance (consistent per IP)
func (s *server) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + s.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

// Middleware to check admin authentication
func (s *server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || s.admin.verify(token) != nil {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Privacy-conscious visitor tracking middleware
func (s *server) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet ||
			strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/admin/") ||
			strings.HasPrefix(path, "/hero") ||
			strings.HasPrefix(path, "/ws/") ||
			strings.HasPrefix(path, "/favicon") ||
			strings.HasPrefix(path, "/privacy") ||
			c.GetHeader("HX-Request") == "true" {
			c.Next()
			return
		}

		// Respect Do Not Track header
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		v := store.Visitor{
			HashedIP:  s.hashIP(c.ClientIP()),
			UserAgent: c.GetHeader("User-Agent"),
			Path:      path,
			Timestamp: time.Now(),
		}
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.store.RecordVisit(ctx, v); err != nil {
				log.Printf("Error recording visitor: %v", err)
			}
		}()
		c.Next()
	}
}

// cleanupOldVisitorData removes visitor records past the retention period.
func (s *server) cleanupOldVisitorData(ctx context.Context) {
	removed, err := s.store.PruneVisitors(ctx, time.Now())
	if err != nil {
		log.Printf("Error cleaning up old visitor data: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Privacy cleanup: Removed %d visitor records older than 12 months", removed)
	}
}

// runRetention prunes visitor data now and then every interval until ctx
// is done.
func (s *server) runRetention(ctx context.Context, interval time.Duration) {
	s.cleanupOldVisitorData(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupOldVisitorData(ctx)
		}
	}
}

// Setup all admin routes
func (s *server) setupAdminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", s.pageData(c, "Privacy Policy", nil))
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		if !s.admin.check(c.PostForm("username"), c.PostForm("password")) {
			log.Printf("Failed admin login attempt from %s", s.hashIP(c.ClientIP()))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"title": "Admin Login",
				"error": "Invalid credentials",
			})
			return
		}

		token, err := s.admin.issue(time.Now())
		if err != nil {
			log.Printf("Error issuing admin token: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Login failed"})
			return
		}
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookie, token, int(adminTokenTTL.Seconds()), "/admin", "", gin.Mode() == gin.ReleaseMode, true)
		log.Printf("Admin login successful from %s", s.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", gin.Mode() == gin.ReleaseMode, true)
		log.Printf("Admin logout from %s", s.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(s.adminAuthMiddleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			log.Printf("Error loading admin stats: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"title": "Dashboard",
			"stats": stats,
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.GET("/messages", func(c *gin.Context) {
		messages, err := s.store.Messages(c.Request.Context(), 200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load messages",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-messages.html", gin.H{
			"title":    "Messages",
			"messages": messages,
		})
	})

	adminGroup.DELETE("/messages/:id", func(c *gin.Context) {
		id := c.Param("id")
		err := s.store.DeleteMessage(c.Request.Context(), id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		case err != nil:
			log.Printf("Error deleting message %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
			return
		}
		log.Printf("Message %s deleted by admin from %s", id, s.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
	})

	adminGroup.GET("/visitors", func(c *gin.Context) {
		visitors, err := s.store.RecentVisitors(c.Request.Context(), 200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"title":    "Visitors",
			"visitors": visitors,
		})
	})

	adminGroup.POST("/privacy/cleanup", func(c *gin.Context) {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			s.cleanupOldVisitorData(ctx)
		}()
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup initiated"})
	})

	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		log.Printf("Admin stats exported by %s", s.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}
