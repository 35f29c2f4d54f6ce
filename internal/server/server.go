package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/civisearch/govseek/internal/cache"
	"github.com/civisearch/govseek/internal/config"
	"github.com/civisearch/govseek/internal/govdata"
	"github.com/civisearch/govseek/internal/search"
)

// Response buffer pool for reducing allocations
var responseBufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Server exposes the cache, gateway, and search boundary operations over HTTP
type Server struct {
	config    *config.Config
	store     *cache.Store
	gateway   *govdata.Gateway
	engine    *search.Engine
	resources govdata.Resources
	router    *gin.Engine
}

// New wires the service objects into a gin router. All state is injected;
// the server owns no caches of its own.
func New(cfg *config.Config, store *cache.Store, gateway *govdata.Gateway, engine *search.Engine) *Server {
	if cfg.LogLevel == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %d - %v %s %s\n",
			param.TimeStamp.Format("15:04:05"),
			param.StatusCode,
			param.Latency,
			param.Method,
			param.Path,
		)
	}))
	router.Use(gzip.Gzip(gzip.BestSpeed))

	s := &Server{
		config:    cfg,
		store:     store,
		gateway:   gateway,
		engine:    engine,
		resources: govdata.DefaultResources(cfg),
		router:    router,
	}
	s.setupRoutes()
	return s
}

// Router returns the underlying gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleHome)
	s.router.GET("/health", s.handleHealth)

	// Data sources
	s.router.GET("/api/crime", s.handleResource(func() govdata.Resource { return s.resources.Crime }))
	s.router.GET("/api/planning", s.handleResource(func() govdata.Resource { return s.resources.Planning }))
	s.router.GET("/api/spending", s.handleResource(func() govdata.Resource { return s.resources.Spending }))
	s.router.GET("/api/postcode/:postcode", s.handlePostcode)

	// Search
	s.router.GET("/api/search", s.handleSearch)
	s.router.GET("/api/suggest", s.handleSuggest)
	s.router.GET("/api/search/stats", s.handleSearchStats)
	s.router.POST("/api/search/rebuild", s.handleRebuild)

	// Cache management
	s.router.GET("/api/cache/stats", s.handleCacheStats)
	s.router.DELETE("/api/cache", s.handleCacheClear)
	s.router.DELETE("/api/cache/entry", s.handleCacheDelete)

	s.router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found")
	})
}

func (s *Server) handleHome(c *gin.Context) {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>govseek - UK open data cache</title></head>
<body>
	<h1>govseek</h1>
	<p>Caching search proxy for UK government open-data APIs.</p>
	<ul>
		<li>Cache limit: %d entries</li>
		<li>Default TTL: %s</li>
		<li>Rate limit: %d calls / %s</li>
	</ul>
	<p><a href="/health">Health Check</a> | <a href="/api/cache/stats">Cache Stats</a></p>
</body>
</html>`, s.config.CacheMaxEntries, s.config.CacheDefaultTTL, s.config.RateLimit, s.config.RateWindow)

	c.Header("Content-Type", "text/html")
	c.String(http.StatusOK, html)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleResource serves one upstream data source through the fetch gateway.
// All query parameters except refresh are forwarded upstream.
func (s *Server) handleResource(res func() govdata.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := make(map[string]string)
		refresh := false
		for name, values := range c.Request.URL.Query() {
			if len(values) == 0 {
				continue
			}
			if name == "refresh" {
				refresh = values[0] == "1" || values[0] == "true"
				continue
			}
			params[name] = values[0]
		}

		resource := res()
		var payload any
		var err error
		if refresh {
			payload, err = s.gateway.Refresh(c.Request.Context(), resource, params)
		} else {
			payload, err = s.gateway.FetchWithCache(c.Request.Context(), resource, govdata.FetchOptions{
				Params: params,
			})
		}
		if err != nil {
			s.respondError(c, err)
			return
		}

		s.writeJSON(c, http.StatusOK, payload)
	}
}

func (s *Server) handlePostcode(c *gin.Context) {
	postcode := c.Param("postcode")

	resource := s.resources.Postcode
	resource.URL = resource.URL + "/" + url.PathEscape(postcode)

	payload, err := s.gateway.FetchWithCache(c.Request.Context(), resource, govdata.FetchOptions{})
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.writeJSON(c, http.StatusOK, payload)
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	snippets := c.DefaultQuery("snippets", "1") != "0"

	resp := s.engine.Search(query, search.Options{
		Limit:           limit,
		Offset:          offset,
		Category:        cache.Category(c.Query("category")),
		SortBy:          c.DefaultQuery("sortBy", search.SortByRelevance),
		IncludeSnippets: snippets,
	})

	s.writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleSuggest(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	suggestions := s.engine.Suggest(c.Query("q"), limit)

	s.writeJSON(c, http.StatusOK, gin.H{"suggestions": suggestions})
}

func (s *Server) handleSearchStats(c *gin.Context) {
	s.writeJSON(c, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleRebuild(c *gin.Context) {
	stats := s.engine.Rebuild()
	s.writeJSON(c, http.StatusOK, stats)
}

func (s *Server) handleCacheStats(c *gin.Context) {
	s.writeJSON(c, http.StatusOK, s.store.Stats())
}

func (s *Server) handleCacheClear(c *gin.Context) {
	s.store.Clear()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *Server) handleCacheDelete(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "key query parameter is required",
		})
		return
	}

	s.store.Delete(key)
	c.JSON(http.StatusOK, gin.H{"deleted": key})
}

// respondError maps gateway errors onto HTTP statuses with a machine-readable
// kind and human message.
func (s *Server) respondError(c *gin.Context, err error) {
	var rateLimited *govdata.RateLimitedError
	if errors.As(err, &rateLimited) {
		c.Header("Retry-After", strconv.Itoa(int(rateLimited.RetryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":          "rate_limited",
			"message":        rateLimited.Error(),
			"retry_after_ms": rateLimited.RetryAfter.Milliseconds(),
		})
		return
	}

	var upstream *govdata.UpstreamError
	if errors.As(err, &upstream) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "upstream_failed",
			"message": upstream.Error(),
		})
		return
	}

	log.Error().Err(err).Msg("Unhandled request error")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal",
		"message": err.Error(),
	})
}

// writeJSON marshals v with sonic through a pooled buffer
func (s *Server) writeJSON(c *gin.Context, status int, v any) {
	buf := responseBufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		responseBufferPool.Put(buf)
	}()

	encoder := sonic.ConfigFastest.NewEncoder(buf)
	if err := encoder.Encode(v); err != nil {
		c.String(http.StatusInternalServerError, "JSON encoding error")
		return
	}

	// Copy out since buf is reused after this handler returns
	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())
	c.Data(status, "application/json", data)
}
