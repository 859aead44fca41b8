package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"offers-marketplace/internal/domain"
	accountsvc "offers-marketplace/internal/service/account"
	catalogsvc "offers-marketplace/internal/service/catalog"
	offersvc "offers-marketplace/internal/service/offer"
	profilesvc "offers-marketplace/internal/service/profile"
)

type AuthService interface {
	Signup(ctx context.Context, caller domain.Caller, in accountsvc.SignupInput) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (*domain.Account, string, error)
	Logout(ctx context.Context, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.Account, error)
	AccessTTLSeconds() int
}

type CatalogService interface {
	ListTree(ctx context.Context) ([]domain.CategoryTree, error)
	GetCategory(ctx context.Context, slug string) (*domain.CategoryTree, error)
	CreateCategory(ctx context.Context, caller domain.Caller, in catalogsvc.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, caller domain.Caller, slug string, patch catalogsvc.CategoryPatch) (*domain.Category, error)
	DeleteCategory(ctx context.Context, caller domain.Caller, slug string) error
	CreateSubCategory(ctx context.Context, caller domain.Caller, categorySlug string, in catalogsvc.CategoryInput) (*domain.SubCategory, error)
	UpdateSubCategory(ctx context.Context, caller domain.Caller, slug string, patch catalogsvc.SubCategoryPatch) (*domain.SubCategory, error)
	DeleteSubCategory(ctx context.Context, caller domain.Caller, slug string) error
}

type OfferService interface {
	List(ctx context.Context, caller domain.Caller, q offersvc.ListQuery) (*offersvc.Page, error)
	Get(ctx context.Context, caller domain.Caller, slug string) (*domain.Offer, error)
	Create(ctx context.Context, caller domain.Caller, in offersvc.OfferInput) (*domain.Offer, error)
	Update(ctx context.Context, caller domain.Caller, slug string, patch offersvc.OfferPatch) (*domain.Offer, error)
	Delete(ctx context.Context, caller domain.Caller, slug string) error
	Search(ctx context.Context, caller domain.Caller, query string) ([]domain.Offer, error)
}

type LogoService interface {
	Get(ctx context.Context, caller domain.Caller) (*domain.Logo, error)
	Upload(ctx context.Context, caller domain.Caller, r io.Reader) (*domain.Logo, error)
	ImageURL(key string) string
}

type ProfileService interface {
	Create(ctx context.Context, caller domain.Caller, in profilesvc.ProfileInput, front, back io.Reader) (*domain.Profile, error)
	Get(ctx context.Context, caller domain.Caller) (*domain.Profile, error)
	SetSubscription(ctx context.Context, caller domain.Caller, userID string, subscribed bool) (*domain.Profile, error)
	List(ctx context.Context, caller domain.Caller, q profilesvc.ProfileQuery) (*profilesvc.ProfilePage, error)
	ImageURL(key string) string
}

// Deps are the services the routes call into.
type Deps struct {
	AuthSvc    AuthService
	CatalogSvc CatalogService
	OfferSvc   OfferService
	LogoSvc    LogoService
	ProfileSvc ProfileService
}

// Options tune the router. Zero values disable the matching feature.
type Options struct {
	CORSOrigins []string
	// LoginRate is the sustained number of token requests per second; 0 disables throttling.
	LoginRate  float64
	LoginBurst int
	// MediaRoot is served under /media when set.
	MediaRoot string
	// MaxUploadBytes bounds each uploaded file. Upload routes reject bodies
	// larger than two files plus form overhead.
	MaxUploadBytes int64
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, opts ...Options) (*gin.Engine, error) {
	if deps.AuthSvc == nil || deps.CatalogSvc == nil || deps.OfferSvc == nil || deps.LogoSvc == nil || deps.ProfileSvc == nil {
		return nil, errors.New("httpserver: every service dependency is required")
	}
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	useJSONFieldNames()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if o.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = o.MaxUploadBytes
	}
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), metricsMiddleware())
	if len(o.CORSOrigins) > 0 {
		router.Use(cors.New(corsConfig(o.CORSOrigins)))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if o.MediaRoot != "" {
		router.Static("/media", o.MediaRoot)
	}

	h := &handlers{logger: logger, deps: deps}
	upload := limitBody(uploadBodyLimit(o.MaxUploadBytes))
	api := router.Group("/", callerMiddleware(deps.AuthSvc))

	auth := api.Group("/auth")
	auth.POST("/signup", h.signup)
	auth.POST("/token", loginLimiter(o.LoginRate, o.LoginBurst), h.token)
	auth.POST("/logout", h.logout)

	api.GET("/categories", h.listCategories)
	api.GET("/categories/:slug", h.getCategory)
	api.GET("/offers/search", h.searchOffers)
	api.GET("/offers/:slug", h.getOffer)
	api.GET("/logo", h.getLogo)
	api.GET("/profile", h.getProfile)
	api.POST("/profile", upload, h.createProfile)

	admin := api.Group("/admin")
	admin.POST("/categories", h.createCategory)
	admin.PATCH("/categories/:slug", h.updateCategory)
	admin.DELETE("/categories/:slug", h.deleteCategory)
	admin.POST("/categories/:slug/subcategories", h.createSubCategory)
	admin.PATCH("/subcategories/:slug", h.updateSubCategory)
	admin.DELETE("/subcategories/:slug", h.deleteSubCategory)
	admin.GET("/offers", h.listOffers)
	admin.POST("/offers", h.createOffer)
	admin.PATCH("/offers/:slug", h.updateOffer)
	admin.DELETE("/offers/:slug", h.deleteOffer)
	admin.POST("/logo", upload, h.uploadLogo)
	admin.GET("/profiles", h.listProfiles)
	admin.PUT("/profiles/:userID/subscription", h.setSubscription)

	return router, nil
}

type handlers struct {
	logger *log.Logger
	deps   Deps
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// uploadBodyLimit allows two files of maxFile bytes plus 64 KiB of form fields.
func uploadBodyLimit(maxFile int64) int64 {
	if maxFile <= 0 {
		return 0
	}
	return 2*maxFile + 64<<10
}

// limitBody caps the request body at n bytes; 0 leaves it unbounded.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

func loginLimiter(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Too many login attempts, try again later."})
			return
		}
		c.Next()
	}
}

// useJSONFieldNames makes binding errors report the json (or form) name of a field.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}
