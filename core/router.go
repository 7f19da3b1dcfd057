package core

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// NewRouter constructs the Gin engine with routes wired. The queue,
// limiter, and metrics dependencies are optional; passing nil disables the
// corresponding behaviour (uploads finalize immediately, sign-in is not
// throttled, metrics endpoints report unavailable).
func NewRouter(cfg Config, auth AuthService, issuer *TokenIssuer, users UserRepository, banners BannerRepository, blogs BlogRepository, questions QuestionRepository, queue Queue, limiter *SigninLimiter, metrics *MetricsService) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()

	r.Use(CORSMiddleware(cfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Stored banner/blog images are served directly; the local store stands
	// in for the third-party image host.
	r.Static("/uploads", cfg.UploadDir)

	api := r.Group("/api")
	{
		api.POST("/auth/signup", func(c *gin.Context) {
			var req struct {
				Name         string `json:"name"`
				Email        string `json:"email"`
				Password     string `json:"password"`
				CurrentGrade string `json:"currentGrade"`
				Country      string `json:"country"`
				PhoneNumber  string `json:"phoneNumber"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "Invalid request body")
				return
			}
			if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
				respondError(c, http.StatusBadRequest, "Name and email are required")
				return
			}
			if len(req.Password) < 6 {
				respondError(c, http.StatusBadRequest, "Password must be at least 6 characters")
				return
			}

			user, token, err := auth.SignUp(c.Request.Context(), SignUpInput{
				Name:         req.Name,
				Email:        req.Email,
				Password:     req.Password,
				CurrentGrade: req.CurrentGrade,
				Country:      req.Country,
				PhoneNumber:  req.PhoneNumber,
			})
			if err != nil {
				if errors.Is(err, ErrEmailTaken) {
					respondError(c, http.StatusBadRequest, "User already exist")
					return
				}
				respondError(c, http.StatusInternalServerError, "Server Error")
				return
			}

			c.JSON(http.StatusCreated, gin.H{"message": "New user Created", "user": user, "token": token})
		})

		api.POST("/auth/signin", func(c *gin.Context) {
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "Invalid request body")
				return
			}

			ctx := c.Request.Context()
			if limiter != nil {
				ok, err := limiter.Allow(ctx, req.Email, c.ClientIP())
				if err != nil {
					log.Printf("signin rate limit check failed: %v", err)
				} else if !ok {
					respondError(c, http.StatusTooManyRequests, "Too many sign-in attempts, try again later")
					return
				}
			}

			user, token, err := auth.SignIn(ctx, req.Email, req.Password)
			if err != nil {
				if errors.Is(err, ErrUserNotFound) {
					respondError(c, http.StatusNotFound, "User not found")
					return
				}
				if errors.Is(err, ErrInvalidPassword) {
					respondError(c, http.StatusUnauthorized, "Invalid password")
					return
				}
				respondError(c, http.StatusInternalServerError, "Server error")
				return
			}

			if limiter != nil {
				_ = limiter.Reset(ctx, req.Email, c.ClientIP())
			}

			c.JSON(http.StatusOK, gin.H{"message": "Logged In Successful", "user": user, "token": token})
		})

		api.GET("/users/me", Authenticate(issuer), func(c *gin.Context) {
			id, _ := CurrentIdentity(c)
			rec, err := users.FindByID(c.Request.Context(), id.UserID)
			if err != nil {
				respondError(c, http.StatusUnauthorized, "User no longer exists")
				return
			}
			c.JSON(http.StatusOK, rec.Profile())
		})

		banner := api.Group("/banner", Authenticate(issuer))
		{
			banner.POST("/uploadbanner", func(c *gin.Context) {
				fh, err := c.FormFile("file")
				if err != nil {
					respondError(c, http.StatusBadRequest, "No image file provided.")
					return
				}

				name, err := SaveUpload(cfg.UploadDir, fh)
				if err != nil {
					if errors.Is(err, ErrUnsupportedImage) {
						respondError(c, http.StatusBadRequest, "Unsupported image type")
						return
					}
					respondError(c, http.StatusInternalServerError, "Failed to store image")
					return
				}

				ctx := c.Request.Context()
				b, err := banners.Create(ctx, "/uploads/"+name, c.PostForm("title"), c.PostForm("linkUrl"))
				if err != nil {
					_ = RemoveUpload(cfg.UploadDir, name)
					respondError(c, http.StatusInternalServerError, "Failed to create banner")
					return
				}

				if queue != nil {
					if err := queue.Enqueue(ctx, PendingQueueKey, b.ID); err != nil {
						log.Printf("failed to enqueue banner %s: %v", b.ID, err)
					}
				}

				c.JSON(http.StatusCreated, gin.H{"message": "Image uploaded successfully", "banner": b})
			})

			banner.GET("/getbanner", func(c *gin.Context) {
				items, err := banners.List(c.Request.Context())
				if err != nil {
					respondError(c, http.StatusInternalServerError, "Failed to fetch banners")
					return
				}
				if items == nil {
					items = []Banner{}
				}
				c.JSON(http.StatusOK, items)
			})

			banner.PUT("/updatebanner/:id", func(c *gin.Context) {
				var req struct {
					Title   *string `json:"title"`
					LinkURL *string `json:"linkUrl"`
					Active  *bool   `json:"active"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					respondError(c, http.StatusBadRequest, "Invalid request body")
					return
				}
				b, err := banners.Update(c.Request.Context(), c.Param("id"), req.Title, req.LinkURL, req.Active)
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						respondError(c, http.StatusNotFound, "Banner not found")
						return
					}
					respondError(c, http.StatusInternalServerError, "Failed to update banner")
					return
				}
				c.JSON(http.StatusOK, b)
			})

			banner.DELETE("/deletebanner/:id", func(c *gin.Context) {
				ctx := c.Request.Context()
				b, err := banners.Get(ctx, c.Param("id"))
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						respondError(c, http.StatusNotFound, "Banner not found")
						return
					}
					respondError(c, http.StatusInternalServerError, "Failed to fetch banner")
					return
				}
				if err := banners.Delete(ctx, b.ID); err != nil {
					respondError(c, http.StatusInternalServerError, "Failed to delete banner")
					return
				}
				_ = RemoveUpload(cfg.UploadDir, filepath.Base(b.URL))
				c.Status(http.StatusNoContent)
			})
		}

		api.GET("/blog/getblogs", func(c *gin.Context) {
			b, err := blogs.Get(c.Request.Context())
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					c.JSON(http.StatusOK, []Blog{})
					return
				}
				respondError(c, http.StatusInternalServerError, "Failed to fetch blog")
				return
			}
			c.JSON(http.StatusOK, []Blog{*b})
		})

		api.POST("/blog/createblog", Authenticate(issuer), func(c *gin.Context) {
			in, ok := bindBlogForm(c, cfg)
			if !ok {
				return
			}
			b, err := blogs.Create(c.Request.Context(), in)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "Failed to create blog")
				return
			}
			c.JSON(http.StatusCreated, gin.H{"message": "Blog post created successfully.", "blog": b})
		})

		api.PUT("/blog", Authenticate(issuer), func(c *gin.Context) {
			in, ok := bindBlogForm(c, cfg)
			if !ok {
				return
			}
			b, err := blogs.Update(c.Request.Context(), in)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "Failed to update blog")
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Blog post updated successfully.", "blog": b})
		})

		api.DELETE("/blog/:id", Authenticate(issuer), func(c *gin.Context) {
			if err := blogs.Delete(c.Request.Context(), c.Param("id")); err != nil {
				respondError(c, http.StatusInternalServerError, "Failed to delete blog")
				return
			}
			c.Status(http.StatusNoContent)
		})

		admin := api.Group("/admin", Authenticate(issuer), RequireAdmin())
		{
			admin.GET("/users", func(c *gin.Context) {
				page, perPage, err := parsePagination(c.Query("page"), c.Query("per_page"))
				if err != nil {
					respondError(c, http.StatusBadRequest, err.Error())
					return
				}
				items, total, err := users.List(c.Request.Context(), page, perPage)
				if err != nil {
					respondError(c, http.StatusInternalServerError, "Failed to fetch users")
					return
				}
				c.JSON(http.StatusOK, gin.H{
					"items":       items,
					"page":        page,
					"per_page":    perPage,
					"total_items": total,
					"total_pages": calcTotalPages(total, perPage),
				})
			})

			admin.POST("/users", func(c *gin.Context) {
				var req struct {
					Name     string `json:"name"`
					Email    string `json:"email"`
					Password string `json:"password"`
					Role     string `json:"role"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					respondError(c, http.StatusBadRequest, "Invalid request body")
					return
				}
				req.Role = strings.TrimSpace(req.Role)
				if req.Role == "" {
					req.Role = "user"
				}
				if req.Role != "user" && req.Role != "admin" {
					respondError(c, http.StatusBadRequest, "Invalid role")
					return
				}
				if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || len(req.Password) < 6 {
					respondError(c, http.StatusBadRequest, "Name, email, and a 6+ character password are required")
					return
				}

				hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
				if err != nil {
					respondError(c, http.StatusInternalServerError, "Failed to hash password")
					return
				}
				rec, err := users.Create(c.Request.Context(), UserRecord{
					Name:         strings.TrimSpace(req.Name),
					Email:        normalizeEmail(req.Email),
					PasswordHash: string(hash),
					Role:         req.Role,
				})
				if err != nil {
					if isUniqueViolation(err) {
						respondError(c, http.StatusConflict, "Email already exists")
						return
					}
					respondError(c, http.StatusInternalServerError, "Failed to create user")
					return
				}
				c.JSON(http.StatusCreated, rec.Profile())
			})

			admin.GET("/questions", func(c *gin.Context) {
				page, perPage, err := parsePagination(c.Query("page"), c.Query("per_page"))
				if err != nil {
					respondError(c, http.StatusBadRequest, err.Error())
					return
				}
				items, total, err := questions.List(c.Request.Context(), page, perPage)
				if err != nil {
					respondError(c, http.StatusInternalServerError, "Failed to fetch questions")
					return
				}
				c.JSON(http.StatusOK, gin.H{
					"items":       items,
					"page":        page,
					"per_page":    perPage,
					"total_items": total,
					"total_pages": calcTotalPages(total, perPage),
				})
			})

			admin.POST("/questions", func(c *gin.Context) {
				var in QuestionInput
				if err := c.ShouldBindJSON(&in); err != nil {
					respondError(c, http.StatusBadRequest, "Invalid request body")
					return
				}
				if err := in.Validate(); err != nil {
					respondError(c, http.StatusBadRequest, err.Error())
					return
				}
				q, err := questions.Create(c.Request.Context(), in)
				if err != nil {
					respondError(c, http.StatusInternalServerError, "Failed to create question")
					return
				}
				c.JSON(http.StatusCreated, q)
			})

			admin.GET("/questions/:id", func(c *gin.Context) {
				q, err := questions.Get(c.Request.Context(), c.Param("id"))
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						respondError(c, http.StatusNotFound, "Question not found")
						return
					}
					respondError(c, http.StatusInternalServerError, "Failed to fetch question")
					return
				}
				c.JSON(http.StatusOK, q)
			})

			admin.PUT("/questions/:id", func(c *gin.Context) {
				var in QuestionInput
				if err := c.ShouldBindJSON(&in); err != nil {
					respondError(c, http.StatusBadRequest, "Invalid request body")
					return
				}
				if err := in.Validate(); err != nil {
					respondError(c, http.StatusBadRequest, err.Error())
					return
				}
				q, err := questions.Update(c.Request.Context(), c.Param("id"), in)
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						respondError(c, http.StatusNotFound, "Question not found")
						return
					}
					respondError(c, http.StatusInternalServerError, "Failed to update question")
					return
				}
				c.JSON(http.StatusOK, q)
			})

			admin.DELETE("/questions/:id", func(c *gin.Context) {
				if err := questions.Delete(c.Request.Context(), c.Param("id")); err != nil {
					respondError(c, http.StatusInternalServerError, "Failed to delete question")
					return
				}
				c.Status(http.StatusNoContent)
			})

			admin.GET("/metrics/overview", func(c *gin.Context) {
				if metrics == nil {
					respondError(c, http.StatusServiceUnavailable, "Metrics unavailable")
					return
				}
				queueMetrics, workers, err := metrics.Overview(c.Request.Context())
				if err != nil {
					respondError(c, http.StatusInternalServerError, "Failed to load metrics")
					return
				}
				c.JSON(http.StatusOK, gin.H{"queues": queueMetrics, "workers": workers})
			})

			admin.GET("/metrics/workers", func(c *gin.Context) {
				if metrics == nil {
					respondError(c, http.StatusServiceUnavailable, "Metrics unavailable")
					return
				}
				workers, err := metrics.Workers(c.Request.Context())
				if err != nil {
					respondError(c, http.StatusInternalServerError, "Failed to load workers")
					return
				}
				c.JSON(http.StatusOK, gin.H{"workers": workers})
			})

			admin.GET("/system/status", func(c *gin.Context) {
				st, err := CollectSystemStatus(c.Request.Context(), metrics, users, banners, questions, startedAt)
				if err != nil {
					respondError(c, http.StatusInternalServerError, "Failed to load system status")
					return
				}
				c.JSON(http.StatusOK, st)
			})
		}
	}

	return r
}

// bindBlogForm parses the multipart blog form shared by create and update.
// Responds with an error and returns ok=false when the payload is invalid.
func bindBlogForm(c *gin.Context, cfg Config) (BlogInput, bool) {
	in := BlogInput{
		BlogTitle:       c.PostForm("blogTitle"),
		BlogPostContent: c.PostForm("blogPostContent"),
	}

	if raw := c.PostForm("faq"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.FAQ); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid faq payload")
			return BlogInput{}, false
		}
	}

	if fh, err := c.FormFile("file"); err == nil {
		name, err := SaveUpload(cfg.UploadDir, fh)
		if err != nil {
			if errors.Is(err, ErrUnsupportedImage) {
				respondError(c, http.StatusBadRequest, "Unsupported image type")
				return BlogInput{}, false
			}
			respondError(c, http.StatusInternalServerError, "Failed to store image")
			return BlogInput{}, false
		}
		in.BlogImage = "/uploads/" + name
	}

	if err := in.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return BlogInput{}, false
	}
	return in, true
}

func parsePagination(pageStr, perPageStr string) (int, int, error) {
	page := 1
	perPage := 20
	if pageStr != "" {
		v, err := strconv.Atoi(pageStr)
		if err != nil || v <= 0 {
			return 0, 0, errors.New("invalid page")
		}
		page = v
	}
	if perPageStr != "" {
		v, err := strconv.Atoi(perPageStr)
		if err != nil || v <= 0 || v > 100 {
			return 0, 0, errors.New("invalid per_page")
		}
		perPage = v
	}
	return page, perPage, nil
}

func calcTotalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	pages := total / perPage
	if total%perPage != 0 {
		pages++
	}
	return pages
}
