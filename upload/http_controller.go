package upload

import (
	"github.com/goliatone/go-router"

	accounts "github.com/goliatone/go-accounts"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController receives avatar uploads, pushes them to the image store
// and records the resulting URL on the authenticated account.
type HTTPController struct {
	uploader ImageUploader
	repo     accounts.RepositoryManager
	config   HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// AvatarPath is the upload route (default: "/api/upload_avatar")
	AvatarPath string

	// Folder the uploads land in (default: "avatar")
	Folder string

	// ErrorHandler handles errors (optional)
	ErrorHandler func(ctx router.Context, err error) error

	Logger accounts.Logger
}

// NewHTTPController creates a new avatar upload controller.
func NewHTTPController(uploader ImageUploader, repo accounts.RepositoryManager, cfg HTTPConfig) *HTTPController {
	if cfg.AvatarPath == "" {
		cfg.AvatarPath = "/api/upload_avatar"
	}
	if cfg.Folder == "" {
		cfg.Folder = "avatar"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return ctx.JSON(router.StatusBadRequest, map[string]string{
				"msg": err.Error(),
			})
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = accounts.DefaultLogger()
	}

	return &HTTPController{
		uploader: uploader,
		repo:     repo,
		config:   cfg,
	}
}

// RegisterRoutes registers the avatar route. Callers pass the bearer
// middleware so uploads only run for authenticated accounts.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar, mw ...router.MiddlewareFunc) {
	group.Post(c.config.AvatarPath, c.UploadAvatar, mw...)
}

// AvatarRequest payload. The file travels base64 encoded in the JSON body.
type AvatarRequest struct {
	File []byte `json:"file"`
}

// UploadAvatar stores the image as a 150x150 fill crop and saves the URL
// on the account.
func (c *HTTPController) UploadAvatar(ctx router.Context) error {
	payload := new(AvatarRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.config.ErrorHandler(ctx, ErrNoImageProvided)
	}

	if err := ValidateImage(payload.File); err != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	id, err := accounts.UserIDFromContext(ctx)
	if err != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	url, err := c.uploader.Upload(ctx.Context(), payload.File, Params{
		Folder: c.config.Folder,
		Width:  150,
		Height: 150,
		Crop:   "fill",
	})
	if err != nil {
		c.config.Logger.Error("Avatar upload error", "error", err)
		return c.config.ErrorHandler(ctx, err)
	}

	if _, err := c.repo.Users().UpdateAvatar(ctx.Context(), id, url); err != nil {
		c.config.Logger.Error("Avatar save error", "error", err)
		return c.config.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"url": url,
	})
}
