package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// AccountsControllerRoutes holds every route the controller registers. The
// refresh token path must stay in sync with RefreshCookiePath or browsers
// will never send the cookie back.
type AccountsControllerRoutes struct {
	Register     string
	Activation   string
	Login        string
	RefreshToken string
	Logout       string
	Forgot       string
	Reset        string
	Info         string
	AllInfo      string
	Update       string
	UpdateRole   string
	Delete       string
}

type AccountsController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Tokens       TokenService
	Auther       *RouteAuthenticator
	Mailer       Mailer
	ClientURL    string
	Routes       *AccountsControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AccountsControllerOption func(*AccountsController) *AccountsController

func WithControllerLogger(logger Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Debug = debug
		return c
	}
}

func WithRepositoryManager(repo RepositoryManager) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Repo = repo
		return c
	}
}

func WithTokenService(tokens TokenService) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Tokens = tokens
		return c
	}
}

func WithHTTPAuthenticator(auther *RouteAuthenticator) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Auther = auther
		return c
	}
}

func WithMailer(mailer Mailer) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Mailer = mailer
		return c
	}
}

func WithClientURL(url string) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.ClientURL = url
		return c
	}
}

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AccountsControllerRoutes{
			Register:     "/user/register",
			Activation:   "/user/activation",
			Login:        "/user/login",
			RefreshToken: "/user/refresh_token",
			Logout:       "/user/logout",
			Forgot:       "/user/forgot",
			Reset:        "/user/reset",
			Info:         "/user/infor",
			AllInfo:      "/user/all_infor",
			Update:       "/user/update",
			UpdateRole:   "/user/update_role/:id",
			Delete:       "/user/delete/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in accounts controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in accounts controller...")
	}

	if c.Mailer == nil {
		c.Mailer = &LogMailer{Logger: c.Logger}
	}

	return c
}

// RegisterAccountRoutes wires the account lifecycle under the given router.
func RegisterAccountRoutes[T any](app router.Router[T], cfg Config, opts ...AccountsControllerOption) *AccountsController {
	controller := NewAccountsController(opts...)

	authErrHandler := func(ctx router.Context, err error) error {
		return controller.ErrorHandler(ctx, err)
	}
	protect := ProtectedRoute(controller.Tokens, cfg, authErrHandler)
	manager := RequireManager(controller.Repo, authErrHandler)

	app.Post(controller.Routes.Register, controller.Register).
		SetName("user.register")
	app.Post(controller.Routes.Activation, controller.Activate).
		SetName("user.activation")
	app.Post(controller.Routes.Login, controller.Login).
		SetName("user.login")
	app.Post(controller.Routes.RefreshToken, controller.RefreshToken).
		SetName("user.refresh-token")
	app.Get(controller.Routes.Logout, controller.Logout).
		SetName("user.logout")
	app.Post(controller.Routes.Forgot, controller.ForgotPassword).
		SetName("user.forgot")

	app.Post(controller.Routes.Reset, controller.ResetPassword, protect).
		SetName("user.reset")
	app.Get(controller.Routes.Info, controller.GetUserInfo, protect).
		SetName("user.info")
	app.Get(controller.Routes.AllInfo, controller.ListUsers, protect, manager).
		SetName("user.all-info")
	app.Patch(controller.Routes.Update, controller.UpdateProfile, protect).
		SetName("user.update")
	app.Patch(controller.Routes.UpdateRole, controller.UpdateRole, protect, manager).
		SetName("user.update-role")
	app.Delete(controller.Routes.Delete, controller.DeleteUser, protect, manager).
		SetName("user.delete")

	return controller
}

// RegisterRequest payload
type RegisterRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
			validation.Field(&r.Email, validation.Required, is.Email),
			validation.Field(&r.Password, validation.Required, validation.By(StrongPassword)),
		)
	}, "Invalid registration payload")
}

func (a *AccountsController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return a.ErrorHandler(ctx, ErrMissingFields)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= USER REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	register := NewRegisterUserHandler(a.Repo, a.Tokens, a.Mailer, a.ClientURL).
		WithLogger(a.Logger)

	msg := RegisterUserMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	}

	if err := register.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("register user error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"msg": "Register Success! Please activate your email to start.",
	})
}

// ActivationRequest payload
type ActivationRequest struct {
	ActivationToken string `form:"activation_token" json:"activation_token"`
}

func (r ActivationRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.ActivationToken, validation.Required),
		)
	}, "Invalid activation payload")
}

func (a *AccountsController) Activate(ctx router.Context) error {
	payload := new(ActivationRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	activate := NewActivateAccountHandler(a.Repo, a.Tokens).WithLogger(a.Logger)

	msg := ActivateAccountMessage{Token: payload.ActivationToken}
	if err := activate.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("account activation error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"msg": "Account has been activated!",
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetEmail returns the account email
func (r LoginRequest) GetEmail() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, is.Email),
			validation.Field(&r.Password, validation.Required),
		)
	}, "Invalid login request payload")
}

func (a *AccountsController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrMissingFields)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, ErrMissingFields)
	}

	if a.Debug {
		fmt.Println("======= USER LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"msg": "Login success!",
	})
}

func (a *AccountsController) RefreshToken(ctx router.Context) error {
	token, err := a.Auther.RefreshAccessToken(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"access_token": token,
	})
}

func (a *AccountsController) Logout(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, router.ViewContext{
		"msg": "Logged out.",
	})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email"`
}

func (r ForgotPasswordRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, is.Email),
		)
	}, "Invalid password reset payload")
}

func (a *AccountsController) ForgotPassword(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrInvalidEmail)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, ErrInvalidEmail)
	}

	forgot := NewInitializePasswordResetHandler(a.Repo, a.Tokens, a.Mailer, a.ClientURL).
		WithLogger(a.Logger)

	msg := InitializePasswordResetMessage{Email: payload.Email}
	if err := forgot.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("password forgot error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"msg": "Re-send the password, please check your email.",
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Password string `form:"password" json:"password"`
}

func (r ResetPasswordRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Password, validation.Required),
		)
	}, "Invalid password reset payload")
}

func (a *AccountsController) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrMissingFields)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, ErrMissingFields)
	}

	id, err := UserIDFromContext(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	reset := NewFinalizePasswordResetHandler(a.Repo).WithLogger(a.Logger)

	msg := FinalizePasswordResetMessage{UserID: id, Password: payload.Password}
	if err := reset.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("password reset error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"msg": "Password successfully changed!",
	})
}

func (a *AccountsController) GetUserInfo(ctx router.Context) error {
	id, err := UserIDFromContext(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), id.String())
	if err != nil {
		if IsRecordNotFound(err) {
			return a.ErrorHandler(ctx, ErrUserNotFound)
		}
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, user)
}

// ListUsers returns the accounts the acting manager can see. Admins see
// everyone; sub-admins see neither admins nor themselves.
func (a *AccountsController) ListUsers(ctx router.Context) error {
	actor, err := ActorFromContext(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	var users []*User
	if actor.Role == RoleAdmin {
		users, err = a.Repo.Users().ListAll(ctx.Context())
	} else {
		users, err = a.Repo.Users().ListManaged(ctx.Context(), actor.ID)
	}
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, users)
}

// UpdateProfileRequest payload
type UpdateProfileRequest struct {
	Name   string `form:"name" json:"name"`
	Avatar string `form:"avatar" json:"avatar"`
}

func (r UpdateProfileRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Name, validation.Length(1, 200)),
			validation.Field(&r.Avatar, is.URL),
		)
	}, "Invalid profile payload")
}

func (a *AccountsController) UpdateProfile(ctx router.Context) error {
	payload := new(UpdateProfileRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrMissingFields)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, ErrMissingFields)
	}

	id, err := UserIDFromContext(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if _, err := a.Repo.Users().UpdateProfile(ctx.Context(), id, payload.Name, payload.Avatar); err != nil {
		a.Logger.Error("profile update error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"msg": "Update Success!",
	})
}

// UpdateRoleRequest payload
type UpdateRoleRequest struct {
	Role Role `form:"role" json:"role"`
}

func (r UpdateRoleRequest) Validate() error {
	if !r.Role.IsValid() {
		return ErrMissingFields
	}
	return nil
}

func (a *AccountsController) UpdateRole(ctx router.Context) error {
	payload := new(UpdateRoleRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrMissingFields)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	target, err := a.managedTarget(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if _, err := a.Repo.Users().UpdateRole(ctx.Context(), target.ID, payload.Role); err != nil {
		a.Logger.Error("role update error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"msg": "Update Success!",
	})
}

func (a *AccountsController) DeleteUser(ctx router.Context) error {
	target, err := a.managedTarget(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Repo.Users().DeleteByID(ctx.Context(), target.ID); err != nil {
		a.Logger.Error("user delete error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"msg": "Deleted Success!",
	})
}

// managedTarget resolves the :id route param to an account the actor is
// allowed to change. Sub-admins can only touch subscribers.
func (a *AccountsController) managedTarget(ctx router.Context) (*User, error) {
	actor, err := ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return nil, ErrUserNotFound
	}

	target, err := a.Repo.Users().GetByID(ctx.Context(), id.String())
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !CanUpdateAndDeleteUser(actor.Role, target.Role) {
		return nil, ErrNotAuthorized
	}

	return target, nil
}
