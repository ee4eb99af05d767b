package controllers

import (
	"net/http"

	"capstone-nft/auth"
	"capstone-nft/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// AuthController serves signup, login and logout.
type AuthController struct {
	authService         services.AuthService
	registrationService services.RegistrationService
	tokens              *auth.TokenManager
	limiter             *auth.RateLimiter
	logger              *zap.Logger
}

func NewAuthController(authService services.AuthService, registrationService services.RegistrationService, tokens *auth.TokenManager, limiter *auth.RateLimiter, logger *zap.Logger) *AuthController {
	return &AuthController{
		authService:         authService,
		registrationService: registrationService,
		tokens:              tokens,
		limiter:             limiter,
		logger:              logger.Named("auth-controller"),
	}
}

type VerifyEmailInput struct {
	Key string `json:"key" description:"Verification key from the email"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}

// WebService builds the root-level authentication routes.
func (ctl *AuthController) WebService() *restful.WebService {
	ws := new(restful.WebService)
	ws.Path("/").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"auth"}

	ws.Route(ws.POST("/login").Filter(ctl.limiter.Filter()).To(ctl.loginHandler).
		Doc("Log in with email, phone or nickname").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(auth.LoginRequest{}).
		Returns(http.StatusOK, "Logged in", services.LoginResult{}).
		Returns(http.StatusBadRequest, "Invalid credentials", nil).
		Returns(http.StatusTooManyRequests, "Rate limited", nil))

	ws.Route(ws.POST("/logout").Filter(ctl.tokens.AuthFilter()).To(ctl.logoutHandler).
		Doc("Revoke the current token").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Logged out", DetailResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.POST("/signup").Filter(ctl.limiter.Filter()).To(ctl.signupHandler).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RegisterInput{}).
		Returns(http.StatusCreated, "User created", services.Profile{}).
		Returns(http.StatusBadRequest, "Field errors", nil).
		Returns(http.StatusConflict, "Email or nickname already exists", nil))

	ws.Route(ws.POST("/signup/verify-email").To(ctl.verifyEmailHandler).
		Doc("Confirm an email address").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(VerifyEmailInput{}).
		Returns(http.StatusOK, "Verified", DetailResponse{}).
		Returns(http.StatusNotFound, "Unknown key", nil))

	ws.Route(ws.GET("/healthz").To(healthHandler).
		Doc("Liveness probe").
		Returns(http.StatusOK, "OK", nil))

	return ws
}

func (ctl *AuthController) loginHandler(request *restful.Request, response *restful.Response) {
	creds := new(auth.LoginRequest)
	if err := request.ReadEntity(creds); err != nil {
		writeJSON(response, http.StatusBadRequest, MessageResponse{Message: "Invalid request body: " + err.Error()})
		return
	}

	result, err := ctl.authService.Login(request.Request.Context(), *creds)
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	writeJSON(response, http.StatusOK, result)
}

func (ctl *AuthController) logoutHandler(request *restful.Request, response *restful.Response) {
	claims, ok := auth.RequestClaims(request)
	if !ok {
		writeJSON(response, http.StatusUnauthorized, MessageResponse{Message: "Unauthorized: Cannot identify requesting user"})
		return
	}
	if err := ctl.authService.Logout(request.Request.Context(), claims); err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	writeJSON(response, http.StatusOK, DetailResponse{Detail: "Successfully logged out."})
}

func (ctl *AuthController) signupHandler(request *restful.Request, response *restful.Response) {
	input := new(services.RegisterInput)
	if err := request.ReadEntity(input); err != nil {
		writeJSON(response, http.StatusBadRequest, MessageResponse{Message: "Invalid request body: " + err.Error()})
		return
	}

	user, err := ctl.registrationService.Register(request.Request.Context(), input)
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	writeJSON(response, http.StatusCreated, services.Profile{
		ID:       user.ID,
		Created:  user.CreatedAt,
		Email:    user.EmailValue(),
		Phone:    user.Phone,
		Name:     user.Name,
		NickName: user.NickNameValue(),
	})
}

func (ctl *AuthController) verifyEmailHandler(request *restful.Request, response *restful.Response) {
	input := new(VerifyEmailInput)
	if err := request.ReadEntity(input); err != nil {
		writeJSON(response, http.StatusBadRequest, MessageResponse{Message: "Invalid request body: " + err.Error()})
		return
	}
	if err := ctl.registrationService.VerifyEmail(request.Request.Context(), input.Key); err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	writeJSON(response, http.StatusOK, DetailResponse{Detail: "ok"})
}

func healthHandler(_ *restful.Request, response *restful.Response) {
	writeJSON(response, http.StatusOK, map[string]string{"status": "ok"})
}
