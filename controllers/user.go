package controllers

import (
	"net/http"
	"strconv"

	"capstone-nft/auth"
	"capstone-nft/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

type UserController struct {
	userService services.UserService
	tokens      *auth.TokenManager
	logger      *zap.Logger
}

func NewUserController(userService services.UserService, tokens *auth.TokenManager, logger *zap.Logger) *UserController {
	return &UserController{userService: userService, tokens: tokens, logger: logger.Named("user-controller")}
}

type FollowersResponse struct {
	Followers []services.BriefProfile `json:"followers"`
}

type FollowingsResponse struct {
	Followings []services.BriefProfile `json:"followings"`
}

// WebService builds the /user routes. Every route requires a bearer token.
func (ctl *UserController) WebService() *restful.WebService {
	ws := new(restful.WebService)
	ws.Path("/user").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON).
		Filter(ctl.tokens.AuthFilter())
	tags := []string{"users"}

	ws.Route(ws.GET("").To(ctl.listUsersHandler).
		Doc("List non-staff users (staff only)").
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer").DefaultValue("1")).
		Param(ws.QueryParameter("page_size", "Users per page (default 10)").DataType("integer").DefaultValue("10")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(services.PaginatedUsers{}).
		Returns(http.StatusOK, "Users listed successfully", services.PaginatedUsers{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Caller is not staff", StatusMessage{}))

	ws.Route(ws.GET("/my_info").To(ctl.myInfoHandler).
		Doc("Full profile of the caller").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Profile", StatusData{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.GET("/followers").To(ctl.followersHandler).
		Doc("Users following the caller").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Followers", StatusData{}))

	ws.Route(ws.GET("/followings").To(ctl.followingsHandler).
		Doc("Users the caller follows").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Followings", StatusData{}))

	ws.Route(ws.POST("/{user-id}/follow").To(ctl.followHandler).
		Doc("Follow a user").
		Param(ws.PathParameter("user-id", "Identifier of the user to follow").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Followed", StatusMessage{}).
		Returns(http.StatusForbidden, "Cannot follow yourself", StatusMessage{}).
		Returns(http.StatusNotFound, "User not found", nil))

	return ws
}

func (ctl *UserController) listUsersHandler(request *restful.Request, response *restful.Response) {
	requestingUserID, ok := ctl.requireUser(request, response)
	if !ok {
		return
	}

	page, err := strconv.Atoi(request.QueryParameter("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(request.QueryParameter("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	result, err := ctl.userService.ListAllUsers(request.Request.Context(), requestingUserID, page, pageSize)
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	writeJSON(response, http.StatusOK, result)
}

func (ctl *UserController) myInfoHandler(request *restful.Request, response *restful.Response) {
	userID, ok := ctl.requireUser(request, response)
	if !ok {
		return
	}
	profile, err := ctl.userService.MyProfile(request.Request.Context(), userID)
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	writeJSON(response, http.StatusOK, StatusData{Status: http.StatusOK, Data: profile})
}

func (ctl *UserController) followersHandler(request *restful.Request, response *restful.Response) {
	userID, ok := ctl.requireUser(request, response)
	if !ok {
		return
	}
	followers, err := ctl.userService.ListFollowers(request.Request.Context(), userID)
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	writeJSON(response, http.StatusOK, StatusData{Status: http.StatusOK, Data: FollowersResponse{Followers: followers}})
}

func (ctl *UserController) followingsHandler(request *restful.Request, response *restful.Response) {
	userID, ok := ctl.requireUser(request, response)
	if !ok {
		return
	}
	followings, err := ctl.userService.ListFollowings(request.Request.Context(), userID)
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	writeJSON(response, http.StatusOK, StatusData{Status: http.StatusOK, Data: FollowingsResponse{Followings: followings}})
}

func (ctl *UserController) followHandler(request *restful.Request, response *restful.Response) {
	targetUserID, err := strconv.ParseUint(request.PathParameter("user-id"), 10, 32)
	if err != nil {
		writeJSON(response, http.StatusBadRequest, MessageResponse{Message: "Invalid user ID format"})
		return
	}
	userID, ok := ctl.requireUser(request, response)
	if !ok {
		return
	}

	target, err := ctl.userService.Follow(request.Request.Context(), userID, uint(targetUserID))
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	writeJSON(response, http.StatusOK, StatusMessage{Status: http.StatusOK, Msg: services.FollowMessage(target)})
}

func (ctl *UserController) requireUser(request *restful.Request, response *restful.Response) (uint, bool) {
	userID, ok := auth.RequestingUserID(request)
	if !ok {
		writeJSON(response, http.StatusUnauthorized, MessageResponse{Message: "Unauthorized: Cannot identify requesting user"})
	}
	return userID, ok
}
