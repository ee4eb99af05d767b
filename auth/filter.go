package auth

import (
	"net/http"
	"strings"

	restful "github.com/emicklei/go-restful/v3"
)

const (
	attrUserID = "user_id"
	attrClaims = "claims"
)

// AuthFilter rejects requests without a valid bearer token and exposes the
// token claims as request attributes.
func (m *TokenManager) AuthFilter() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		tokenString, ok := BearerToken(req.HeaderParameter("Authorization"))
		if !ok {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Authentication credentials were not provided."}, restful.MIME_JSON)
			return
		}

		claims, err := m.ParseAndValidateToken(req.Request.Context(), tokenString)
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": err.Error()}, restful.MIME_JSON)
			return
		}

		req.SetAttribute(attrUserID, claims.UserID)
		req.SetAttribute(attrClaims, claims)

		chain.ProcessFilter(req, resp)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// RequestingUserID returns the id stored by AuthFilter.
func RequestingUserID(req *restful.Request) (uint, bool) {
	userID, ok := req.Attribute(attrUserID).(uint)
	return userID, ok
}

// RequestClaims returns the claims stored by AuthFilter.
func RequestClaims(req *restful.Request) (*CustomClaims, bool) {
	claims, ok := req.Attribute(attrClaims).(*CustomClaims)
	return claims, ok && claims != nil
}
