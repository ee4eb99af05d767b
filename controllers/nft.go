package controllers

import (
	"net/http"

	"capstone-nft/nft"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

type NFTController struct {
	lookup nft.Lookup
	logger *zap.Logger
}

func NewNFTController(lookup nft.Lookup, logger *zap.Logger) *NFTController {
	return &NFTController{lookup: lookup, logger: logger.Named("nft-controller")}
}

func (ctl *NFTController) WebService() *restful.WebService {
	ws := new(restful.WebService)
	ws.Path("/nft").Produces(restful.MIME_JSON)

	ws.Route(ws.GET("/my_token").To(ctl.myTokenHandler).
		Doc("NFTs owned by a wallet").
		Param(ws.QueryParameter("address", "Wallet address").DataType("string").Required(true)).
		Metadata(restfulspec.KeyOpenAPITags, []string{"nft"}).
		Writes(nft.Tokens{}).
		Returns(http.StatusOK, "Tokens", nft.Tokens{}).
		Returns(http.StatusBadRequest, "Missing address", nil).
		Returns(http.StatusBadGateway, "Provider failure", MessageResponse{}).
		Returns(http.StatusGatewayTimeout, "Provider timeout", MessageResponse{}))

	return ws
}

func (ctl *NFTController) myTokenHandler(request *restful.Request, response *restful.Response) {
	tokens, err := ctl.lookup.WalletNFTs(request.Request.Context(), request.QueryParameter("address"))
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	writeJSON(response, http.StatusOK, tokens)
}
