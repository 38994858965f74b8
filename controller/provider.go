package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relaychat/service"
)

type ProviderController struct {
	models *service.ModelService
}

func NewProviderController(models *service.ModelService) *ProviderController {
	return &ProviderController{models: models}
}

func (p *ProviderController) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, p.models.Providers())
}

func (p *ProviderController) Models(c *gin.Context) {
	models, err := p.models.ListModels(c.Request.Context(), c.Param("provider"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models)
}
