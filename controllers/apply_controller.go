package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"greenhouseauto/models"
	"greenhouseauto/utils"
)

// applicationRunner is what the controller needs from the automation layer.
type applicationRunner interface {
	Run(input *models.ApplicationInput) *models.RunResult
}

// ApplyController exposes the automation over HTTP.
type ApplyController struct {
	runner applicationRunner
}

func NewApplyController(runner applicationRunner) *ApplyController {
	return &ApplyController{runner: runner}
}

// Apply handles POST /api/applications/apply. The body is an ApplicationInput;
// the response is always a terminal RunResult, even for failed runs.
func (c *ApplyController) Apply(ctx *gin.Context) {
	var input models.ApplicationInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		utils.BadRequestError(ctx, "Invalid application input", err)
		return
	}

	log.Printf("Starting application run for %s", input.JobURL)
	result := c.runner.Run(&input)

	status := http.StatusOK
	if !result.Succeeded() {
		// The run completed with a terminal non-success outcome; the result
		// body carries the detail.
		status = http.StatusUnprocessableEntity
	}
	ctx.JSON(status, result)
}
