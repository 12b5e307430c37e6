package controller

import (
	"errors"

	"studybuddy_backend/internal/service"
	"studybuddy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
	ChildService   *service.ChildService
}

func NewAttemptController(attempts *service.AttemptService, children *service.ChildService) *AttemptController {
	return &AttemptController{AttemptService: attempts, ChildService: children}
}

// Log godoc
// @Summary Record a practice answer
// @Description Grades the answer against the stored key and records it in the child's history
// @Tags attempts
// @Accept  json
// @Produce  json
// @Param   body body service.LogAttemptRequest true "Attempt payload"
// @Success 201 {object} util.Response{data=service.AttemptResult}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/attempts [post]
func (c *AttemptController) Log(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.LogAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ChildService.Authorize(claims.ParentID, req.ChildID); err != nil {
		childError(ctx, err)
		return
	}

	result, err := c.AttemptService.LogAttempt(req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrChildNotFound):
			util.NotFound(ctx, "child not found")
		case errors.Is(err, util.ErrQuestionNotFound):
			util.NotFound(ctx, "question not found")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, result)
}

// Progress godoc
// @Summary Get a child's progress summary
// @Tags attempts
// @Produce  json
// @Param   id path string true "Child ID"
// @Success 200 {object} util.Response{data=service.ProgressSummary}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/children/{id}/progress [get]
func (c *AttemptController) Progress(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	childID := ctx.Param("id")
	if err := c.ChildService.Authorize(claims.ParentID, childID); err != nil {
		childError(ctx, err)
		return
	}

	summary, err := c.AttemptService.Progress(childID)
	if err != nil {
		if errors.Is(err, util.ErrChildNotFound) {
			util.NotFound(ctx, "child not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, summary)
}
