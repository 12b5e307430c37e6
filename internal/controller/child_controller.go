package controller

import (
	"errors"

	"studybuddy_backend/internal/service"
	"studybuddy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChildController struct {
	ChildService *service.ChildService
}

func NewChildController(childService *service.ChildService) *ChildController {
	return &ChildController{ChildService: childService}
}

func childError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrChildNotFound):
		util.NotFound(ctx, "child not found")
	case errors.Is(err, util.ErrChildMismatch):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrValidationFailed):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// Create godoc
// @Summary Add a child profile
// @Tags children
// @Accept  json
// @Produce  json
// @Param   body body service.ChildRequest true "Child profile"
// @Success 201 {object} util.Response{data=model.Child}
// @Failure 400 {object} util.Response
// @Security BearerAuth
// @Router /api/children [post]
func (c *ChildController) Create(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.ChildRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	child, err := c.ChildService.Create(claims.ParentID, req)
	if err != nil {
		childError(ctx, err)
		return
	}

	util.Created(ctx, child)
}

// List godoc
// @Summary List the parent's children
// @Tags children
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Child}
// @Security BearerAuth
// @Router /api/children [get]
func (c *ChildController) List(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	children, err := c.ChildService.List(claims.ParentID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, children)
}

// Get godoc
// @Summary Get one child profile
// @Tags children
// @Produce  json
// @Param   id path string true "Child ID"
// @Success 200 {object} util.Response{data=model.Child}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/children/{id} [get]
func (c *ChildController) Get(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	child, err := c.ChildService.Get(claims.ParentID, ctx.Param("id"))
	if err != nil {
		childError(ctx, err)
		return
	}

	util.Success(ctx, child)
}

// Update godoc
// @Summary Update a child profile
// @Tags children
// @Accept  json
// @Produce  json
// @Param   id path string true "Child ID"
// @Param   body body service.ChildRequest true "Child profile"
// @Success 200 {object} util.Response{data=model.Child}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/children/{id} [put]
func (c *ChildController) Update(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.ChildRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	child, err := c.ChildService.Update(claims.ParentID, ctx.Param("id"), req)
	if err != nil {
		childError(ctx, err)
		return
	}

	util.Success(ctx, child)
}

// Delete godoc
// @Summary Delete a child profile and its history
// @Tags children
// @Produce  json
// @Param   id path string true "Child ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/children/{id} [delete]
func (c *ChildController) Delete(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.ChildService.Delete(claims.ParentID, ctx.Param("id")); err != nil {
		childError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"deleted": true})
}
