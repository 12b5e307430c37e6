package controller

import (
	"errors"

	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/service"
	"studybuddy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Generator service.Generator
	Questions service.QuestionStore
}

func NewAdminController(generator service.Generator, questions service.QuestionStore) *AdminController {
	return &AdminController{Generator: generator, Questions: questions}
}

type GenerateQuestionsRequest struct {
	Subject    string `json:"subject" binding:"required"`
	Topic      string `json:"topic" binding:"required"`
	SubTopic   string `json:"subtopic"`
	Grade      *int   `json:"grade"`
	Difficulty string `json:"difficulty" binding:"required"`
	Count      int    `json:"count" binding:"required"`
}

// Generate godoc
// @Summary Generate and store questions
// @Description Synthesizes validated questions for a topic and upserts them into the bank. Duplicates by content hash are skipped.
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   body body GenerateQuestionsRequest true "Generation parameters"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Failure 503 {object} util.Response "Generator unavailable"
// @Security BearerAuth
// @Router /api/admin/questions/generate [post]
func (c *AdminController) Generate(ctx *gin.Context) {
	var req GenerateQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	difficulty := model.Difficulty(req.Difficulty)
	if !difficulty.Valid() {
		util.BadRequest(ctx, "difficulty must be easy, medium or hard")
		return
	}
	if req.Count < 1 || req.Count > 50 {
		util.BadRequest(ctx, "count must be between 1 and 50")
		return
	}

	questions, err := c.Generator.Generate(ctx.Request.Context(), service.GenerationContext{
		Subject:    req.Subject,
		Topic:      req.Topic,
		SubTopic:   req.SubTopic,
		Grade:      req.Grade,
		Difficulty: difficulty,
		Count:      req.Count,
	})
	if err != nil {
		if errors.Is(err, util.ErrGenerationUnavailable) {
			util.Error(ctx, 503, "question generator is unavailable")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	if err := c.Questions.Upsert(questions); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"generated": len(questions)})
}
