package controller

import (
	"errors"
	"strconv"

	"studybuddy_backend/internal/service"
	"studybuddy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService  *service.QuizService
	ChildService *service.ChildService
}

func NewQuizController(quizzes *service.QuizService, children *service.ChildService) *QuizController {
	return &QuizController{QuizService: quizzes, ChildService: children}
}

func quizError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx, "quiz session not found")
	case errors.Is(err, util.ErrChildNotFound):
		util.NotFound(ctx, "child not found")
	case errors.Is(err, util.ErrChildMismatch):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrActiveQuizExists):
		util.Conflict(ctx, "an active quiz already exists for this child and topic")
	case errors.Is(err, util.ErrInsufficientSupply):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrValidationFailed):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrAlreadySubmitted):
		util.BadRequest(ctx, "quiz has already been submitted")
	case errors.Is(err, util.ErrSessionExpired):
		util.Gone(ctx, "quiz session has expired")
	default:
		util.LogInternalError(ctx, err)
	}
}

// ownSession loads the session's child ownership check for a parent.
func (c *QuizController) ownSession(ctx *gin.Context, parentID, sessionID string) bool {
	session, err := c.QuizService.Quizzes.FindByID(sessionID)
	if err != nil {
		quizError(ctx, err)
		return false
	}
	if err := c.ChildService.Authorize(parentID, session.ChildID); err != nil {
		childError(ctx, err)
		return false
	}
	return true
}

// Create godoc
// @Summary Start a quiz
// @Description Assembles a fixed question set by difficulty mix and opens a timed session. At most one active session per child, subject and topic.
// @Tags quizzes
// @Accept  json
// @Produce  json
// @Param   body body service.CreateQuizRequest true "Quiz parameters"
// @Success 201 {object} util.Response{data=service.QuizSessionResponse}
// @Failure 400 {object} util.Response "Invalid parameters or not enough questions"
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Active quiz already exists"
// @Security BearerAuth
// @Router /api/quizzes [post]
func (c *QuizController) Create(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ChildService.Authorize(claims.ParentID, req.ChildID); err != nil {
		childError(ctx, err)
		return
	}

	resp, err := c.QuizService.CreateSession(ctx.Request.Context(), req)
	if err != nil {
		quizError(ctx, err)
		return
	}

	util.Created(ctx, resp)
}

// List godoc
// @Summary List a child's quiz sessions
// @Tags quizzes
// @Produce  json
// @Param   child_id query string true "Child ID"
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Page offset" default(0)
// @Success 200 {object} util.Response{data=[]model.QuizSession}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Security BearerAuth
// @Router /api/quizzes [get]
func (c *QuizController) List(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	childID := ctx.Query("child_id")
	if childID == "" {
		util.BadRequest(ctx, "child_id is required")
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	if err := c.ChildService.Authorize(claims.ParentID, childID); err != nil {
		childError(ctx, err)
		return
	}

	sessions, err := c.QuizService.ListSessions(childID, limit, offset)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, sessions)
}

// Get godoc
// @Summary Get a quiz session
// @Description Returns the session with its questions and remaining time. Stale active sessions expire on read.
// @Tags quizzes
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {object} util.Response{data=service.QuizSessionResponse}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 410 {object} util.Response "Session expired"
// @Security BearerAuth
// @Router /api/quizzes/{id} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	sessionID := ctx.Param("id")
	if !c.ownSession(ctx, claims.ParentID, sessionID) {
		return
	}

	resp, err := c.QuizService.GetSession(sessionID)
	if err != nil {
		quizError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}

type SubmitQuizRequest struct {
	Answers []service.AnswerSubmission `json:"answers" binding:"required"`
}

// Submit godoc
// @Summary Submit quiz answers
// @Description Grades the session. Unanswered questions count as incorrect. A session can be submitted once.
// @Tags quizzes
// @Accept  json
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   body body SubmitQuizRequest true "Answers"
// @Success 200 {object} util.Response{data=service.QuizResult}
// @Failure 400 {object} util.Response "Already submitted"
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 410 {object} util.Response "Session expired"
// @Security BearerAuth
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sessionID := ctx.Param("id")
	if !c.ownSession(ctx, claims.ParentID, sessionID) {
		return
	}

	result, err := c.QuizService.Submit(sessionID, req.Answers)
	if err != nil {
		quizError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// Expire godoc
// @Summary Expire a quiz session
// @Description Marks an active session expired. Expiring an expired session is a no-op.
// @Tags quizzes
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "Already submitted"
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/quizzes/{id}/expire [post]
func (c *QuizController) Expire(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	sessionID := ctx.Param("id")
	if !c.ownSession(ctx, claims.ParentID, sessionID) {
		return
	}

	if err := c.QuizService.ExpireSession(sessionID); err != nil {
		quizError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"expired": true})
}
