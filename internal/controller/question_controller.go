package controller

import (
	"errors"
	"strconv"

	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/service"
	"studybuddy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	PickerService   *service.PickerService
	SubtopicService *service.SubtopicService
	ChildService    *service.ChildService
	RestockWorker   *service.RestockWorker
}

func NewQuestionController(picker *service.PickerService, subtopics *service.SubtopicService, children *service.ChildService, worker *service.RestockWorker) *QuestionController {
	return &QuestionController{
		PickerService:   picker,
		SubtopicService: subtopics,
		ChildService:    children,
		RestockWorker:   worker,
	}
}

// PracticeQuestion is a question as shown during practice. The answer key
// stays server-side; correctness comes back from the attempt endpoint.
type PracticeQuestion struct {
	ID         string           `json:"id"`
	Stem       string           `json:"stem"`
	Options    model.StringList `json:"options"`
	Subject    string           `json:"subject"`
	Topic      string           `json:"topic"`
	SubTopic   string           `json:"subtopic"`
	Difficulty model.Difficulty `json:"difficulty"`
}

type QuestionBatchResponse struct {
	Questions        []PracticeQuestion `json:"questions"`
	SelectedSubtopic string             `json:"selectedSubtopic"`
}

func gradeQuery(ctx *gin.Context) (*int, bool) {
	raw := ctx.Query("grade")
	if raw == "" {
		return nil, true
	}
	grade, err := strconv.Atoi(raw)
	if err != nil || grade < 0 || grade > 12 {
		return nil, false
	}
	return &grade, true
}

// Fetch godoc
// @Summary Fetch a practice batch
// @Description Serves up to limit questions for a child, adapted to their history. Kicks off background restocking when the pool runs low.
// @Tags questions
// @Produce  json
// @Param   child_id query string true "Child ID"
// @Param   subject query string true "Subject"
// @Param   topic query string false "Topic; omitted means pacing picks one for the child's grade"
// @Param   subtopic query string false "Subtopic; omitted means auto-select"
// @Param   limit query int false "Batch size" default(10)
// @Success 200 {object} util.Response{data=QuestionBatchResponse}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/questions [get]
func (c *QuestionController) Fetch(ctx *gin.Context) {
	claims := util.GetParentFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	childID := ctx.Query("child_id")
	subject := ctx.Query("subject")
	if childID == "" || subject == "" {
		util.BadRequest(ctx, "child_id and subject are required")
		return
	}
	limit := 10
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 50 {
			util.BadRequest(ctx, "limit must be between 1 and 50")
			return
		}
		limit = parsed
	}

	if err := c.ChildService.Authorize(claims.ParentID, childID); err != nil {
		childError(ctx, err)
		return
	}

	batch, err := c.PickerService.FetchBatch(ctx.Request.Context(), childID, subject, ctx.Query("topic"), ctx.Query("subtopic"), limit)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrChildNotFound):
			util.NotFound(ctx, "child not found")
		case errors.Is(err, util.ErrValidationFailed):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	if batch.Restock != nil {
		c.RestockWorker.Enqueue(*batch.Restock)
	}

	questions := make([]PracticeQuestion, len(batch.Questions))
	for i, q := range batch.Questions {
		questions[i] = PracticeQuestion{
			ID:         q.ID,
			Stem:       q.Stem,
			Options:    q.Options,
			Subject:    q.Subject,
			Topic:      q.Topic,
			SubTopic:   q.SubTopic,
			Difficulty: q.Difficulty,
		}
	}

	util.Success(ctx, QuestionBatchResponse{
		Questions:        questions,
		SelectedSubtopic: batch.SelectedSubtopic,
	})
}

// Topics godoc
// @Summary List topics for a subject
// @Tags catalog
// @Produce  json
// @Param   subject query string true "Subject"
// @Param   grade query int false "Grade filter"
// @Success 200 {object} util.Response{data=[]string}
// @Failure 400 {object} util.Response
// @Security BearerAuth
// @Router /api/topics [get]
func (c *QuestionController) Topics(ctx *gin.Context) {
	subject := ctx.Query("subject")
	if subject == "" {
		util.BadRequest(ctx, "subject is required")
		return
	}
	grade, ok := gradeQuery(ctx)
	if !ok {
		util.BadRequest(ctx, "grade must be between 0 and 12")
		return
	}

	topics, err := c.SubtopicService.Topics(subject, grade)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, topics)
}

// Subtopics godoc
// @Summary List the subtopic sequence for a topic
// @Tags catalog
// @Produce  json
// @Param   subject query string true "Subject"
// @Param   topic query string true "Topic"
// @Param   grade query int false "Grade filter"
// @Success 200 {object} util.Response{data=[]model.Subtopic}
// @Failure 400 {object} util.Response
// @Security BearerAuth
// @Router /api/subtopics [get]
func (c *QuestionController) Subtopics(ctx *gin.Context) {
	subject := ctx.Query("subject")
	topic := ctx.Query("topic")
	if subject == "" || topic == "" {
		util.BadRequest(ctx, "subject and topic are required")
		return
	}
	grade, ok := gradeQuery(ctx)
	if !ok {
		util.BadRequest(ctx, "grade must be between 0 and 12")
		return
	}

	subtopics, err := c.SubtopicService.Catalog(subject, grade, topic)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, subtopics)
}
