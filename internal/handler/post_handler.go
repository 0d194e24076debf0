package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/KseniyaZaitseva1/bloggpt/internal/errs"
	"github.com/KseniyaZaitseva1/bloggpt/internal/model"
	"github.com/KseniyaZaitseva1/bloggpt/internal/repository"

	"github.com/gin-gonic/gin"
)

type PostService interface {
	Generate(ctx context.Context, topic string) (*model.Post, error)
	Submit(ctx context.Context, topic string) (*model.Job, error)
	Job(ctx context.Context, id string) (*model.Job, error)
}

type PostHandler struct {
	service  PostService
	deferred bool
}

func NewPostHandler(service PostService, deferred bool) *PostHandler {
	return &PostHandler{service: service, deferred: deferred}
}

func toPostResponse(p *model.Post) PostResponse {
	return PostResponse{
		Title:           p.Title,
		MetaDescription: p.MetaDescription,
		PostContent:     p.Body,
	}
}

func toJobResponse(j *model.Job) JobResponse {
	res := JobResponse{
		ID:        j.ID,
		Topic:     j.Topic,
		Status:    j.Status,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
	if j.Post != nil {
		post := toPostResponse(j.Post)
		res.Result = &post
	}
	return res
}

// errorMessage keeps bad input terse; every other failure carries its cause.
func errorMessage(err error) string {
	var bad errs.BadInputError
	if errors.As(err, &bad) {
		return bad.Msg
	}
	return "failed to generate content: " + err.Error()
}

func (h *PostHandler) GeneratePost(c *gin.Context) {
	var req GeneratePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if h.deferred {
		h.submit(c, req.Topic)
		return
	}

	post, err := h.service.Generate(c.Request.Context(), req.Topic)
	if err != nil {
		slog.Error("error generating post", "topic", req.Topic, "error", err)
		c.JSON(errs.StatusCode(err), gin.H{"error": errorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *PostHandler) submit(c *gin.Context, topic string) {
	job, err := h.service.Submit(c.Request.Context(), topic)
	if err != nil {
		slog.Error("error submitting post job", "topic", topic, "error", err)
		c.JSON(errs.StatusCode(err), gin.H{"error": errorMessage(err)})
		return
	}

	c.JSON(http.StatusAccepted, ProcessingResponse{
		Status:  "Processing",
		Message: "Post generation started, poll /jobs/" + job.ID + " for the result",
		JobID:   job.ID,
	})
}

func (h *PostHandler) GetJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.service.Job(c.Request.Context(), id)
	if errors.Is(err, repository.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		slog.Error("error fetching job", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Job store error"})
		return
	}

	c.JSON(http.StatusOK, toJobResponse(job))
}
