package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuizScoreRequest struct {
	QuizID string   `json:"quizId" binding:"required"`
	Score  *float64 `json:"score" binding:"required"`
}

func (h *Handler) GetStudentProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	student, err := h.svc.Students.Profile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *Handler) AccessCaseStudy(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	caseID, ok := objectIDParam(c, "caseId")
	if !ok {
		return
	}
	if _, err := h.svc.Students.AccessCase(c.Request.Context(), userID, caseID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Case study accessed successfully"})
}

func (h *Handler) TrackQuizScore(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req QuizScoreRequest
	if !bindJSON(c, &req) {
		return
	}
	quizID, err := primitive.ObjectIDFromHex(req.QuizID)
	if err != nil {
		badRequest(c, "Invalid quizId")
		return
	}
	if _, err := h.svc.Students.TrackQuizScore(c.Request.Context(), userID, quizID, *req.Score); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quiz score tracked successfully"})
}
