package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"rqc-adapter-api/config"
	"rqc-adapter-api/models"
	"rqc-adapter-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registry receives the events the decision endpoints fire. Set once at
// startup via SetEventRegistry.
var registry *services.EventRegistry

// SetEventRegistry installs the registry the controllers fire into.
func SetEventRegistry(r *services.EventRegistry) {
	registry = r
}

type SubmitRequest struct {
	ReferrerURL string `json:"referrer_url"`
}

// SubmitForGrading handles the grading button on the review screen: the
// editor sends the article to RQC and, on success, gets a redirect target
// to the RQC grading page.
func SubmitForGrading(c *gin.Context) {
	articleID, err := strconv.Atoi(c.Param("article_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article ID"})
		return
	}

	var req SubmitRequest
	// Body is optional; the Referer header is the fallback.
	_ = c.ShouldBindJSON(&req)
	if req.ReferrerURL == "" {
		req.ReferrerURL = c.GetHeader("Referer")
	}

	userID, _ := c.Get("userID")
	var user models.User
	if err := config.DB.Where("user_id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	outcome, err := services.NewSubmissionService(config.DB).
		SubmitForGrading(c.Request.Context(), articleID, req.ReferrerURL, &user)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit review data"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// RecordDecision records an editorial decision on the article and fires the
// matching event, which triggers the implicit RQC submission.
func RecordDecision(c *gin.Context) {
	articleID, err := strconv.Atoi(c.Param("article_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article ID"})
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var article models.Article
	if err := config.DB.Where("article_id = ?", articleID).First(&article).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	now := time.Now()
	var event services.Event

	switch req.Decision {
	case "accept":
		article.DateAccepted = &now
		article.DateDeclined = nil
		event = services.EventArticleAccepted
	case "decline":
		article.DateDeclined = &now
		event = services.EventArticleDeclined
	case "undecline":
		article.DateDeclined = nil
		event = services.EventArticleUndeclined
	case models.RevisionTypeMinor, models.RevisionTypeMajor:
		revision := models.RevisionRequest{
			ArticleID:     article.ArticleID,
			Type:          req.Decision,
			DateRequested: now,
		}
		if err := config.DB.Create(&revision).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record revision request"})
			return
		}
		event = services.EventRevisionsRequested
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown decision: " + req.Decision})
		return
	}

	if event != services.EventRevisionsRequested {
		if err := config.DB.Model(&models.Article{}).
			Where("article_id = ?", article.ArticleID).
			Updates(map[string]interface{}{
				"date_accepted": article.DateAccepted,
				"date_declined": article.DateDeclined,
			}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record decision"})
			return
		}
	}

	if registry != nil {
		registry.Fire(c.Request.Context(), event, services.EventPayload{ArticleID: article.ArticleID})
	}

	c.JSON(http.StatusOK, gin.H{
		"article_id": article.ArticleID,
		"decision":   req.Decision,
	})
}

// AcceptReviewAssignment marks the assignment accepted by its reviewer and
// fires the acceptance event, which freezes the consent snapshot.
func AcceptReviewAssignment(c *gin.Context) {
	assignmentID, err := strconv.Atoi(c.Param("assignment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	userID, _ := c.Get("userID")

	var assignment models.ReviewAssignment
	if err := config.DB.First(&assignment, assignmentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review assignment not found"})
		return
	}
	if assignment.ReviewerID != userID.(int) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your review assignment"})
		return
	}

	if assignment.DateAccepted == nil {
		now := time.Now()
		if err := config.DB.Model(&assignment).
			Update("date_accepted", &now).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept assignment"})
			return
		}
	}

	if registry != nil {
		registry.Fire(c.Request.Context(), services.EventReviewerAccepted,
			services.EventPayload{ArticleID: assignment.ArticleID, ReviewAssignmentID: assignment.ID})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review assignment accepted"})
}

// GetOptingStatus returns the reviewer's current yearly decision for a
// journal and whether a fresh one is needed.
func GetOptingStatus(c *gin.Context) {
	journalID, err := strconv.Atoi(c.Query("journal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "journal_id query parameter is required"})
		return
	}
	userID, _ := c.Get("userID")

	decision, err := services.NewOptingService(config.DB).
		CurrentDecision(c.Request.Context(), userID.(int), journalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load opting decision"})
		return
	}

	if decision == nil {
		c.JSON(http.StatusOK, gin.H{
			"opting_status":     models.OptingUndefined,
			"decision_required": true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"opting_status":     decision.OptingStatus,
		"opting_date":       decision.OptingDate,
		"decision_required": !decision.IsValid(),
	})
}

type OptingRequest struct {
	JournalID    int `json:"journal_id" binding:"required"`
	OptingStatus int `json:"opting_status" binding:"required"`
}

// RecordOptingDecision stores the reviewer's yearly opting decision.
func RecordOptingDecision(c *gin.Context) {
	var req OptingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := c.Get("userID")

	err := services.NewOptingService(config.DB).
		RecordDecision(c.Request.Context(), userID.(int), req.JournalID, req.OptingStatus)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Opting decision recorded"})
}

// GetRQCSettings returns whether the journal has working credentials. The
// API key itself never leaves the database.
func GetRQCSettings(c *gin.Context) {
	journalID, err := strconv.Atoi(c.Query("journal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "journal_id query parameter is required"})
		return
	}

	credentials, err := services.NewCredentialsService(config.DB, nil).
		Get(c.Request.Context(), journalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load RQC settings"})
		return
	}

	if credentials == nil {
		c.JSON(http.StatusOK, gin.H{"configured": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"configured":     true,
		"rqc_journal_id": credentials.RQCJournalID,
	})
}

type SettingsRequest struct {
	JournalID    int    `json:"journal_id" binding:"required"`
	RQCJournalID int    `json:"rqc_journal_id" binding:"required"`
	APIKey       string `json:"api_key" binding:"required"`
}

// SaveRQCSettings validates the credentials against the live RQC service
// and stores them only when the check passes.
func SaveRQCSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := services.NewCredentialsService(config.DB, nil).
		Save(c.Request.Context(), req.JournalID, req.RQCJournalID, req.APIKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store RQC settings"})
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":            "Credential check failed",
			"message":          result.Message,
			"http_status_code": result.HTTPStatusCode,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "RQC settings saved"})
}

// ListDelayedCalls exposes the retry ledger for admins.
func ListDelayedCalls(c *gin.Context) {
	calls, err := services.NewDelayedCallService(config.DB).Pending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load delayed calls"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"delayed_calls": calls,
		"count":         len(calls),
	})
}
