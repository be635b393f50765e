package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"docroute-api/internal/auth"
	"docroute-api/internal/extract"
	"docroute-api/internal/models"
	"docroute-api/internal/routing"
)

const dateLayout = "2006-01-02"

var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// CreateRouting creates a routing for an existing document reference or
// an uploaded file. Uploads enter the AI path; references are routed
// straight to human triage.
func (h *Handlers) CreateRouting(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	documentIDStr := c.PostForm("document_id")
	file, fileErr := c.FormFile("file")

	if documentIDStr == "" && fileErr != nil {
		h.badRequest(c, "Either document_id or file is required")
		return
	}

	var rt models.DocumentRouting

	if documentIDStr != "" {
		documentID, err := strconv.ParseUint(documentIDStr, 10, 32)
		if err != nil {
			h.badRequest(c, "Invalid document_id")
			return
		}
		documentName := c.PostForm("document_name")
		fileType := c.PostForm("file_type")
		if documentName == "" || fileType == "" {
			h.badRequest(c, "document_name and file_type are required for a document reference")
			return
		}

		docID := uint(documentID)
		rt = models.DocumentRouting{
			RoutingID:     newRoutingID(),
			UserID:        userID,
			DocumentID:    &docID,
			DocumentName:  documentName,
			FileType:      fileType,
			SourceType:    models.SourceHuman,
			AIFlag:        models.FlagDateMissing,
			RequiresHuman: true,
		}
	} else {
		contentType := file.Header.Get("Content-Type")
		if !allowedUploadTypes[contentType] {
			h.badRequest(c, "Only PDF, DOCX or plain text allowed")
			return
		}

		if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
			h.internalError(c, "Failed to store file")
			return
		}

		storedName := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(file.Filename))
		storedPath := filepath.Join(h.uploadDir, storedName)
		if err := c.SaveUploadedFile(file, storedPath); err != nil {
			logrus.Errorf("Failed to save upload: %v", err)
			h.internalError(c, "Failed to store file")
			return
		}

		rt = models.DocumentRouting{
			RoutingID:      newRoutingID(),
			UserID:         userID,
			DocumentName:   file.Filename,
			FileType:       contentType,
			SourceFilePath: storedPath,
			SourceType:     models.SourceAI,
			AIFlag:         models.FlagDateMissing,
			RequiresHuman:  true,
		}
	}

	if err := h.store.CreateRouting(&rt); err != nil {
		logrus.Errorf("Failed to create routing: %v", err)
		h.internalError(c, "Failed to create routing")
		return
	}

	if err := h.store.AppendAudit(rt.ID, "ROUTING_CREATED", "Routing created", models.ActorSystem); err != nil {
		logrus.Errorf("Failed to audit routing creation: %v", err)
	}

	c.JSON(http.StatusCreated, routingResponse(&rt, nil))
}

// Analyze runs AI deadline extraction and classification on a routing.
func (h *Handlers) Analyze(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	rt, err := h.store.RoutingByRoutingID(userID, req.RoutingID)
	if err != nil {
		h.internalError(c, "Failed to fetch routing")
		return
	}
	if rt == nil {
		h.notFound(c, "Routing not found")
		return
	}

	h.metrics.AnalyzeCount.Inc()

	// No AI source file means nothing to analyze; route to human.
	if rt.SourceFilePath == "" {
		h.skipAnalysis(c, rt, "AI file missing, routed to human")
		return
	}
	if _, err := os.Stat(rt.SourceFilePath); err != nil {
		h.skipAnalysis(c, rt, "AI file not found, routed to human")
		return
	}

	text, err := h.texts.Extract(rt.SourceFilePath, rt.FileType)
	if err != nil {
		h.skipAnalysis(c, rt, "AI file not readable, routed to human")
		return
	}

	// The classifier only fills an empty category; a manual assignment
	// always wins and is never overwritten.
	if rt.DocumentCategory == nil {
		category := extract.Classify(text)
		rt.DocumentCategory = &category
	}

	candidates := extract.Deadlines(text)
	h.metrics.DeadlinesDetected.Add(float64(len(candidates)))

	today := h.clock.Today()

	var detected []models.DetectedDeadline
	best := routing.SelectBest(candidates)
	if best != nil {
		date := best.Date
		confidence := best.Confidence

		deadline := models.RoutingDeadline{
			RoutingID:    rt.ID,
			Source:       models.SourceAI,
			Label:        best.Label,
			DeadlineDate: date,
			Confidence:   &confidence,
			Priority:     routing.Priority(&date, today),
			AIFlag:       routing.Flag(&date, today),
		}
		if err := h.store.CreateDeadline(&deadline); err != nil {
			logrus.Errorf("Failed to create deadline: %v", err)
			h.internalError(c, "Failed to record deadline")
			return
		}

		detected = append(detected, models.DetectedDeadline{
			DeadlineDate: date.Format(dateLayout),
			Label:        best.Label,
			Confidence:   best.Confidence,
		})

		rt.AIFlag = routing.Flag(&date, today)
		rt.Confidence = &confidence
		rt.RequiresHuman = routing.RequiresHumanReview(&date, &confidence)
	} else {
		rt.AIFlag = models.FlagDateMissing
		rt.Confidence = nil
		rt.RequiresHuman = true
	}

	if err := h.store.SaveRouting(rt); err != nil {
		h.internalError(c, "Failed to update routing")
		return
	}

	details := "confidence=none"
	if rt.Confidence != nil {
		details = fmt.Sprintf("confidence=%.2f", *rt.Confidence)
	}
	if err := h.store.AppendAudit(rt.ID, "AI_ANALYSIS_COMPLETED", details, models.ActorAI); err != nil {
		logrus.Errorf("Failed to audit analysis: %v", err)
	}

	c.JSON(http.StatusOK, models.AnalyzeResponse{
		RoutingID:         rt.RoutingID,
		AIFlag:            rt.AIFlag,
		Confidence:        rt.Confidence,
		RequiresHuman:     rt.RequiresHuman,
		DocumentCategory:  rt.DocumentCategory,
		DetectedDeadlines: detected,
		CreatedAt:         rt.CreatedAt,
	})
}

// skipAnalysis records the skipped outcome and responds with the
// human-routing state.
func (h *Handlers) skipAnalysis(c *gin.Context, rt *models.DocumentRouting, reason string) {
	rt.AIFlag = models.FlagDateMissing
	rt.Confidence = nil
	rt.RequiresHuman = true

	if err := h.store.SaveRouting(rt); err != nil {
		h.internalError(c, "Failed to update routing")
		return
	}
	if err := h.store.AppendAudit(rt.ID, "AI_ANALYSIS_SKIPPED", reason, models.ActorAI); err != nil {
		logrus.Errorf("Failed to audit skipped analysis: %v", err)
	}

	c.JSON(http.StatusOK, models.AnalyzeResponse{
		RoutingID:         rt.RoutingID,
		AIFlag:            rt.AIFlag,
		Confidence:        nil,
		RequiresHuman:     true,
		DocumentCategory:  rt.DocumentCategory,
		DetectedDeadlines: []models.DetectedDeadline{},
		CreatedAt:         rt.CreatedAt,
	})
}

// RoutingHistory lists the acting user's routings, newest first, each
// with its latest deadline date.
func (h *Handlers) RoutingHistory(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	routings, err := h.store.RoutingsForUser(userID)
	if err != nil {
		h.internalError(c, "Failed to fetch routings")
		return
	}

	results := make([]models.RoutingResponse, 0, len(routings))
	for i := range routings {
		rt := &routings[i]
		latest, err := h.store.LatestDeadline(rt.ID)
		if err != nil {
			h.internalError(c, "Failed to fetch deadlines")
			return
		}
		results = append(results, routingResponse(rt, latest))
	}

	c.JSON(http.StatusOK, results)
}

// AuditTrail returns the append-only audit log for a routing.
func (h *Handlers) AuditTrail(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	rt, err := h.store.RoutingByRoutingID(userID, c.Param("routing_id"))
	if err != nil {
		h.internalError(c, "Failed to fetch routing")
		return
	}
	if rt == nil {
		h.notFound(c, "Routing not found")
		return
	}

	entries, err := h.store.AuditForRouting(rt.ID)
	if err != nil {
		h.internalError(c, "Failed to fetch audit log")
		return
	}

	c.JSON(http.StatusOK, entries)
}

// DeleteRouting removes a routing and everything hanging off it.
func (h *Handlers) DeleteRouting(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	rt, err := h.store.RoutingByRoutingID(userID, c.Param("routing_id"))
	if err != nil {
		h.internalError(c, "Failed to fetch routing")
		return
	}
	if rt == nil {
		h.notFound(c, "Routing not found")
		return
	}

	if err := h.store.DeleteRouting(rt); err != nil {
		h.internalError(c, "Failed to delete routing")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Routing deleted"})
}

func newRoutingID() string {
	return "ROUTE-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

func routingResponse(rt *models.DocumentRouting, latest *models.RoutingDeadline) models.RoutingResponse {
	var deadlineDate *string
	if latest != nil {
		s := latest.DeadlineDate.Format(dateLayout)
		deadlineDate = &s
	}

	return models.RoutingResponse{
		ID:               rt.ID,
		RoutingID:        rt.RoutingID,
		DocumentID:       rt.DocumentID,
		DocumentName:     rt.DocumentName,
		FileType:         rt.FileType,
		DeadlineDate:     deadlineDate,
		DocumentCategory: rt.DocumentCategory,
		Notes:            rt.Notes,
		SourceType:       rt.SourceType,
		AIFlag:           rt.AIFlag,
		Confidence:       rt.Confidence,
		RequiresHuman:    rt.RequiresHuman,
		CreatedAt:        rt.CreatedAt,
	}
}

func (h *Handlers) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: message,
		Code:    http.StatusBadRequest,
	})
}

func (h *Handlers) notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: message,
		Code:    http.StatusNotFound,
	})
}

func (h *Handlers) internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: message,
		Code:    http.StatusInternalServerError,
	})
}

func (h *Handlers) unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "Missing user identity",
		Code:    http.StatusUnauthorized,
	})
}
