package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/gstnsync"
	"github.com/mmdatafocus/gst_backend/gstr"
	"github.com/mmdatafocus/gst_backend/middlewares"
	"github.com/mmdatafocus/gst_backend/models"
	"github.com/mmdatafocus/gst_backend/models/reports"
	"github.com/mmdatafocus/gst_backend/utils"
	"github.com/mmdatafocus/gst_backend/workflow"
)

const defaultPort = "8080"

// returnScope extracts and validates the tenant and return identity
// shared by every /returns handler.
func returnScope(c *gin.Context) (businessId, gstin, returnPeriod string, ok bool) {
	businessId, found := utils.GetBusinessIdFromContext(c.Request.Context())
	if !found || businessId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", "", "", false
	}
	gstin = c.Param("gstin")
	if err := models.ValidateGstin(gstin); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", "", false
	}
	returnPeriod = c.Param("period")
	if _, err := utils.ParseReturnPeriod(returnPeriod); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", "", false
	}
	return businessId, gstin, returnPeriod, true
}

// bindError shapes a request-binding failure: field-level tags for
// validation errors, the raw message otherwise.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func createBusinessHandler() gin.HandlerFunc {
	type createRequest struct {
		Name  string `json:"name" binding:"required"`
		Gstin string `json:"gstin" binding:"required"`
		Email string `json:"email"`
	}
	return func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		business := models.Business{Name: req.Name, Gstin: req.Gstin, Email: req.Email}
		if err := models.CreateBusiness(c.Request.Context(), &business); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, business)
	}
}

func saveBooksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, gstin, returnPeriod, ok := returnScope(c)
		if !ok {
			return
		}
		var books gstr.ReturnData
		if err := c.ShouldBindJSON(&books); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := workflow.SaveBooksData(c.Request.Context(), businessId, gstin, returnPeriod, books); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func rebuildBooksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, gstin, returnPeriod, ok := returnScope(c)
		if !ok {
			return
		}
		if err := workflow.RebuildBooks(c.Request.Context(), businessId, gstin, returnPeriod); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func saveGovHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, gstin, returnPeriod, ok := returnScope(c)
		if !ok {
			return
		}
		filed := strings.EqualFold(c.Query("filed"), "true")
		var wire map[string]json.RawMessage
		if err := c.ShouldBindJSON(&wire); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := workflow.SaveGovData(c.Request.Context(), businessId, gstin, returnPeriod, filed, wire); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func reconcileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, gstin, returnPeriod, ok := returnScope(c)
		if !ok {
			return
		}
		result, err := workflow.ReconcileReturn(c.Request.Context(), businessId, gstin, returnPeriod)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func reconSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, gstin, returnPeriod, ok := returnScope(c)
		if !ok {
			return
		}
		summary, err := workflow.GetReconSummary(c.Request.Context(), businessId, gstin, returnPeriod)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func reconcileRowsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, gstin, returnPeriod, ok := returnScope(c)
		if !ok {
			return
		}
		rows, err := workflow.FlattenedReconciliation(c.Request.Context(), businessId, gstin, returnPeriod)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func reconcileExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, gstin, returnPeriod, ok := returnScope(c)
		if !ok {
			return
		}
		reports.ExportReconExcel(c.Writer, c.Request, businessId, gstin, returnPeriod)
	}
}

func syncInwardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, gstin, returnPeriod, ok := returnScope(c)
		if !ok {
			return
		}
		business, err := models.GetBusinessByGstin(c.Request.Context(), gstin)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "business not found"})
			return
		}
		if business.BusinessId != businessId {
			c.JSON(http.StatusForbidden, gin.H{"error": "gstin belongs to another business"})
			return
		}
		err = gstnsync.SyncInwardSupplies(c.Request.Context(), business, returnPeriod)
		if errors.Is(err, gstnsync.ErrOTPRequired) {
			c.JSON(http.StatusConflict, gin.H{"error": "gstn session expired, otp required"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func matchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, found := utils.GetBusinessIdFromContext(c.Request.Context())
		if !found || businessId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		returnPeriod := c.Param("period")
		if _, err := utils.ParseReturnPeriod(returnPeriod); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		summary, err := workflow.MatchPurchases(c.Request.Context(), businessId, returnPeriod)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func linkInwardHandler() gin.HandlerFunc {
	type linkRequest struct {
		PurchaseInvoiceId int `json:"purchase_invoice_id" binding:"required"`
	}
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inward supply id"})
			return
		}
		var req linkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		supply, err := models.LinkInwardSupply(c.Request.Context(), id, req.PurchaseInvoiceId)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, supply)
	}
}

func unlinkInwardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inward supply id"})
			return
		}
		supply, err := models.UnlinkInwardSupply(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, supply)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for
	// graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the startup probe passes. Until
	// the DB is ready, app endpoints return 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist; allow all elsewhere.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/gst/v1", middlewares.RequireBusiness())
	api.POST("/businesses", createBusinessHandler())
	api.PUT("/returns/:gstin/:period/books", saveBooksHandler())
	api.POST("/returns/:gstin/:period/books/rebuild", rebuildBooksHandler())
	api.PUT("/returns/:gstin/:period/gov", saveGovHandler())
	api.GET("/returns/:gstin/:period/reconcile", reconcileHandler())
	api.GET("/returns/:gstin/:period/reconcile/rows", reconcileRowsHandler())
	api.GET("/returns/:gstin/:period/reconcile/summary", reconSummaryHandler())
	api.GET("/returns/:gstin/:period/export", reconcileExportHandler())
	api.POST("/returns/:gstin/:period/sync", syncInwardHandler())
	api.POST("/match/:period", matchHandler())
	api.POST("/inward-supplies/:id/link", linkInwardHandler())
	api.POST("/inward-supplies/:id/unlink", unlinkInwardHandler())
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as
	// a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	refreshCron := gstnsync.StartWorker()

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/gst/v1")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	if refreshCron != nil {
		refreshCron.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
