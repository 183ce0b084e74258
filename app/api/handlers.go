package api

import (
	"encoding/csv"
	"encoding/xml"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mvolkova/stashbot/app/database"
	"github.com/mvolkova/stashbot/app/messenger"
	"github.com/mvolkova/stashbot/app/rag"
	"github.com/mvolkova/stashbot/app/tasks"
)

func NewHandler(contentRepo database.ContentRepository, collectionRepo database.CollectionRepository,
	bot MessageHandlerInterface, regenerator RegeneratorInterface,
	scheduler tasks.TaskSchedulerInterface, sender messenger.Sender,
	digester tasks.Digester, baseURL string) *Handler {
	return &Handler{
		contentRepo:    contentRepo,
		collectionRepo: collectionRepo,
		bot:            bot,
		regenerator:    regenerator,
		scheduler:      scheduler,
		sender:         sender,
		digester:       digester,
		baseURL:        baseURL,
	}
}

// twimlResponse is the messaging webhook reply envelope.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// Webhook handles an incoming message from the messaging provider and
// answers with the bot's reply. The provider expects an XML body, so errors
// also come back as a sendable message rather than a status code.
func (h *Handler) Webhook(c *gin.Context) {
	body := c.PostForm("Body")
	from := c.PostForm("From")

	reply := h.bot.HandleMessage(c.Request.Context(), from, body)

	payload, err := xml.Marshal(twimlResponse{Message: reply})
	if err != nil {
		slog.Error("Failed to marshal webhook response", "error", err.Error())
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, xml.Header+string(payload))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if stats, err := h.contentRepo.GetStats(); err == nil {
		health["saved_content"] = stats.Total
		health["users"] = stats.UniqueUsers
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.contentRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{
		"total":       stats.Total,
		"recent_week": stats.RecentWeek,
		"users":       stats.UniqueUsers,
		"by_platform": stats.ByPlatform,
		"by_category": stats.ByCategory,
	}

	if daily, err := h.contentRepo.DailySaveCounts(30); err == nil {
		response["daily_saves"] = daily
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIListContent(c *gin.Context) {
	opts := database.ListOptions{
		UserPhone:  c.Query("user"),
		Platform:   c.Query("platform"),
		Category:   c.Query("category"),
		Collection: c.Query("collection"),
	}
	opts.Limit, _ = strconv.Atoi(c.Query("limit"))
	opts.Offset, _ = strconv.Atoi(c.Query("offset"))

	items, err := h.contentRepo.List(opts)
	if err != nil {
		slog.Error("Database error", "operation", "list_content", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content": items,
		"total":   len(items),
	})
}

func (h *Handler) APIGetContent(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}

	item, err := h.contentRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_content", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}

	c.JSON(http.StatusOK, item)
}

type updateContentRequest struct {
	Title      *string  `json:"title"`
	Caption    *string  `json:"caption"`
	ImageURL   *string  `json:"image_url"`
	Category   *string  `json:"category"`
	Summary    *string  `json:"summary"`
	Tags       []string `json:"tags"`
	Collection *string  `json:"collection"`
}

func (h *Handler) APIUpdateContent(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}

	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.contentRepo.Update(id, database.UpdateFields{
		Title:      req.Title,
		Caption:    req.Caption,
		ImageURL:   req.ImageURL,
		Category:   req.Category,
		Summary:    req.Summary,
		Tags:       req.Tags,
		Collection: req.Collection,
	})
	if err != nil {
		slog.Error("Database error", "operation", "update_content", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found or nothing to update"})
		return
	}

	item, err := h.contentRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_content", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) APIDeleteContent(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}

	deleted, err := h.contentRepo.Delete(id)
	if err != nil {
		slog.Error("Database error", "operation", "delete_content", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// APIRegenerateContent re-runs enrichment for one record from its stored
// metadata.
func (h *Handler) APIRegenerateContent(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}

	item, err := h.regenerator.Regenerate(c.Request.Context(), id)
	if err != nil {
		slog.Error("Failed to regenerate content", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate content"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) APISearchContent(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = 20
	}

	items, err := h.contentRepo.Search(c.Query("user"), rag.Tokenize(query), limit)
	if err != nil {
		slog.Error("Database error", "operation", "search_content", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content": items,
		"total":   len(items),
	})
}

func (h *Handler) APIGetRandomContent(c *gin.Context) {
	items, err := h.contentRepo.GetRandom(c.Query("user"), nil, 1)
	if err != nil {
		slog.Error("Database error", "operation", "get_random", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No content found"})
		return
	}

	c.JSON(http.StatusOK, items[0])
}

func (h *Handler) APIListCategories(c *gin.Context) {
	categories, err := h.contentRepo.DistinctCategories()
	if err != nil {
		slog.Error("Database error", "operation", "list_categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) APIListPlatforms(c *gin.Context) {
	platforms, err := h.contentRepo.DistinctPlatforms()
	if err != nil {
		slog.Error("Database error", "operation", "list_platforms", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"platforms": platforms})
}

// APIExportCSV streams every record as a CSV attachment.
func (h *Handler) APIExportCSV(c *gin.Context) {
	items, err := h.contentRepo.List(database.ListOptions{Limit: 10000})
	if err != nil {
		slog.Error("Database error", "operation", "export_csv", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="saved_content.csv"`)
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	writer.Write([]string{"id", "url", "platform", "title", "category", "summary", "tags", "collection", "user_phone", "created_at"})
	for _, item := range items {
		writer.Write([]string{
			strconv.FormatInt(item.ID, 10),
			item.URL,
			item.Platform,
			item.Title,
			item.Category,
			item.Summary,
			strings.Join(item.Tags, ", "),
			item.Collection,
			item.UserPhone,
			item.CreatedAt.Format(time.RFC3339),
		})
	}
	writer.Flush()
}

func (h *Handler) APIListCollections(c *gin.Context) {
	collections, err := h.collectionRepo.List()
	if err != nil {
		slog.Error("Database error", "operation", "list_collections", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

type collectionRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) APICreateCollection(c *gin.Context) {
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing collection name"})
		return
	}

	collection, err := h.collectionRepo.Create(req.Name)
	if err != nil {
		slog.Error("Database error", "operation", "create_collection", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create collection"})
		return
	}

	c.JSON(http.StatusCreated, collection)
}

func (h *Handler) APIDeleteCollection(c *gin.Context) {
	name := c.Param("name")

	deleted, err := h.collectionRepo.Delete(name)
	if err != nil {
		slog.Error("Database error", "operation", "delete_collection", "name", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIAssignCollection(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	assigned, err := h.collectionRepo.Assign(id, req.Name)
	if err != nil {
		slog.Error("Database error", "operation", "assign_collection", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !assigned {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// APITriggerDailyDose enqueues a daily dose run on demand.
func (h *Handler) APITriggerDailyDose(c *gin.Context) {
	task := tasks.NewDailyDoseTask(h.contentRepo, h.sender, h.digester)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue DailyDoseTask", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "task": gin.H{"id": task.ID, "type": task.Type}})
}

// APITriggerWeeklyDigest enqueues a weekly digest run on demand.
func (h *Handler) APITriggerWeeklyDigest(c *gin.Context) {
	task := tasks.NewWeeklyDigestTask(h.contentRepo, h.sender, h.baseURL)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue WeeklyDigestTask", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "task": gin.H{"id": task.ID, "type": task.Type}})
}

func contentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content id"})
		return 0, false
	}
	return id, true
}
