package response

import "github.com/gin-gonic/gin"

// Pagination is the collection envelope shared by every list endpoint.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func Data(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, gin.H{"data": data})
}

func Paginated(c *gin.Context, statusCode int, data any, p Pagination) {
	c.JSON(statusCode, gin.H{"data": data, "pagination": p})
}

func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// RateLimited adds the retryAfter hint clients use for backoff.
func RateLimited(c *gin.Context, message string, retryAfterSeconds int) {
	c.JSON(429, gin.H{"error": message, "retryAfter": retryAfterSeconds})
}
