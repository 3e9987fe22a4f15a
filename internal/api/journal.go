package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/samvad-hq/item-relay/pkg/publishers"
	"github.com/samvad-hq/item-relay/pkg/uri"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

// JournalReader serves recorded call events.
type JournalReader interface {
	Recent(limit int) ([]publishers.Event, error)
}

// RegisterJournalRoutes exposes GET /journal/recent?limit=N.
func RegisterJournalRoutes(r gin.IRouter, j JournalReader) {
	r.GET("/journal/recent", func(c *gin.Context) {
		limit := defaultJournalLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxJournalLimit {
				writeError(c, &uri.CallerInputError{
					Param: "limit",
					Err:   fmt.Errorf("must be an integer between 1 and %d", maxJournalLimit),
				})
				return
			}
			limit = n
		}

		events, err := j.Recent(limit)
		if err != nil {
			writeError(c, fmt.Errorf("read journal: %w", err))
			return
		}
		if events == nil {
			events = []publishers.Event{}
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	})
}
