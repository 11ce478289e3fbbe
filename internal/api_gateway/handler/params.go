package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shop-backoffice-ledger/internal/api_gateway/middleware"
	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// submitMeta gathers the request context of a money-moving intent. It
// responds 401 and returns false when no actor is authenticated.
func submitMeta(c *gin.Context, bodyKey string) (service.SubmitMeta, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		RespondUnauthorized(c, "")
		return service.SubmitMeta{}, false
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if key == "" {
		key = strings.TrimSpace(bodyKey)
	}

	return service.SubmitMeta{
		Actor:          actor,
		IdempotencyKey: key,
		CorrelationID:  middleware.GetCorrelationID(c),
	}, true
}

func changeMeta(c *gin.Context) (service.ChangeMeta, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		RespondUnauthorized(c, "")
		return service.ChangeMeta{}, false
	}
	return service.ChangeMeta{Actor: actor, CorrelationID: middleware.GetCorrelationID(c)}, true
}

func parseInt64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// parseDay resolves a YYYY-MM-DD business day in loc, now when raw is empty
func parseDay(field, raw string, loc *time.Location, now time.Time) (time.Time, error) {
	if raw == "" {
		return ledger.StartOfDay(now, loc), nil
	}
	day, err := time.ParseInLocation(operation.DayLayout, raw, loc)
	if err != nil {
		return time.Time{}, shared.NewValidationError(field, "must use the YYYY-MM-DD format")
	}
	return day, nil
}

// dayRange converts inclusive business days into the window [from, to+1 day)
func dayRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := parseDay("from", from, loc, time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last, err := parseDay("to", to, loc, time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := last.AddDate(0, 0, 1)
	if !end.After(start) {
		return time.Time{}, time.Time{}, shared.NewValidationError("to", "must not be before from")
	}
	return start, end, nil
}
