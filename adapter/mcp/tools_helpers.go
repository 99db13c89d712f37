package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/pulse/adapter/cli"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

var errScoringUnavailable = errors.New("scoring requires a storage connection")

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return &parsed, nil
}

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := parseUUID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func requireScoring(app *cli.App) error {
	if app == nil || app.Scoring == nil {
		return errScoringUnavailable
	}
	return nil
}
