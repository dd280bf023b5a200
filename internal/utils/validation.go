package utils

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/config"
)

// ValidateRotaConfig checks the ROTA_* settings the services rely on at startup.
func ValidateRotaConfig(cfg *config.Config) error {
	if _, err := cfg.Location(); err != nil {
		return err
	}

	start, err := calendar.ParseClock(cfg.Rota.DefaultShiftStart)
	if err != nil {
		return fmt.Errorf("invalid ROTA_DEFAULT_SHIFT_START: %w", err)
	}
	end, err := calendar.ParseClock(cfg.Rota.DefaultShiftEnd)
	if err != nil {
		return fmt.Errorf("invalid ROTA_DEFAULT_SHIFT_END: %w", err)
	}
	if !start.Before(end) {
		return errors.New("default shift end must be after its start")
	}

	return ValidateRoleTags(cfg.Rota.RoleTags)
}

func ValidateRoleTags(tags []string) error {
	if len(tags) == 0 {
		return errors.New("at least one role tag is required")
	}

	seen := make([]string, 0, len(tags))
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("role tag %d is empty", i+1)
		}
		if slices.Contains(seen, tag) {
			return fmt.Errorf("role tag %q is listed twice", tag)
		}
		seen = append(seen, tag)
	}
	return nil
}
