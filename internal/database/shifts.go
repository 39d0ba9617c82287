package database

import (
	"fmt"
	"strings"

	"smokedash/internal/models"
	"smokedash/internal/utils"
)

func (db *DB) ListShifts(useCache bool) []models.Shift {
	db.mu.Lock()
	defer db.mu.Unlock()
	return readDoc[[]models.Shift](db, docShifts, useCache)
}

func (db *DB) GetShift(id string) (*models.Shift, error) {
	shifts := db.ListShifts(true)
	if i := findShift(shifts, id); i >= 0 {
		return &shifts[i], nil
	}
	return nil, notFoundf("shift %s", id)
}

func findShift(shifts []models.Shift, id string) int {
	for i, s := range shifts {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func activeShift(shifts []models.Shift, username string) int {
	for i, s := range shifts {
		if s.Username == username && s.Status == models.ShiftOpen {
			return i
		}
	}
	return -1
}

// GetActiveShift returns the user's open shift, or nil.
func (db *DB) GetActiveShift(username string) *models.Shift {
	shifts := db.ListShifts(true)
	if i := activeShift(shifts, username); i >= 0 {
		return &shifts[i]
	}
	return nil
}

// OpenShift starts a cash drawer session. A user has at most one open shift.
func (db *DB) OpenShift(username string, startCash float64) (*models.Shift, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationf("username is required")
	}
	if startCash < 0 {
		return nil, validationf("opening cash must not be negative")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if findUser(readDoc[[]models.User](db, docUsers, false), username) < 0 {
		return nil, notFoundf("user %s", username)
	}

	shifts := readDoc[[]models.Shift](db, docShifts, false)
	if i := activeShift(shifts, username); i >= 0 {
		return nil, fmt.Errorf("%w: %s already has %s", ErrShiftAlreadyOpen, username, shifts[i].ID)
	}

	now := db.now()
	s := models.Shift{
		ID: utils.UniqueID(utils.TimestampID("SHFT", now, false), func(id string) bool {
			return findShift(shifts, id) >= 0
		}),
		Username:  username,
		StartTime: models.NewTimestamp(now),
		StartCash: startCash,
		EndCash:   0,
		Status:    models.ShiftOpen,
	}
	shifts = append(shifts, s)
	if err := writeList(db, docShifts, shifts); err != nil {
		return nil, err
	}
	db.log.WithField("shift_id", s.ID).WithField("username", username).Info("shift opened")
	return &s, nil
}

// CloseShift stores the declared drawer count. Variance against the
// expected cash is a read-time report, not stored here.
func (db *DB) CloseShift(id string, endCash float64, notes string) (*models.Shift, error) {
	if endCash < 0 {
		return nil, validationf("closing cash must not be negative")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	shifts := readDoc[[]models.Shift](db, docShifts, false)
	i := findShift(shifts, id)
	if i < 0 {
		return nil, notFoundf("shift %s", id)
	}
	if shifts[i].Status == models.ShiftClosed {
		return nil, fmt.Errorf("%w: %s", ErrShiftClosed, id)
	}

	end := db.timestamp()
	shifts[i].EndTime = &end
	shifts[i].EndCash = endCash
	shifts[i].Status = models.ShiftClosed
	shifts[i].Notes = strings.TrimSpace(notes)
	if err := writeList(db, docShifts, shifts); err != nil {
		return nil, err
	}
	db.log.WithField("shift_id", id).Info("shift closed")
	s := shifts[i]
	return &s, nil
}
