// Package directory is the chat core's view of the platform's user records:
// mentor availability flags and the student-load counter. Everything else
// about users (registration, profiles, credentials) lives elsewhere.
package directory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"doubtdesk/internal/chat"
	"doubtdesk/internal/dbmysql"
)

type Directory interface {
	User(ctx context.Context, userID uint64) (*dbmysql.User, error)
	PickMentor(ctx context.Context, subject string) (*dbmysql.User, error)
	SetAvailability(ctx context.Context, mentorID uint64, onBreak, onLeave bool) error
}

type gormDirectory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func (d *gormDirectory) User(ctx context.Context, userID uint64) (*dbmysql.User, error) {
	var user dbmysql.User
	err := d.db.WithContext(ctx).Where("user_id = ? AND status = ?", userID, "active").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// PickMentor selects the eligible mentor with the lowest current load for the
// subject. The user_id tie-break keeps the choice deterministic. Mentor state
// changes between calls, so this is evaluated fresh every time.
func (d *gormDirectory) PickMentor(ctx context.Context, subject string) (*dbmysql.User, error) {
	var mentor dbmysql.User
	err := d.db.WithContext(ctx).
		Where("is_mentor = ? AND subject = ? AND on_leave = ? AND on_break = ? AND status = ?",
			true, subject, false, false, "active").
		Order("student_count ASC, user_id ASC").
		First(&mentor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, chat.ErrNoMentorAvailable
	}
	if err != nil {
		return nil, err
	}
	return &mentor, nil
}

func (d *gormDirectory) SetAvailability(ctx context.Context, mentorID uint64, onBreak, onLeave bool) error {
	res := d.db.WithContext(ctx).Model(&dbmysql.User{}).
		Where("user_id = ? AND is_mentor = ?", mentorID, true).
		Updates(map[string]interface{}{"on_break": onBreak, "on_leave": onLeave})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return chat.ErrNotFound
	}
	return nil
}

// IncrementLoad is the one place the mentor load counter is mutated. It runs
// as a single UPDATE expression inside the assignment transaction; the counter
// is never read-modify-written from Go.
func IncrementLoad(tx *gorm.DB, mentorID uint64) error {
	return tx.Model(&dbmysql.User{}).
		Where("user_id = ?", mentorID).
		UpdateColumn("student_count", gorm.Expr("student_count + ?", 1)).Error
}
