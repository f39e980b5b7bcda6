package dbmysql

import (
	"time"

	"gorm.io/gorm"
)

// User is owned by the platform's user directory; this core reads mentor
// availability and load, and increments StudentCount on new assignment.
type User struct {
	UserID       uint64         `gorm:"primaryKey;column:user_id;autoIncrement" json:"user_id"`
	Handle       string         `gorm:"column:handle;uniqueIndex;size:50;not null" json:"handle"`
	Email        string         `gorm:"column:email;size:255" json:"email"`
	IsMentor     bool           `gorm:"column:is_mentor;index;default:false" json:"is_mentor"`
	Subject      string         `gorm:"column:subject;index;size:100" json:"subject"`
	OnBreak      bool           `gorm:"column:on_break;default:false" json:"on_break"`
	OnLeave      bool           `gorm:"column:on_leave;default:false" json:"on_leave"`
	StudentCount uint           `gorm:"column:student_count;default:0" json:"student_count"`
	Status       string         `gorm:"column:status;type:enum('active','banned','deleted');default:'active'" json:"status"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
