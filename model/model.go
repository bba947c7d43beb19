package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Intern status values.
const (
	InternActive     = "active"
	InternCompleted  = "completed"
	InternTerminated = "terminated"
)

// TemplateType tags a certificate template with the document it produces.
type TemplateType string

const (
	JoiningLetter         TemplateType = "joining_letter"
	HiringCertificate     TemplateType = "hiring_certificate"
	CompletionCertificate TemplateType = "completion_certificate"
)

// Activity kinds recorded for coordinator mutations.
const (
	ActionInternAdded   = "intern_added"
	ActionInternEdited  = "intern_edited"
	ActionInternDeleted = "intern_deleted"
)

type Admin struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"`
}

type Coordinator struct {
	gorm.Model
	Name               string     `gorm:"not null" json:"name"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	Password           string     `json:"-"`
	Department         string     `json:"department"`
	IsActive           bool       `gorm:"not null" json:"isActive"`
	MustChangePassword bool       `gorm:"not null" json:"mustChangePassword"`
	LastLoginAt        *time.Time `json:"lastLoginAt"`
	FCMToken           string     `json:"-"`

	Interns []Intern `gorm:"foreignKey:CoordinatorID" json:"-"`
}

type Intern struct {
	ID                        uint       `gorm:"primaryKey" json:"id"`
	Name                      string     `gorm:"not null" json:"name"`
	Email                     string     `gorm:"not null;index" json:"email"`
	Code                      string     `gorm:"uniqueIndex;not null" json:"internEmployeeId"`
	Role                      string     `json:"role"`
	Position                  string     `gorm:"not null" json:"position"`
	JoiningDate               time.Time  `gorm:"not null" json:"joiningDate"`
	InternshipDuration        int        `gorm:"not null" json:"internshipDuration"`
	Status                    string     `gorm:"type:varchar(20);not null;default:active;index" json:"status"`
	CoordinatorID             uint       `gorm:"not null;index" json:"coordinatorId"`
	JoiningCertificatePath    string     `json:"joiningCertificatePath,omitempty"`
	JoiningCertificateURL     string     `json:"joiningCertificateUrl,omitempty"`
	CompletionCertificatePath string     `json:"completionCertificatePath,omitempty"`
	CompletionCertificateURL  string     `json:"completionCertificateUrl,omitempty"`
	CompletionDate            *time.Time `json:"completionDate"`
	CreatedAt                 time.Time  `json:"createdAt"`
	UpdatedAt                 time.Time  `json:"updatedAt"`

	Coordinator *Coordinator `gorm:"foreignKey:CoordinatorID" json:"coordinator,omitempty"`
}

type CertificateTemplate struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Type      TemplateType `gorm:"type:varchar(40);not null;index" json:"type"`
	Name      string       `gorm:"not null" json:"name"`
	HTML      string       `gorm:"type:text;not null" json:"html"`
	Active    bool         `gorm:"not null" json:"active"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// EmailTemplate is looked up by Key first and by the legacy Type second.
type EmailTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:template_key;uniqueIndex;not null" json:"key"`
	Type      string    `gorm:"index" json:"type"`
	Subject   string    `gorm:"not null" json:"subject"`
	HTML      string    `gorm:"type:text;not null" json:"html"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ActivityLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	CoordinatorID uint              `gorm:"not null;index" json:"coordinatorId"`
	Action        string            `gorm:"type:varchar(40);not null" json:"action"`
	InternID      uint              `gorm:"index" json:"internId"`
	InternName    string            `json:"internName"`
	InternCode    string            `json:"internEmployeeId"`
	Details       datatypes.JSONMap `json:"details"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// CodeSequence backs intern code generation, one row per prefix.
type CodeSequence struct {
	Prefix string `gorm:"primaryKey"`
	Value  int64  `gorm:"not null;default:0"`
}

type FieldChange struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}
