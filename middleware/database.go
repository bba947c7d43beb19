package middleware

import (
	"fmt"
	"log"
	"strings"

	"intern_certify_v1/config"
	"intern_certify_v1/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	DBConn *gorm.DB
	DBErr  error
)

// ConnectDB opens the PostgreSQL connection described by cfg, migrates the
// schema and assigns the connection to DBConn.
func ConnectDB(cfg *config.Config) error {
	DBConn, DBErr = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if DBErr != nil {
		return fmt.Errorf("connecting to database: %w", DBErr)
	}

	if err := MigrateDB(DBConn, cfg.InternCodePrefix); err != nil {
		return err
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := SeedAdmin(DBConn, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}
	return nil
}

// MigrateDB creates the schema, the one-active-template-per-type index, the
// intern code counter for codePrefix and the default email templates.
func MigrateDB(db *gorm.DB, codePrefix string) error {
	if db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	err := db.AutoMigrate(
		&model.Admin{},
		&model.Coordinator{},
		&model.Intern{},
		&model.CertificateTemplate{},
		&model.EmailTemplate{},
		&model.ActivityLog{},
		&model.CodeSequence{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_certificate_templates_one_active
		ON certificate_templates (type) WHERE active`).Error
	if err != nil {
		return fmt.Errorf("creating active template index: %w", err)
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.CodeSequence{Prefix: codePrefix}).Error; err != nil {
		return fmt.Errorf("seeding code sequence: %w", err)
	}

	for _, tmpl := range defaultEmailTemplates() {
		t := tmpl
		if err := db.Where(model.EmailTemplate{Key: t.Key}).FirstOrCreate(&t).Error; err != nil {
			return fmt.Errorf("seeding email template %s: %w", t.Key, err)
		}
	}

	log.Println("Database migration completed successfully!")
	return nil
}

// SeedAdmin creates the bootstrap administrator if no admin has that email.
func SeedAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	if err := db.Model(&model.Admin{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	if err := db.Create(&model.Admin{Name: "Administrator", Email: email, Password: string(hash)}).Error; err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	log.Printf("Seeded admin account %s", email)
	return nil
}

func defaultEmailTemplates() []model.EmailTemplate {
	return []model.EmailTemplate{
		{
			Key:     model.JoiningKind.EmailKey(),
			Type:    string(model.JoiningKind),
			Subject: "Welcome aboard, {{name}}: your joining letter",
			HTML: `<p>Dear {{name}},</p>
<p>Welcome to the team! You are joining us as <strong>{{position}}</strong> from {{joiningDate}} for {{duration}}.</p>
<p>Your intern ID is <strong>{{internEmployeeId}}</strong>. Your joining letter is attached to this email.</p>
<p>Regards,<br>Internship Office</p>`,
			Active: true,
		},
		{
			Key:     model.CompletionKind.EmailKey(),
			Type:    string(model.CompletionKind),
			Subject: "Congratulations {{name}}: your internship completion certificate",
			HTML: `<p>Dear {{name}},</p>
<p>Congratulations on completing your internship as <strong>{{position}}</strong> ({{joiningDate}} to {{completionDate}}).</p>
<p>Your completion certificate is attached. It can be verified with the ID <strong>{{internEmployeeId}}</strong>.</p>
<p>Regards,<br>Internship Office</p>`,
			Active: true,
		},
		{
			Key:     "password_reset",
			Type:    "password_reset",
			Subject: "Password Reset Verification Code",
			HTML: `<p>Hi {{name}},</p>
<p>Your password reset verification code is: <strong>{{code}}</strong></p>
<p>This code will expire in {{expiresIn}}.</p>
<p>If you did not request a password reset, please ignore this email.</p>`,
			Active: true,
		},
	}
}
