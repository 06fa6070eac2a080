package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/models"
)

func main() {
	dbPath := os.Getenv("REIMBLY_DB_PATH")
	if dbPath == "" {
		dbPath = "./data/reimbly.db"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Expense{},
		&models.AuditLog{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	fmt.Println("✓ Database migrated successfully")

	adminPassword := os.Getenv("REIMBLY_SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	users := []struct {
		name     string
		email    string
		role     string
		password string
	}{
		{"Administrator", "admin@reimbly.local", models.RoleAdmin, adminPassword},
		{"Avery Chen", "avery@reimbly.local", models.RoleEmployee, "password123"},
		{"Sam Okafor", "sam@reimbly.local", models.RoleEmployee, "password123"},
	}

	byEmail := map[string]models.User{}
	for _, u := range users {
		user := models.User{
			UUID:  uuid.NewString(),
			Name:  u.name,
			Email: u.email,
			Role:  u.role,
		}
		if err := user.SetPassword(u.password); err != nil {
			log.Fatalf("Failed to hash password for %s: %v", u.email, err)
		}

		var existing models.User
		if err := db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
			fmt.Printf("  User already exists: %s\n", existing.Email)
			byEmail[u.email] = existing
			continue
		}

		if err := db.Create(&user).Error; err != nil {
			log.Printf("Failed to seed user %s: %v", user.Email, err)
			continue
		}
		fmt.Printf("✓ Created user: %s (%s)\n", user.Email, user.Role)
		byEmail[u.email] = user
	}

	admin := byEmail["admin@reimbly.local"]
	avery := byEmail["avery@reimbly.local"]
	sam := byEmail["sam@reimbly.local"]

	now := time.Now().UTC()
	reviewed := now.AddDate(0, 0, -2)
	adminID := admin.ID

	expenses := []models.Expense{
		{
			UUID:         uuid.NewString(),
			UserID:       avery.ID,
			Notes:        "Flight to client site",
			Amount:       412.80,
			Category:     "travel",
			Status:       models.StatusApproved,
			Date:         now.AddDate(0, 0, -10),
			ReviewedByID: &adminID,
			ReviewedAt:   &reviewed,
		},
		{
			UUID:        uuid.NewString(),
			UserID:      avery.ID,
			Notes:       "Team lunch after sprint review",
			Amount:      68.40,
			Category:    "food",
			Status:      models.StatusPending,
			Date:        now.AddDate(0, 0, -3),
		},
		{
			UUID:        uuid.NewString(),
			UserID:      sam.ID,
			Notes:       "Hotel for conference",
			Amount:      289.00,
			Category:    "accommodation",
			Status:      models.StatusPending,
			Date:        now.AddDate(0, 0, -5),
		},
		{
			UUID:            uuid.NewString(),
			UserID:          sam.ID,
			Notes:           "Desk lamp for home office",
			Amount:          45.99,
			Category:        "office",
			Status:          models.StatusRejected,
			Date:            now.AddDate(0, 0, -14),
			ReviewedByID:    &adminID,
			ReviewedAt:      &reviewed,
			RejectionReason: "Personal equipment is not reimbursable",
		},
	}

	for _, expense := range expenses {
		result := db.Where("user_id = ? AND notes = ?", expense.UserID, expense.Notes).
			FirstOrCreate(&expense)
		if result.Error != nil {
			log.Printf("Failed to seed expense %q: %v", expense.Notes, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created expense: %s ($%.2f, %s)\n", expense.Notes, expense.Amount, expense.Status)
		} else {
			fmt.Printf("  Expense already exists: %s\n", expense.Notes)
		}
	}

	fmt.Println("\n✓ Database seeding completed successfully!")
	fmt.Println("  You can now start the application and see sample data.")
}
