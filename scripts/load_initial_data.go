package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"expensely-backend/internal/config"
	"expensely-backend/internal/database"
	"expensely-backend/internal/database/models"
	"expensely-backend/internal/repository"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Simple structures that directly match the seed files
type GroupData struct {
	Name      string   `yaml:"name"`
	CreatedBy string   `yaml:"created_by"`
	Members   []string `yaml:"members"`
	Joined    []string `yaml:"joined,omitempty"`
}

type ExpenseData struct {
	GroupName    string   `yaml:"group_name"`
	Description  string   `yaml:"description"`
	Amount       string   `yaml:"amount"`
	PaidBy       string   `yaml:"paid_by"`
	SplitBetween []string `yaml:"split_between,omitempty"`
}

type GroupsFile struct {
	Groups []GroupData `yaml:"groups"`
}

type ExpensesFile struct {
	Expenses []ExpenseData `yaml:"expenses"`
}

func main() {
	log.Println("🚀 Loading initial data from YAML files...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StorageDriver == config.StorageMemory {
		log.Fatalf("STORAGE_DRIVER is %q; seeding needs postgres or sqlite", cfg.StorageDriver)
	}

	db, err := connectWithRetry(cfg, 60, time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := loadDataFromYAMLFiles(context.Background(), db, "scripts/data"); err != nil {
		log.Fatalf("Failed to load data from YAML files: %v", err)
	}

	log.Println("✅ Initial data loaded successfully!")
}

func connectWithRetry(cfg *config.Config, maxAttempts int, delay time.Duration) (*gorm.DB, error) {
	opts := &database.Options{
		LogLevel: logger.Silent, // Suppress all GORM logs including SQL queries and "record not found"
	}

	driver, dsn := database.DriverPostgres, cfg.DatabaseURL
	if cfg.StorageDriver == config.StorageSQLite {
		driver, dsn = database.DriverSQLite, cfg.SQLitePath
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, err := database.Initialize(driver, dsn, opts)
		if err == nil {
			return db, nil
		}
		if attempt%10 == 0 || attempt == maxAttempts {
			log.Printf("Database not ready (%d/%d): %v", attempt, maxAttempts, err)
		}
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("database not ready after %d attempts", maxAttempts)
}

func loadDataFromYAMLFiles(ctx context.Context, db *gorm.DB, dataDir string) error {
	var groupsFile GroupsFile
	if err := loadYAML(filepath.Join(dataDir, "groups.yaml"), &groupsFile); err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	var expensesFile ExpensesFile
	if err := loadYAML(filepath.Join(dataDir, "expenses.yaml"), &expensesFile); err != nil {
		return fmt.Errorf("failed to load expenses: %w", err)
	}

	groupRepo := repository.NewGroupRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)

	groupMap := make(map[string]*models.Group)
	groupCreated := 0
	for _, groupData := range groupsFile.Groups {
		group, created, err := createGroup(ctx, db, groupRepo, groupData)
		if err != nil {
			return fmt.Errorf("failed to create group %s: %w", groupData.Name, err)
		}
		groupMap[groupData.Name] = group
		if created {
			groupCreated++
		}
	}
	log.Printf("📋 Groups: %d created, %d total", groupCreated, len(groupsFile.Groups))

	expenseCreated := 0
	for _, expenseData := range expensesFile.Expenses {
		created, err := createExpense(ctx, db, expenseRepo, expenseData, groupMap)
		if err != nil {
			return fmt.Errorf("failed to create expense %s: %w", expenseData.Description, err)
		}
		if created {
			expenseCreated++
		}
	}
	log.Printf("💸 Expenses: %d created, %d total", expenseCreated, len(expensesFile.Expenses))
	return nil
}

// loadYAML decodes path into out; a missing file leaves out empty
func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("⚠️  %s not found, skipping", path)
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func createGroup(ctx context.Context, db *gorm.DB, repo *repository.GroupRepository, data GroupData) (*models.Group, bool, error) {
	creator := models.NormalizeEmail(data.CreatedBy)

	var existing models.Group
	err := db.WithContext(ctx).Where("name = ? AND created_by = ?", data.Name, creator).First(&existing).Error
	if err == nil {
		group, err := repo.GetByID(ctx, existing.ID)
		return group, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	joined := make(map[string]bool, len(data.Joined)+1)
	joined[creator] = true
	for _, email := range data.Joined {
		joined[models.NormalizeEmail(email)] = true
	}

	group := &models.Group{Name: data.Name, CreatedBy: creator}
	for _, raw := range data.Members {
		email := models.NormalizeEmail(raw)
		group.Members = append(group.Members, models.Member{
			Email:  email,
			Name:   models.DisplayName(email),
			Joined: joined[email],
		})
	}
	if err := repo.Create(ctx, group); err != nil {
		return nil, false, err
	}
	return group, true, nil
}

func createExpense(ctx context.Context, db *gorm.DB, repo *repository.ExpenseRepository, data ExpenseData, groups map[string]*models.Group) (bool, error) {
	group, ok := groups[data.GroupName]
	if !ok {
		return false, fmt.Errorf("unknown group %q", data.GroupName)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Expense{}).
		Where("group_id = ? AND description = ?", group.ID, data.Description).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	amount, err := decimal.NewFromString(data.Amount)
	if err != nil {
		return false, fmt.Errorf("invalid amount %q: %w", data.Amount, err)
	}

	payer := models.NormalizeEmail(data.PaidBy)
	if !group.HasMember(payer) {
		return false, fmt.Errorf("payer %s is not a member of %s", payer, group.Name)
	}
	split := group.MemberEmails()
	if len(data.SplitBetween) > 0 {
		split = split[:0:0]
		for _, raw := range data.SplitBetween {
			email := models.NormalizeEmail(raw)
			if !group.HasMember(email) {
				return false, fmt.Errorf("participant %s is not a member of %s", email, group.Name)
			}
			split = append(split, email)
		}
	}

	expense := &models.Expense{
		GroupID:      group.ID,
		Description:  data.Description,
		Amount:       amount.Round(2),
		PaidBy:       payer,
		SplitBetween: split,
		CreatedBy:    payer,
	}
	return true, repo.Create(ctx, expense)
}
