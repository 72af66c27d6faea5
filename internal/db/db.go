package db

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"curator/internal/models"
	"curator/internal/utils"
)

// Init 连接 Postgres 并完成迁移
func Init(dsn string) (*gorm.DB, error) {
	return Open(postgres.Open(dsn))
}

// Open 使用任意 dialector 建立连接并迁移
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := Connect(dialector)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Connect(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	zap.S().Info("Database connection established")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Source{},
		&models.Article{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	zap.S().Info("Database migration completed")
	return nil
}

// SeedAdmin 确保存在一个管理员账号。账号已存在时不修改密码。
func SeedAdmin(db *gorm.DB, username, password string) error {
	if username == "" {
		return nil
	}

	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		if !existing.IsAdmin() {
			return db.Model(&existing).Update("role", models.RoleAdmin).Error
		}
		zap.S().Debugf("Admin %s already seeded, skipping", username)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	if password == "" {
		zap.S().Warnf("ADMIN_PASSWORD not set, admin %s not created", username)
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{Username: username, Password: hash, Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	zap.S().Infof("Admin %s created", username)
	return nil
}
