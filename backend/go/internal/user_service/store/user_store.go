package store

import (
	"errors"

	"gorm.io/gorm"

	"Travel_Companion/backend/go/internal/models"
)

// --- User Management ---

// CreateUser 在数据库中创建一个新用户，并为其分配默认的 Traveler 角色。
func (s *Store) CreateUser(user *models.User) error {
	// 在事务中执行创建用户和分配角色的操作，确保原子性。
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		var defaultRole models.AuthRole
		if err := tx.Where("name = ?", "Traveler").First(&defaultRole).Error; err != nil {
			return errors.New("默认的 'Traveler' 角色未找到")
		}

		return tx.Model(user).Association("Roles").Append(&defaultRole)
	})
}

// GetUserByEmail 通过邮箱地址查找用户。
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	// Preload Roles to get role information along with the user
	if err := s.DB.Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID 通过 ID 查找用户。
func (s *Store) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.Preload("Roles").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser 更新用户信息。
func (s *Store) UpdateUser(user *models.User) error {
	return s.DB.Save(user).Error
}
