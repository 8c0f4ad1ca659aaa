package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"Travel_Companion/backend/go/internal/auth"
	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/internal/persona"
	"Travel_Companion/backend/go/internal/user_service/store"
)

// Service 封装了用户服务的业务逻辑：注册登录、资料维护、
// 人格画像和 FCM 设备令牌管理。
type Service struct {
	store     *store.Store
	profiles  *persona.ProfileStore
	jwtSecret string
	tokenTTL  int
}

// NewService 创建一个新的 Service 实例。tokenTTL 为 JWT 有效期
// （秒），不为正时默认七天。
func NewService(s *store.Store, profiles *persona.ProfileStore, jwtSecret string, tokenTTL int) *Service {
	if tokenTTL <= 0 {
		tokenTTL = int((7 * 24 * time.Hour).Seconds())
	}
	return &Service{
		store:     s,
		profiles:  profiles,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// --- User Registration & Login ---

// RegisterUser 处理新用户注册的逻辑。
func (s *Service) RegisterUser(email, password, username, fullName, homeCity string) (*models.User, error) {
	// 检查用户是否已存在
	if _, err := s.store.GetUserByEmail(email); err == nil {
		return nil, errors.New("该邮箱已被注册")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &models.User{
		Username: username,
		FullName: fullName,
		Email:    email,
		HomeCity: homeCity,
		Status:   models.StatusActive,
		Password: string(hashedPassword),
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginUser 处理用户登录的逻辑，成功时返回 JWT。
func (s *Service) LoginUser(email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		return "", errors.New("用户不存在或密码错误")
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", errors.New("用户不存在或密码错误")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.store.UpdateUser(user); err != nil {
		return "", err
	}

	return auth.GenerateToken(user.ID, s.jwtSecret, s.tokenTTL)
}

// GetUser 返回用户资料。
func (s *Service) GetUser(userID uint) (*models.User, error) {
	return s.store.GetUserByID(userID)
}

// UpdateProfile 更新用户的基本资料。空字段保持原值。
func (s *Service) UpdateProfile(userID uint, fullName, avatarURL, homeCity string) (*models.User, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if fullName != "" {
		user.FullName = fullName
	}
	if avatarURL != "" {
		user.AvatarURL = avatarURL
	}
	if homeCity != "" {
		user.HomeCity = homeCity
	}

	if err := s.store.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// --- Persona Profile ---

// GetPersona 返回用户的人格画像，尚未生成时返回 (nil, nil)。
func (s *Service) GetPersona(ctx context.Context, userID uint) (*models.PersonaProfile, error) {
	return s.profiles.GetProfile(ctx, userID)
}

// UpdatePersona 覆盖用户的人格画像并使缓存失效。
func (s *Service) UpdatePersona(ctx context.Context, userID uint, profile *models.PersonaProfile) error {
	return s.profiles.UpdateProfile(ctx, userID, profile)
}

// --- Device Tokens ---

// RegisterDeviceToken 登记一个 FCM 设备令牌，重复登记是幂等的。
func (s *Service) RegisterDeviceToken(userID uint, token string) error {
	if token == "" {
		return errors.New("设备令牌不能为空")
	}

	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return err
	}

	tokens, err := decodeDeviceTokens(user)
	if err != nil {
		return err
	}
	for _, existing := range tokens {
		if existing == token {
			return nil
		}
	}
	tokens = append(tokens, token)

	return s.encodeDeviceTokens(user, tokens)
}

// RemoveDeviceToken 注销一个 FCM 设备令牌。
func (s *Service) RemoveDeviceToken(userID uint, token string) error {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return err
	}

	tokens, err := decodeDeviceTokens(user)
	if err != nil {
		return err
	}

	kept := tokens[:0]
	for _, existing := range tokens {
		if existing != token {
			kept = append(kept, existing)
		}
	}

	return s.encodeDeviceTokens(user, kept)
}

// DeviceTokens 返回用户登记的全部设备令牌。
func (s *Service) DeviceTokens(userID uint) ([]string, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	return decodeDeviceTokens(user)
}

func decodeDeviceTokens(user *models.User) ([]string, error) {
	if len(user.DeviceTokens) == 0 {
		return nil, nil
	}
	var tokens []string
	if err := json.Unmarshal(user.DeviceTokens, &tokens); err != nil {
		return nil, fmt.Errorf("解析设备令牌失败: %w", err)
	}
	return tokens, nil
}

func (s *Service) encodeDeviceTokens(user *models.User, tokens []string) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("序列化设备令牌失败: %w", err)
	}
	user.DeviceTokens = data
	return s.store.UpdateUser(user)
}

// --- Permission Management ---

// AssignRoleToUser 为用户分配角色。
func (s *Service) AssignRoleToUser(userID, roleID uint) error {
	return s.store.AssignRoleToUser(userID, roleID)
}

// RevokeRoleFromUser 从用户撤销角色。
func (s *Service) RevokeRoleFromUser(userID, roleID uint) error {
	return s.store.RevokeRoleFromUser(userID, roleID)
}

// CheckUserPermission 检查用户是否拥有特定权限。
func (s *Service) CheckUserPermission(userID uint, requiredPermission string) (bool, error) {
	permissions, err := s.store.GetUserPermissions(userID)
	if err != nil {
		return false, err
	}

	for _, p := range permissions {
		if p.Name == requiredPermission {
			return true, nil
		}
	}
	return false, nil
}
