package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"Travel_Companion/backend/go/internal/models"
)

const (
	profileCacheKeyFormat = "persona:profile:%d"
	profileCacheTTL       = 10 * time.Minute
)

// ProfileStore 读取旅行者的人格画像。画像由 user_service 写入
// users.persona 列，这里加一层 Redis 缓存：chat_service 每个回合
// 都要读画像，而画像的更新频率很低。
type ProfileStore struct {
	db    *gorm.DB
	cache *goredis.Client // 可为 nil，此时直读数据库
}

// NewProfileStore 创建画像存储。cache 传 nil 时禁用缓存。
func NewProfileStore(db *gorm.DB, cache *goredis.Client) *ProfileStore {
	return &ProfileStore{db: db, cache: cache}
}

// GetProfile 返回用户的人格画像。用户不存在或尚未生成画像时返回
// (nil, nil)：画像缺失是正常状态，不是错误。
func (s *ProfileStore) GetProfile(ctx context.Context, userID uint) (*models.PersonaProfile, error) {
	key := fmt.Sprintf(profileCacheKeyFormat, userID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var profile models.PersonaProfile
			if jsonErr := json.Unmarshal(cached, &profile); jsonErr == nil {
				return &profile, nil
			}
			// 缓存内容损坏，删掉后回源。
			s.cache.Del(ctx, key)
		}
	}

	var user models.User
	err := s.db.WithContext(ctx).Select("persona").First(&user, userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("读取人格画像失败: %w", err)
	}
	if len(user.Persona) == 0 {
		return nil, nil
	}

	var profile models.PersonaProfile
	if err := json.Unmarshal(user.Persona, &profile); err != nil {
		return nil, fmt.Errorf("解析人格画像失败: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, []byte(user.Persona), profileCacheTTL)
	}
	return &profile, nil
}

// UpdateProfile 覆盖用户的人格画像并使缓存失效。
func (s *ProfileStore) UpdateProfile(ctx context.Context, userID uint, profile *models.PersonaProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("序列化人格画像失败: %w", err)
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("persona", data)
	if result.Error != nil {
		return fmt.Errorf("更新人格画像失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("用户 %d 不存在", userID)
	}

	s.Invalidate(ctx, userID)
	return nil
}

// Invalidate 删除一个用户的画像缓存。
func (s *ProfileStore) Invalidate(ctx context.Context, userID uint) {
	if s.cache != nil {
		s.cache.Del(ctx, fmt.Sprintf(profileCacheKeyFormat, userID))
	}
}
