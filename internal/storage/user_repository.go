package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"socialchat/internal/models"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByUsernameOrEmail 返回 username 或 email 任一匹配的用户，没有时返回 (nil, nil)。
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	GetBasicInfoByID(ctx context.Context, id string) (*models.UserBasicInfo, error)
	GetMultipleBasicInfoByIDs(ctx context.Context, userIDs []string) ([]*models.UserBasicInfo, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	SearchUsers(ctx context.Context, query string, excludeID string, limit int) ([]*models.UserBasicInfo, error)
}

// gormUserRepository implements UserRepository using GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based UserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID retrieves a user by their ID. 未找到时返回 gorm.ErrRecordNotFound。
func (r *gormUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email.
func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetBasicInfoByID retrieves minimal public user info by ID.
func (r *gormUserRepository) GetBasicInfoByID(ctx context.Context, id string) (*models.UserBasicInfo, error) {
	var basicInfo models.UserBasicInfo
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "username", "email").
		Where("id = ?", id).
		First(&basicInfo).Error
	if err != nil {
		return nil, err
	}
	return &basicInfo, nil
}

// GetMultipleBasicInfoByIDs retrieves minimal public user info for a list of user IDs.
func (r *gormUserRepository) GetMultipleBasicInfoByIDs(ctx context.Context, userIDs []string) ([]*models.UserBasicInfo, error) {
	basicInfos := []*models.UserBasicInfo{}
	if len(userIDs) == 0 {
		return basicInfos, nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "username", "email").
		Where("id IN ?", userIDs).
		Order("username").
		Find(&basicInfos).Error
	if err != nil {
		return nil, err
	}
	return basicInfos, nil
}

// UpdateFields 只更新给定的列。用户不存在时返回 gorm.ErrRecordNotFound。
func (r *gormUserRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SearchUsers 在 username 和 email 上做大小写不敏感的模糊匹配，并排除 excludeID。
// 结果顺序由数据库决定。SQLite 的 LOWER 只折叠 ASCII，查询词按同样规则折叠，
// 非 ASCII 字母在 SQLite 上区分大小写。
func (r *gormUserRepository) SearchUsers(ctx context.Context, query string, excludeID string, limit int) ([]*models.UserBasicInfo, error) {
	users := []*models.UserBasicInfo{}
	folded := strings.ToLower(query)
	if r.db.Dialector.Name() == "sqlite" {
		folded = asciiLower(query)
	}
	searchTerm := "%" + escapeLike(folded) + "%"

	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "username", "email").
		Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\') AND id <> ?`, searchTerm, searchTerm, excludeID).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// escapeLike 转义 LIKE 通配符，用户输入按字面匹配。
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
