package repository

import (
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"gorm.io/gorm"
)

// ProfileRepository 定义了角色档案的数据库操作接口。
type ProfileRepository interface {
	Create(profile *model.CharacterProfile) error
	GetByID(id string) (*model.CharacterProfile, error)
	List() ([]model.CharacterProfile, error)
	Update(profile *model.CharacterProfile) error
	UpdateAvatarURL(id, avatarURL string) error
	Delete(id string) error
}

type gormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建一个新的 ProfileRepository 实例。
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &gormProfileRepository{db: db}
}

func (r *gormProfileRepository) Create(profile *model.CharacterProfile) error {
	return r.db.Create(profile).Error
}

func (r *gormProfileRepository) GetByID(id string) (*model.CharacterProfile, error) {
	var profile model.CharacterProfile
	if err := r.db.First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormProfileRepository) List() ([]model.CharacterProfile, error) {
	var profiles []model.CharacterProfile
	if err := r.db.Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *gormProfileRepository) Update(profile *model.CharacterProfile) error {
	return r.db.Save(profile).Error
}

func (r *gormProfileRepository) UpdateAvatarURL(id, avatarURL string) error {
	return r.db.Model(&model.CharacterProfile{}).Where("id = ?", id).
		Update("avatar_url", avatarURL).Error
}

func (r *gormProfileRepository) Delete(id string) error {
	return r.db.Delete(&model.CharacterProfile{}, "id = ?", id).Error
}
