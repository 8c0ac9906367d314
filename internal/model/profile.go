package model

// 亲密度级别，控制系统提示词的语气模式。
const (
	IntimacyNormal   = "normal"
	IntimacyExplicit = "explicit"
)

// CharacterProfile 代表一个用户创建的聊天角色。
type CharacterProfile struct {
	ID            string   `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt     int64    `gorm:"autoCreateTime:milli" json:"createdAt"`
	Name          string   `gorm:"size:64;not null" json:"name"`
	Relationship  string   `gorm:"size:64" json:"relationship"`
	Traits        string   `gorm:"type:text" json:"traits"`
	ThemeID       string   `gorm:"size:32" json:"themeId"`
	VisualPrompt  string   `gorm:"type:text" json:"visualPrompt,omitempty"`
	AvatarURL     string   `gorm:"type:text" json:"avatarUrl,omitempty"`
	IntimacyLevel string   `gorm:"size:16;default:normal" json:"intimacyLevel"`
	Tags          []string `gorm:"serializer:json" json:"tags,omitempty"`
}

func (CharacterProfile) TableName() string {
	return "character_profiles"
}

// UserProfile 代表本机用户的个人资料。
type UserProfile struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Name      string   `gorm:"size:64;not null" json:"name"`
	AvatarURL string   `gorm:"type:text" json:"avatarUrl"`
	Interests []string `gorm:"serializer:json" json:"interests,omitempty"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
