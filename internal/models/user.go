package models

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	BaseModel
	Username     string   `gorm:"uniqueIndex;not null" json:"username"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);default:'user'" json:"role"`
	IsActive     bool     `gorm:"default:true" json:"is_active"`

	Profile *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// UserProfile is created together with the user and carries the two
// delivery preferences the dispatch layer checks.
type UserProfile struct {
	BaseModel
	UserID            string `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio               string `gorm:"size:500" json:"bio"`
	GameCharacterName string `gorm:"size:100" json:"game_character_name"`
	GameLevel         int    `gorm:"default:1" json:"game_level"`
	GameClass         string `gorm:"size:50" json:"game_class"`
	GuildName         string `gorm:"size:100" json:"guild_name"`

	EmailNotifications     bool `gorm:"default:true" json:"email_notifications"`
	NewsletterSubscription bool `gorm:"default:true" json:"newsletter_subscription"`
}
