package models

// CategoryName is one of the in-game roles a post advertises for.
type CategoryName string

const (
	CategoryTanks          CategoryName = "tanks"
	CategoryHeals          CategoryName = "heals"
	CategoryDD             CategoryName = "dd"
	CategoryTraders        CategoryName = "traders"
	CategoryGuildmasters   CategoryName = "guildmasters"
	CategoryQuestgivers    CategoryName = "questgivers"
	CategoryBlacksmiths    CategoryName = "blacksmiths"
	CategoryLeatherworkers CategoryName = "leatherworkers"
	CategoryAlchemists     CategoryName = "alchemists"
	CategorySpellcasters   CategoryName = "spellcasters"
)

// AllCategories is the fixed category set seeded at boot.
var AllCategories = []CategoryName{
	CategoryTanks, CategoryHeals, CategoryDD, CategoryTraders,
	CategoryGuildmasters, CategoryQuestgivers, CategoryBlacksmiths,
	CategoryLeatherworkers, CategoryAlchemists, CategorySpellcasters,
}

type Category struct {
	BaseModel
	Name        CategoryName `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
	Description string       `json:"description"`
}

type PostStatus string

const (
	PostStatusActive PostStatus = "active"
	PostStatusClosed PostStatus = "closed"
	PostStatusDraft  PostStatus = "draft"
)

type Post struct {
	BaseModel
	Title      string     `gorm:"size:200;not null" json:"title"`
	Content    string     `gorm:"not null" json:"content"`
	AuthorID   string     `gorm:"type:uuid;not null;index" json:"author_id"`
	CategoryID string     `gorm:"type:uuid;not null;index" json:"category_id"`
	Status     PostStatus `gorm:"type:varchar(10);default:'active'" json:"status"`

	Author   *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

type ResponseStatus string

const (
	ResponseStatusPending  ResponseStatus = "pending"
	ResponseStatusAccepted ResponseStatus = "accepted"
	ResponseStatusRejected ResponseStatus = "rejected"
)

// Response is a user's offer on a post. One response per (post, author).
type Response struct {
	BaseModel
	PostID   string         `gorm:"type:uuid;not null;index;uniqueIndex:idx_responses_post_author" json:"post_id"`
	AuthorID string         `gorm:"type:uuid;not null;uniqueIndex:idx_responses_post_author" json:"author_id"`
	Content  string         `gorm:"not null" json:"content"`
	Status   ResponseStatus `gorm:"type:varchar(10);default:'pending'" json:"status"`

	Post   *Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
