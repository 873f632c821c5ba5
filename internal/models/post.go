package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Keys of the raw post record that are backed by their own columns.
// Anything else supplied at creation lands in Post.Extra.
var ReservedPostFields = map[string]struct{}{
	"id":               {},
	"title":            {},
	"content":          {},
	"thumbnail_url":    {},
	"thumbnail_base64": {},
	"author":           {},
	"category":         {},
	"created_at":       {},
}

type Post struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Title        string         `json:"title" gorm:"not null"`
	Content      string         `json:"content" gorm:"type:text;not null"`
	ThumbnailKey string         `json:"-"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	AuthorName   string         `json:"-"`
	AuthorID     *uuid.UUID     `json:"-" gorm:"type:uuid;index"`
	AuthorUser   *User          `json:"-" gorm:"foreignKey:AuthorID"`
	Category     string         `json:"category,omitempty"`
	CreatedAtRaw string         `json:"created_at,omitempty" gorm:"column:created_at"` // as supplied; parsed on read
	Extra        map[string]any `json:"-" gorm:"type:text;serializer:json"`
	StoredAt     time.Time      `json:"-" gorm:"autoCreateTime;index"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AuthorRef is either a free-text Name or a reference to a registered user.
// Exactly one of the two is set.
type AuthorRef struct {
	Name   string
	UserID *uuid.UUID
}

func NameRef(name string) AuthorRef {
	return AuthorRef{Name: name}
}

func UserRef(id uuid.UUID) AuthorRef {
	return AuthorRef{UserID: &id}
}

func (r AuthorRef) IsUser() bool {
	return r.UserID != nil
}

func (p *Post) SetAuthor(ref AuthorRef) {
	if ref.IsUser() {
		p.AuthorID = ref.UserID
		p.AuthorName = ""
		return
	}
	p.AuthorID = nil
	p.AuthorName = ref.Name
}

func (p *Post) Author() AuthorRef {
	if p.AuthorID != nil {
		return AuthorRef{UserID: p.AuthorID}
	}
	return AuthorRef{Name: p.AuthorName}
}

// Raw flattens the stored post into the loosely typed record that is handed
// to normalization. Column-backed fields win over keys kept in Extra.
func (p *Post) Raw() map[string]any {
	raw := make(map[string]any, len(p.Extra)+8)
	for k, v := range p.Extra {
		raw[k] = v
	}

	raw["id"] = p.ID.String()
	raw["title"] = p.Title
	raw["content"] = p.Content
	if p.ThumbnailURL != "" {
		raw["thumbnail_url"] = p.ThumbnailURL
	}
	if p.Category != "" {
		raw["category"] = p.Category
	}
	if p.CreatedAtRaw != "" {
		raw["created_at"] = p.CreatedAtRaw
	}

	switch {
	case p.AuthorID != nil:
		ref := map[string]any{"id": p.AuthorID.String()}
		if p.AuthorUser != nil {
			ref["name"] = p.AuthorUser.Name
			ref["email"] = p.AuthorUser.Email
		}
		raw["author"] = ref
	case p.AuthorName != "":
		raw["author"] = p.AuthorName
	}
	return raw
}
