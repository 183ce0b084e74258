package database

import (
	"time"
)

// ListOptions filters and paginates owner-scoped listings.
type ListOptions struct {
	UserPhone  string
	Platform   string
	Category   string
	Collection string
	Limit      int
	Offset     int
}

// UpdateFields carries partial updates; nil pointers leave columns untouched.
type UpdateFields struct {
	Title      *string
	Caption    *string
	ImageURL   *string
	Category   *string
	Summary    *string
	Tags       []string
	Collection *string
}

type ContentRepository interface {
	Insert(content SavedContent) (int64, error)
	GetByID(id int64) (*SavedContent, error)
	GetByURLAndUser(url, userPhone string) (*SavedContent, error)
	List(opts ListOptions) ([]SavedContent, error)
	Search(userPhone string, tokens []string, limit int) ([]SavedContent, error)
	Update(id int64, fields UpdateFields) (bool, error)
	Delete(id int64) (bool, error)

	GetRelated(userPhone, category string, excludeID int64, limit int) ([]SavedContent, error)
	GetRandom(userPhone string, categories []string, limit int) ([]SavedContent, error)

	SaveDates(userPhone string) ([]time.Time, error)
	CountSince(userPhone string, since time.Time) (int, error)
	CategoryCountsSince(userPhone string, since time.Time) (map[string]int, error)

	DistinctUsers() ([]string, error)
	DistinctCategories() ([]string, error)
	DistinctPlatforms() ([]string, error)
	GetStats() (*Stats, error)
	DailySaveCounts(days int) (map[string]int, error)
}

type CollectionRepository interface {
	List() ([]Collection, error)
	Create(name string) (*Collection, error)
	Delete(name string) (bool, error)
	Assign(contentID int64, name string) (bool, error)
}
