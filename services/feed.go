package services

import (
	"gorm.io/gorm"

	"github.com/Monark-Arkmon/FitCheck/models"
	"github.com/Monark-Arkmon/FitCheck/utils"
)

// FeedPublisher mirrors public check-ins into the read-optimized feed. The
// feed is a one-way projection: publish failures never roll back the
// check-in write, and the engine never reads the feed back.
type FeedPublisher interface {
	Publish(item *models.FeedItem) error
	Remove(checkInID uint) error
}

// DBFeedPublisher stores feed items in the feed_items table.
type DBFeedPublisher struct {
	db *gorm.DB
}

// NewDBFeedPublisher creates a database-backed feed publisher.
func NewDBFeedPublisher(db *gorm.DB) *DBFeedPublisher {
	return &DBFeedPublisher{db: db}
}

// Publish inserts the denormalized copy and drops cached feed pages.
func (f *DBFeedPublisher) Publish(item *models.FeedItem) error {
	if err := f.db.Create(item).Error; err != nil {
		return err
	}
	utils.InvalidateByPrefix("cache:feed:")
	return nil
}

// Remove deletes the projection rows for a check-in.
func (f *DBFeedPublisher) Remove(checkInID uint) error {
	if err := f.db.Where("check_in_id = ?", checkInID).Delete(&models.FeedItem{}).Error; err != nil {
		return err
	}
	utils.InvalidateByPrefix("cache:feed:")
	return nil
}
