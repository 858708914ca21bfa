package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Insert adds the grant, ignoring the write when the user already
	// holds access to the listing. The returned bool reports whether a
	// new row was created.
	Insert(ctx context.Context, tx *gorm.DB, grant *Grant) (bool, error)
	Exists(ctx context.Context, tx *gorm.DB, userID, listingID snowflake.ID) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID snowflake.ID) ([]Grant, error)
	// ListLibraryByUser joins grants with their listings for the
	// buyer-facing library view.
	ListLibraryByUser(ctx context.Context, tx *gorm.DB, userID snowflake.ID) ([]LibraryItem, error)
}
