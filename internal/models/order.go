// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	AssetID       uint64     `json:"asset_id" gorm:"not null;index"`
	Seller        uuid.UUID  `json:"seller" gorm:"type:uuid;not null;index"`
	Buyer         *uuid.UUID `json:"buyer,omitempty" gorm:"type:uuid"`
	Kind          OrderKind  `json:"kind" gorm:"type:varchar(20);not null;index"`
	Price         int64      `json:"price" gorm:"not null"`
	StartTime     time.Time  `json:"start_time" gorm:"not null"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Active        bool       `json:"active" gorm:"not null;default:true;index"`
	HighestBid    int64      `json:"highest_bid" gorm:"not null;default:0"`
	HighestBidder *uuid.UUID `json:"highest_bidder,omitempty" gorm:"type:uuid"`

	// Relationships
	Bids []Bid `json:"bids,omitempty" gorm:"foreignKey:OrderID"`
}

// Bid rows are an append-only audit log. Released marks escrow that has
// left the order book again, either refunded to the bidder or consumed
// by settlement; at most one unreleased bid exists per order.
type Bid struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64    `json:"order_id" gorm:"not null;index"`
	Bidder    uuid.UUID `json:"bidder" gorm:"type:uuid;not null;index"`
	Amount    int64     `json:"amount" gorm:"not null"`
	Released  bool      `json:"released" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}
