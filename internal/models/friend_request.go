package models

import "time"

// FriendRequestStatus 定义好友请求的状态
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusRejected FriendRequestStatus = "rejected"
)

// IsResolution reports whether s is a status a receiver may move a pending request to.
func (s FriendRequestStatus) IsResolution() bool {
	return s == FriendRequestStatusAccepted || s == FriendRequestStatusRejected
}

// FriendRequest 代表一个好友请求记录。
// 一旦离开 pending 状态就不再变化。
type FriendRequest struct {
	BaseModel
	SenderID   string              `gorm:"type:varchar(36);not null;index" json:"senderId"`
	ReceiverID string              `gorm:"type:varchar(36);not null;index" json:"receiverId"`
	Status     FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// PairKey 是无序用户对的规范化表示。部分唯一索引保证同一对用户最多一条 pending 请求。
	PairKey string `gorm:"type:varchar(80);not null;uniqueIndex:idx_friend_requests_pending_pair,where:status = 'pending'" json:"-"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"-"`
}

// TableName 指定 FriendRequest 模型的表名。
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// PairKeyFor returns the canonical key of the unordered pair {a, b}.
func PairKeyFor(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// FriendRequestView 是列表接口返回的结构，sender 或 receiver 只出现其一。
type FriendRequestView struct {
	ID        string              `json:"id"`
	Status    FriendRequestStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	Sender    *UserBasicInfo      `json:"sender,omitempty"`
	Receiver  *UserBasicInfo      `json:"receiver,omitempty"`
}
