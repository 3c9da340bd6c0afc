package models

import "time"

// Friendship represents one direction of a friendship edge.
// 每对好友有两行：(A, B) 和 (B, A)，在接受请求的同一事务中写入。
type Friendship struct {
	UserID    string    `gorm:"type:varchar(36);primaryKey" json:"userId"`
	FriendID  string    `gorm:"type:varchar(36);primaryKey;index" json:"friendId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定 Friendship 模型的表名。
func (Friendship) TableName() string {
	return "friends"
}

// FriendshipPair returns both direction rows for the pair {a, b}.
func FriendshipPair(a, b string) []Friendship {
	return []Friendship{
		{UserID: a, FriendID: b},
		{UserID: b, FriendID: a},
	}
}
