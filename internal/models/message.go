package models

// Message 代表存储在数据库中的一对一聊天消息。
type Message struct {
	BaseModel
	SenderID   string `gorm:"type:varchar(36);not null;index:idx_messages_pair" json:"senderId"`
	ReceiverID string `gorm:"type:varchar(36);not null;index:idx_messages_pair" json:"receiverId"`
	Content    string `gorm:"type:text;not null" json:"content"`
	Read       bool   `gorm:"not null;default:false" json:"read"`

	// 关联关系，只预加载 id 和 username
	Sender   *UserRef `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *UserRef `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

// TableName 指定 Message 模型的表名。
func (Message) TableName() string {
	return "messages"
}

// UserRef 是 users 表的只读投影，用于消息里携带对方用户名。
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// TableName 让 UserRef 读取 users 表。
func (UserRef) TableName() string {
	return "users"
}
