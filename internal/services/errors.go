package services

import "socialchat/internal/apperr"

// 业务错误。handler 通过 apperr.Write 把它们渲染成 {message, details}。
var (
	ErrRegisterMissingFields = apperr.Validation("MissingFields", "Missing required fields", "Username, email, and password are required")
	ErrLoginMissingFields    = apperr.Validation("MissingFields", "Missing required fields", "Email and password are required")
	ErrInvalidEmail          = apperr.Validation("InvalidEmail", "Invalid email format", "Please provide a valid email address")
	ErrInvalidUsername       = apperr.Validation("InvalidUsername", "Invalid username", "Username must be at least 3 characters long")
	ErrInvalidPassword       = apperr.Validation("InvalidPassword", "Invalid password", "Password must be at least 6 characters long")
	ErrPasswordTooLong       = apperr.Validation("PasswordTooLong", "Invalid password", "Password must be at most 72 bytes long")
	ErrUserExists            = apperr.Conflict("UserExists", "User already exists", "Email or username is already taken")
	ErrInvalidCredentials    = apperr.Auth("InvalidCredentials", "Invalid credentials", "Email or password is incorrect")

	ErrQueryTooShort   = apperr.Validation("QueryTooShort", "Invalid search query", "Search query must be at least 2 characters long")
	ErrEmptyUpdate     = apperr.Validation("EmptyUpdate", "Invalid update", "At least one field (username or email) must be provided")
	ErrProfileNotFound = apperr.NotFound("ProfileNotFound", "Profile not found", "User profile does not exist")

	ErrMissingReceiver    = apperr.Validation("MissingReceiver", "Missing required field", "receiverId is required")
	ErrSelfRequest        = apperr.Conflict("SelfRequest", "Invalid request", "Cannot send friend request to yourself")
	ErrReceiverNotFound   = apperr.NotFound("UserNotFound", "User not found", "The receiver does not exist")
	ErrAlreadyFriends     = apperr.Conflict("AlreadyFriends", "Invalid request", "Users are already friends")
	ErrDuplicateRequest   = apperr.Conflict("DuplicateRequest", "Request already exists", "A pending friend request already exists between these users")
	ErrInvalidStatus      = apperr.Validation("InvalidStatus", "Invalid status", `Status must be either "accepted" or "rejected"`)
	ErrRequestNotFound    = apperr.NotFound("NotFound", "Request not found", "Friend request not found or already processed")
	ErrMessageFields      = apperr.Validation("MissingMessageFields", "Missing required fields", "receiverId and content are required")
	ErrMissingCounterpart = apperr.Validation("MissingCounterpart", "Missing required field", "friendId is required")
)
