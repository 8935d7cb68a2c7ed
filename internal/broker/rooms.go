package broker

import "github.com/servora/realtime/internal/auth"

// AdminRoom is the fixed room every connected admin joins.
const AdminRoom = "admin-room"

// UserRoom returns the personal room key for a customer.
func UserRoom(userID string) string {
	return "user-" + userID
}

// ProviderRoom returns the personal room key for a provider.
func ProviderRoom(providerID string) string {
	return "provider-" + providerID
}

// ChatRoom returns the room key for one conversation. Chat rooms are joined
// explicitly by clients, never automatically.
func ChatRoom(chatID string) string {
	return "chat-" + chatID
}

// RoleRoom maps a role and user id to the canonical room the role auto-joins.
// The id is opaque; the broker performs no id translation.
func RoleRoom(role auth.Role, userID string) (string, bool) {
	switch role {
	case auth.RoleCustomer:
		return UserRoom(userID), true
	case auth.RoleProvider:
		return ProviderRoom(userID), true
	case auth.RoleAdmin:
		return AdminRoom, true
	default:
		return "", false
	}
}
