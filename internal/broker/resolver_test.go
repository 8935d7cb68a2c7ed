package broker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/servora/realtime/internal/auth"
	"github.com/servora/realtime/pkg/logger"
)

func TestAutoJoinRuleTable(t *testing.T) {
	cases := []struct {
		name   string
		role   auth.Role
		userID string
		rooms  []string
	}{
		{"customer", auth.RoleCustomer, "c7", []string{"user-c7"}},
		{"provider", auth.RoleProvider, "p3", []string{"provider-p3"}},
		{"admin", auth.RoleAdmin, "a1", []string{"admin-room"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			manager, registry := newTestManager()
			resolver := NewResolver(registry, logger.NewLogger("error"))

			conn := acceptTestConn(manager, tc.userID, tc.role)
			joined := resolver.Apply(conn)

			// Exactly the table: no more, no fewer.
			require.Equal(t, tc.rooms, joined)
			require.ElementsMatch(t, tc.rooms, conn.Rooms())
			for _, room := range tc.rooms {
				require.Len(t, registry.MembersOf(room), 1)
			}
		})
	}
}

func TestExplicitJoinUnrestrictedByRole(t *testing.T) {
	manager, registry := newTestManager()
	resolver := NewResolver(registry, logger.NewLogger("error"))

	// An admin console may watch a provider's room; the broker does not
	// authorize room content, only membership.
	admin := acceptTestConn(manager, "a1", auth.RoleAdmin)
	resolver.Apply(admin)
	resolver.Join(admin, ProviderRoom("p9"))
	resolver.Join(admin, ChatRoom("55"))

	require.ElementsMatch(t, []string{AdminRoom, "provider-p9", "chat-55"}, admin.Rooms())

	resolver.Leave(admin, ChatRoom("55"))
	require.ElementsMatch(t, []string{AdminRoom, "provider-p9"}, admin.Rooms())
}

func TestRoleRoomKeys(t *testing.T) {
	require.Equal(t, "user-42", UserRoom("42"))
	require.Equal(t, "provider-42", ProviderRoom("42"))
	require.Equal(t, "chat-42", ChatRoom("42"))

	room, ok := RoleRoom(auth.RoleAdmin, "ignored")
	require.True(t, ok)
	require.Equal(t, AdminRoom, room)

	_, ok = RoleRoom(auth.Role("BOGUS"), "x")
	require.False(t, ok)
}
