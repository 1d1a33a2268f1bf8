package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/users"
)

func TestMerge(t *testing.T) {
	t.Run("over wins on conflicts, base fills gaps", func(t *testing.T) {
		base := &users.User{FirstName: "A", Email: "a@x.com", PlaceOfBirth: "Tunis"}
		over := &users.User{FirstName: "B", IsVerified: true}
		merged := users.Merge(base, over)
		require.Equal(t, "B", merged.FirstName)
		require.Equal(t, "a@x.com", merged.Email)
		require.Equal(t, "Tunis", merged.PlaceOfBirth)
		require.True(t, merged.IsVerified)
	})

	t.Run("nil over copies base", func(t *testing.T) {
		base := &users.User{Email: "a@x.com"}
		merged := users.Merge(base, nil)
		require.Equal(t, base.Email, merged.Email)
		merged.Email = "changed"
		require.Equal(t, "a@x.com", base.Email)
	})

	t.Run("nil base copies over", func(t *testing.T) {
		merged := users.Merge(nil, &users.User{ID: "u1"})
		require.Equal(t, "u1", merged.ID)
	})

	t.Run("both nil", func(t *testing.T) {
		require.Nil(t, users.Merge(nil, nil))
	})
}

func TestValid(t *testing.T) {
	require.False(t, (*users.User)(nil).Valid())
	require.False(t, (&users.User{DateOfBirth: "1990-01-01"}).Valid())
	require.True(t, (&users.User{Email: "a@x.com"}).Valid())
	require.True(t, (&users.User{LastName: "Doe"}).Valid())
}

func TestFullName(t *testing.T) {
	require.Equal(t, "John Doe", (&users.User{FirstName: "John", LastName: "Doe"}).FullName())
	require.Equal(t, "John", (&users.User{FirstName: "John"}).FullName())
	require.Equal(t, "", (&users.User{}).FullName())
}
