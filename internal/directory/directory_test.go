package directory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *Store {
	return NewStore(
		[]User{
			{Username: "User A", Email: "a@example.com", Teams: []string{"TeamA"}},
			{Username: "User B", Email: "b@example.com", Teams: []string{"TeamA", "TeamB"}},
			{Username: "User C", Email: "c@example.com", Teams: []string{"TeamB"}, Country: "Singapore"},
		},
		[]Facility{
			{Name: "Room 1", Capacity: 5, Amenities: []string{"Projector", "Whiteboard"}},
			{Name: "Room 2", Capacity: 10, Amenities: []string{"Video Conf"}},
			{Name: "Room 3", Capacity: 2, Amenities: []string{"Whiteboard"}},
		},
	)
}

func TestTeamMembers(t *testing.T) {
	s := testStore()

	teamA := s.TeamMembers("TeamA")
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, teamA)

	teamB := s.TeamMembers("teamb") // case-insensitive
	assert.ElementsMatch(t, []string{"b@example.com", "c@example.com"}, teamB)

	assert.Empty(t, s.TeamMembers("TeamC"))
}

func TestUserDetails(t *testing.T) {
	s := testStore()

	u, ok := s.UserDetails("c@example.com")
	require.True(t, ok)
	assert.Equal(t, "Singapore", u.Country)

	u, ok = s.UserDetails("user a") // by username, case-insensitive
	require.True(t, ok)
	assert.Equal(t, "a@example.com", u.Email)

	_, ok = s.UserDetails("nobody@example.com")
	assert.False(t, ok)
}

func TestFindFacilities(t *testing.T) {
	s := testStore()

	byCapacity := s.FindFacilities(5, nil)
	assert.Len(t, byCapacity, 2)

	byAmenity := s.FindFacilities(0, []string{"whiteboard"})
	assert.Len(t, byAmenity, 2)

	both := s.FindFacilities(3, []string{"Projector", "Whiteboard"})
	require.Len(t, both, 1)
	assert.Equal(t, "Room 1", both[0].Name)

	assert.Empty(t, s.FindFacilities(100, nil))
}

func TestFacilityInfo(t *testing.T) {
	s := testStore()

	f, ok := s.FacilityInfo("room 2")
	require.True(t, ok)
	assert.Equal(t, 10, f.Capacity)

	_, ok = s.FacilityInfo("Broom Closet")
	assert.False(t, ok)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()

	usersPath := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(usersPath, []byte(`{
		"users": [
			{"username": "User A", "email": "a@example.com", "teams": ["TeamA"],
			 "preferences": {"working_days": ["Monday"], "working_hours": {"start": "09:00", "end": "17:00"}}}
		]
	}`), 0o644))

	facilitiesPath := filepath.Join(dir, "facilities.json")
	require.NoError(t, os.WriteFile(facilitiesPath, []byte(`[
		{"name": "Room 1", "capacity": 5, "amenities": ["Projector"]}
	]`), 0o644))

	s, err := Load(usersPath, facilitiesPath)
	require.NoError(t, err)

	u, ok := s.UserDetails("a@example.com")
	require.True(t, ok)
	assert.Equal(t, []string{"Monday"}, u.Preferences.WorkingDays)
	assert.Equal(t, "09:00", u.Preferences.WorkingHours.Start)

	_, ok = s.FacilityInfo("Room 1")
	assert.True(t, ok)
}

func TestLoadBareUserList(t *testing.T) {
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(usersPath, []byte(`[
		{"username": "User A", "email": "a@example.com"}
	]`), 0o644))

	s, err := Load(usersPath, "")
	require.NoError(t, err)
	_, ok := s.UserDetails("a@example.com")
	assert.True(t, ok)
}

func TestLoadMissingPathsAreEmpty(t *testing.T) {
	s, err := Load("", "")
	require.NoError(t, err)
	assert.Empty(t, s.TeamMembers("TeamA"))
	assert.Empty(t, s.FindFacilities(0, nil))
}

func TestLoadMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(usersPath, []byte(`{not json`), 0o644))

	_, err := Load(usersPath, "")
	assert.Error(t, err)
}
