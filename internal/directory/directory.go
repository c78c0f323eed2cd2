package directory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// WorkingHours is a daily wall-clock window in HH:MM form.
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Preferences holds a user's scheduling preferences. Zero values mean "no
// preference": an empty working-days list places no restriction.
type Preferences struct {
	WorkingDays    []string     `json:"working_days"`
	WorkingHours   WorkingHours `json:"working_hours"`
	VacationDates  []string     `json:"vacation_dates"` // YYYY-MM-DD
	WorkOnHolidays bool         `json:"work_on_holidays"`
}

// User is one roster entry.
type User struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Teams       []string    `json:"teams"`
	Country     string      `json:"country"`
	Timezone    string      `json:"timezone"`
	Preferences Preferences `json:"preferences"`
}

// Facility is one bookable room.
type Facility struct {
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity"`
	Amenities []string `json:"amenities"`
}

// Store provides read-only lookups over the team roster and the facility
// directory. Both are loaded once; a Store is safe for concurrent use.
type Store struct {
	users      []User
	facilities []Facility
}

type usersFile struct {
	Users []User `json:"users"`
}

// Load reads the roster and facility files. Either path may be empty, which
// yields an empty directory for that side; a present-but-broken file is an
// error since it means the deployment is misconfigured.
func Load(usersPath, facilitiesPath string) (*Store, error) {
	s := &Store{}

	if usersPath != "" {
		data, err := os.ReadFile(usersPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read users file: %w", err)
		}
		// Accept either {"users": [...]} or a bare list.
		var wrapped usersFile
		if err := json.Unmarshal(data, &wrapped); err == nil {
			s.users = wrapped.Users
		} else if err := json.Unmarshal(data, &s.users); err != nil {
			return nil, fmt.Errorf("failed to parse users file: %w", err)
		}
	}

	if facilitiesPath != "" {
		data, err := os.ReadFile(facilitiesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read facilities file: %w", err)
		}
		if err := json.Unmarshal(data, &s.facilities); err != nil {
			return nil, fmt.Errorf("failed to parse facilities file: %w", err)
		}
	}

	return s, nil
}

// NewStore builds a Store from already-loaded entries, used by tests.
func NewStore(users []User, facilities []Facility) *Store {
	return &Store{users: users, facilities: facilities}
}

// TeamMembers returns the email addresses of everyone on the named team.
// Team names match case-insensitively.
func (s *Store) TeamMembers(team string) []string {
	var emails []string
	for _, u := range s.users {
		for _, t := range u.Teams {
			if strings.EqualFold(t, team) {
				emails = append(emails, u.Email)
				break
			}
		}
	}
	return emails
}

// UserDetails looks up a user by email address or username,
// case-insensitively. The second return value reports whether the user was
// found.
func (s *Store) UserDetails(emailOrName string) (User, bool) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, emailOrName) || strings.EqualFold(u.Username, emailOrName) {
			return u, true
		}
	}
	return User{}, false
}

// FindFacilities returns facilities with at least the given capacity that
// carry every required amenity. Zero capacity and an empty amenity list
// match everything.
func (s *Store) FindFacilities(capacity int, amenities []string) []Facility {
	var matches []Facility
	for _, f := range s.facilities {
		if capacity > 0 && f.Capacity < capacity {
			continue
		}
		if !hasAllAmenities(f.Amenities, amenities) {
			continue
		}
		matches = append(matches, f)
	}
	return matches
}

// FacilityInfo looks up a facility by name, case-insensitively.
func (s *Store) FacilityInfo(name string) (Facility, bool) {
	for _, f := range s.facilities {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Facility{}, false
}

func hasAllAmenities(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
