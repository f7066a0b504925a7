package model

import "time"

type Profile struct {
	ID           string       `json:"id"`
	OwnerName    string       `json:"owner_name"`
	Verified     bool         `json:"verified"`
	Location     *Location    `json:"location,omitempty"`
	Pets         []Pet        `json:"pets"`
	SwipeHistory []SwipeEntry `json:"swipe_history"`
	Matches      []MatchEntry `json:"matches"`
	LastActiveAt time.Time    `json:"last_active_at"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (p Profile) HasLocation() bool {
	return p.Location != nil && p.Location.Valid()
}

func (p Profile) ActivePets() []Pet {
	out := make([]Pet, 0, len(p.Pets))
	for _, pet := range p.Pets {
		if pet.Active {
			out = append(out, pet)
		}
	}
	return out
}

// HasImage reports whether any active pet carries at least one image.
func (p Profile) HasImage() bool {
	for _, pet := range p.Pets {
		if pet.Active && len(pet.Images) > 0 {
			return true
		}
	}
	return false
}

func (p Profile) PrimaryImage() string {
	for _, pet := range p.Pets {
		if pet.Active && len(pet.Images) > 0 {
			return pet.Images[0]
		}
	}
	return ""
}

// SwipedIDs returns every profile id the profile has ever swiped on.
func (p Profile) SwipedIDs() []string {
	seen := make(map[string]struct{}, len(p.SwipeHistory))
	out := make([]string, 0, len(p.SwipeHistory))
	for _, entry := range p.SwipeHistory {
		if entry.TargetID == "" {
			continue
		}
		if _, ok := seen[entry.TargetID]; ok {
			continue
		}
		seen[entry.TargetID] = struct{}{}
		out = append(out, entry.TargetID)
	}
	return out
}

func (p Profile) ActiveMatchTo(targetID string) (MatchEntry, bool) {
	for _, m := range p.Matches {
		if m.Active && m.MatchedProfileID == targetID {
			return m, true
		}
	}
	return MatchEntry{}, false
}

func (p Profile) ActiveMatches() []MatchEntry {
	out := make([]MatchEntry, 0, len(p.Matches))
	for _, m := range p.Matches {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}
