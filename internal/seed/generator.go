package seed

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/neopath7/pethoria-matchpage-server/internal/config"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
)

type Config struct {
	Profiles    int
	MaxPets     int
	JitterMiles float64
	Seed        uint64
	Now         time.Time
}

func DefaultConfig() Config {
	return Config{
		Profiles:    200,
		MaxPets:     3,
		JitterMiles: 8,
		Seed:        42,
	}
}

var (
	ownerNames = []string{"Avery", "Jordan", "Riley", "Morgan", "Casey", "Quinn", "Rowan", "Sage", "Emerson", "Harper"}
	petNames   = []string{"Biscuit", "Luna", "Milo", "Pepper", "Otis", "Nala", "Ziggy", "Maple", "Juniper", "Scout"}
	breeds     = map[string][]string{
		"dog":    {"Golden Retriever", "Labrador Retriever", "Border Collie", "Beagle", "Shiba Inu", "Poodle"},
		"cat":    {"Maine Coon", "Siamese", "Bengal", "Ragdoll"},
		"rabbit": {"Holland Lop", "Rex"},
	}
	petTypes = []string{"dog", "dog", "dog", "cat", "cat", "rabbit"}
)

// milesPerDegreeLat is close enough for scattering seed data.
const milesPerDegreeLat = 69.0

// Generate builds deterministic demo profiles scattered around the
// configured cities.
func Generate(cfg Config, cities []config.CityConfig) []model.Profile {
	if cfg.Profiles <= 0 || len(cities) == 0 {
		return nil
	}
	if cfg.MaxPets <= 0 {
		cfg.MaxPets = 1
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	out := make([]model.Profile, 0, cfg.Profiles)
	for i := 0; i < cfg.Profiles; i++ {
		city := cities[i%len(cities)]
		jitter := cfg.JitterMiles / milesPerDegreeLat
		loc := &model.Location{
			Lat:   city.Lat + (rng.Float64()*2-1)*jitter,
			Lon:   city.Lon + (rng.Float64()*2-1)*jitter,
			City:  city.Name,
			State: city.State,
		}

		profile := model.Profile{
			ID:           uuid.NewString(),
			OwnerName:    ownerNames[rng.IntN(len(ownerNames))],
			Verified:     rng.IntN(3) == 0,
			Location:     loc,
			LastActiveAt: cfg.Now.Add(-time.Duration(rng.IntN(45*24)) * time.Hour),
			CreatedAt:    cfg.Now.AddDate(0, -rng.IntN(12)-1, 0),
		}

		pets := 1 + rng.IntN(cfg.MaxPets)
		for j := 0; j < pets; j++ {
			petType := petTypes[rng.IntN(len(petTypes))]
			options := breeds[petType]
			birth := cfg.Now.AddDate(-rng.IntN(14), -rng.IntN(12), 0)
			pet := model.Pet{
				ID:        uuid.NewString(),
				Name:      petNames[rng.IntN(len(petNames))],
				Type:      petType,
				Breed:     options[rng.IntN(len(options))],
				BirthDate: &birth,
				Active:    rng.IntN(10) != 0,
			}
			if rng.IntN(4) != 0 {
				pet.Images = []string{"pets/" + pet.ID + "/1.jpg"}
			}
			profile.Pets = append(profile.Pets, pet)
		}

		out = append(out, profile)
	}
	return out
}
