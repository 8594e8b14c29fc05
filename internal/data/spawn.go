package data

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnArea defines a region that seeds a number of mobs of one archetype.
type SpawnArea struct {
	Archetype   string  `yaml:"archetype"`
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Z           float64 `yaml:"z"`
	Radius      float64 `yaml:"radius"`
	Count       int     `yaml:"count"`
	RespawnSecs int     `yaml:"respawn_secs"` // 0 = archetype/global default
}

// SpawnPoint is one generated spawn position. Immutable once generated: it
// seeds the initial mob and every respawn, and is never mutated during play.
type SpawnPoint struct {
	Archetype   string
	X           float64
	Y           float64
	Z           float64
	RespawnSecs int
}

type spawnListFile struct {
	Areas []SpawnArea `yaml:"areas"`
}

// LoadSpawnAreas loads spawn area definitions from a YAML file.
func LoadSpawnAreas(path string) ([]SpawnArea, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	return f.Areas, nil
}

// GenerateSpawnPoints expands area definitions into concrete spawn points,
// scattering Count positions uniformly over each area's disc. Height is
// taken from the area center; terrain snapping is the host's concern.
func GenerateSpawnPoints(areas []SpawnArea, rng *rand.Rand) []SpawnPoint {
	var points []SpawnPoint
	for _, area := range areas {
		for i := 0; i < area.Count; i++ {
			angle := rng.Float64() * 2 * math.Pi
			// sqrt keeps the distribution uniform over the disc area
			r := area.Radius * math.Sqrt(rng.Float64())
			points = append(points, SpawnPoint{
				Archetype:   area.Archetype,
				X:           area.X + r*math.Cos(angle),
				Y:           area.Y,
				Z:           area.Z + r*math.Sin(angle),
				RespawnSecs: area.RespawnSecs,
			})
		}
	}
	return points
}
