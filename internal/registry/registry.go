// Package registry enumerates the simulated fleet: equipment identities, static
// location metadata, and the immutable degradation schedule threaded into the
// simulator.
package registry

import (
	"math/rand"

	gserr "github.com/gridguardian/gridsim/pkg/errors"
	"github.com/gridguardian/gridsim/pkg/models"
)

// substationSite is the static metadata for one substation.
type substationSite struct {
	Name         string
	Region       string
	Latitude     float64
	Longitude    float64
	VoltageClass int
}

// Ten reference sites across distinct climate regions. Fleets larger than the
// table cycle through it with a small coordinate offset per pass.
var substationSites = []substationSite{
	{"Podolsk", "Moscow Oblast", 55.424, 37.547, 110},
	{"Tula", "Tula Oblast", 54.193, 37.618, 110},
	{"Krasnodar", "Krasnodar Krai", 45.035, 38.975, 110},
	{"Rostov-on-Don", "Rostov Oblast", 47.222, 39.720, 220},
	{"Kazan", "Tatarstan", 55.796, 49.108, 220},
	{"Nizhny Novgorod", "Nizhny Novgorod Oblast", 56.326, 44.006, 110},
	{"Novosibirsk", "Novosibirsk Oblast", 55.030, 82.920, 110},
	{"Krasnoyarsk", "Krasnoyarsk Krai", 56.010, 92.852, 220},
	{"Saint Petersburg", "Leningrad Oblast", 59.939, 30.316, 220},
	{"Murmansk", "Murmansk Oblast", 68.970, 33.075, 110},
}

// Registry holds the fleet enumeration. Immutable once built.
type Registry struct {
	units []models.EquipmentUnit
	byID  map[string]int
}

// Build enumerates substations x equipment slots deterministically from the
// seed. Unit metadata (exact coordinates, capacity, install year) is drawn from
// a registry-local RNG so the same seed always yields the same fleet.
func Build(substations, perSubstation int, seed int64) (*Registry, error) {
	if substations <= 0 || perSubstation <= 0 {
		return nil, gserr.NewConfigurationError("fleet", "need positive substation and equipment counts, got %d x %d", substations, perSubstation)
	}

	rng := rand.New(rand.NewSource(seed))
	r := &Registry{
		units: make([]models.EquipmentUnit, 0, substations*perSubstation),
		byID:  make(map[string]int, substations*perSubstation),
	}

	for sub := 1; sub <= substations; sub++ {
		site := substationSites[(sub-1)%len(substationSites)]
		// Fleets beyond the site table reuse sites shifted north-east.
		pass := float64((sub - 1) / len(substationSites))
		subID := models.EquipmentID(sub, 0)[:6] // "SUBnnn"

		for slot := 1; slot <= perSubstation; slot++ {
			u := models.EquipmentUnit{
				ID:               models.EquipmentID(sub, slot),
				SubstationID:     subID,
				SubstationName:   site.Name,
				Region:           site.Region,
				Slot:             slot,
				Latitude:         site.Latitude + pass*0.05 + rng.Float64()*0.002 - 0.001,
				Longitude:        site.Longitude + pass*0.05 + rng.Float64()*0.002 - 0.001,
				VoltageClassKV:   site.VoltageClass,
				InstallationYear: 1990 + rng.Intn(33),
			}
			u.Type, u.CapacityMW = equipmentForSlot(slot, perSubstation, rng)
			r.byID[u.ID] = len(r.units)
			r.units = append(r.units, u)
		}
	}
	return r, nil
}

// equipmentForSlot assigns hardware type and capacity by slot position: the
// first third of a substation's slots are power transformers, then distribution
// transformers, then breakers, with regulators in the tail.
func equipmentForSlot(slot, perSubstation int, rng *rand.Rand) (models.EquipmentType, float64) {
	tier := (slot - 1) * 10 / perSubstation
	switch {
	case tier < 3:
		return models.TypePowerTransformer, pick(rng, 50, 100, 150, 200)
	case tier < 6:
		return models.TypeDistributionTransformer, pick(rng, 10, 25, 50)
	case tier < 8:
		return models.TypeCircuitBreaker, pick(rng, 100, 150, 200)
	default:
		return models.TypeVoltageRegulator, pick(rng, 50, 75, 100)
	}
}

func pick(rng *rand.Rand, choices ...float64) float64 {
	return choices[rng.Intn(len(choices))]
}

// Units returns the fleet in ascending equipment-ID order.
func (r *Registry) Units() []models.EquipmentUnit {
	return r.units
}

// Len returns the fleet cardinality.
func (r *Registry) Len() int {
	return len(r.units)
}

// Lookup returns the unit for an equipment ID.
func (r *Registry) Lookup(id string) (models.EquipmentUnit, bool) {
	i, ok := r.byID[id]
	if !ok {
		return models.EquipmentUnit{}, false
	}
	return r.units[i], true
}

// Index returns the ordinal of an equipment ID within the registry, or -1 when
// the identity is unknown. Ordinals are the one-hot positions used by the
// feature engine.
func (r *Registry) Index(id string) int {
	i, ok := r.byID[id]
	if !ok {
		return -1
	}
	return i
}
