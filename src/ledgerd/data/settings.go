package data

import (
	"strconv"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/cortexmarket/cortex-ledger/src/ledgerd/types"
)

const repWeightPrefix = "rep_weight_"

var (
	settingsCache map[string]string
	settingsMu    sync.RWMutex
)

// LoadSettings loads all settings from the database into the cache.
func LoadSettings(db *gorm.DB) error {
	var settings []types.Setting
	if err := db.Find(&settings).Error; err != nil {
		return err
	}

	settingsMu.Lock()
	defer settingsMu.Unlock()

	settingsCache = make(map[string]string)
	for _, s := range settings {
		settingsCache[s.Name] = s.Value
	}
	return nil
}

// GetSetting retrieves a setting value by name.
func GetSetting(name string) string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsCache[name]
}

// CategoryWeights extracts the reputation weight table from the settings
// cache: every "rep_weight_<category>" setting becomes one entry. An empty
// result leaves the category set open at weight 1.
func CategoryWeights() map[string]int64 {
	settingsMu.RLock()
	defer settingsMu.RUnlock()

	weights := make(map[string]int64)
	for name, value := range settingsCache {
		if !strings.HasPrefix(name, repWeightPrefix) {
			continue
		}
		w, err := strconv.ParseInt(value, 10, 64)
		if err != nil || w <= 0 {
			continue
		}
		weights[strings.TrimPrefix(name, repWeightPrefix)] = w
	}
	return weights
}

// LoadParticipants returns the addresses granted each capability role.
func LoadParticipants(db *gorm.DB) (updaters, treasury []string, err error) {
	var rows []types.Participant
	if err := db.Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	for _, p := range rows {
		switch p.Role {
		case types.RoleUpdater:
			updaters = append(updaters, p.Address)
		case types.RoleTreasury:
			treasury = append(treasury, p.Address)
		}
	}
	return updaters, treasury, nil
}
