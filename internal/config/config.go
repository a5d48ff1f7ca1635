// Package config loads bot configuration through viper. Settings come from
// defaults, an optional JSON config file and MODBOT_-prefixed environment
// variables, in increasing priority.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/shop-replace/modbot/internal/model"
)

// Load reads configuration from the JSON file in configDir and sets default
// values. A missing config file is not fatal; defaults and environment apply.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("discord.token", "")
	viper.SetDefault("discord.guildId", "")

	viper.SetDefault("http.port", "3000")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "modbot")
	viper.SetDefault("db.sqlitePath", "./modbot.db")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "modbot-metrics")
	viper.SetDefault("influx.bucket", "bot_stats")
	viper.SetDefault("influx.interval", "60s")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("bump.interval", "2h")

	viper.SetDefault("tickets.categoryId", "")
	viper.SetDefault("rules.channelId", "")
	viper.SetDefault("rules.roleId", "")
	viper.SetDefault("rules.postPrompt", false)
	viper.SetDefault("membership.cacheTTL", "5m")

	setRegistryDefaults()

	viper.SetEnvPrefix("MODBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("modbot.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setRegistryDefaults seeds the channel registry with the shop's live
// channel ids so a bare deployment serves the existing listings.
func setRegistryDefaults() {
	defaults := map[string]map[string]string{
		model.CategoryWeapon: {
			"AWP MK2":      "1339958173125050422",
			"AWP":          "1339960807630442537",
			"MM":           "1140765599442681876",
			"MM MK2":       "1084882482614251550",
			"M60":          "1339962316489363600",
			"M60 MK2":      "1339962304795771001",
			"CARA SPE MK2": "1339962492494942228",
			"CARA SPE":     "1348367385366761493",
			"RPG":          "1140765568958464044",
			"HOMING":       "1339962232821387367",
		},
		model.CategoryVehicle: {
			"DELUXO": "1084884675090190346",
			"OP":     "1084884747173499010",
			"OP MK2": "1348366117462216724",
			"SCARAB": "1338167326197022750",
		},
		model.CategoryCharacter: {
			"FITNESS": "1348367616103944262",
		},
	}
	for cat, subtypes := range defaults {
		for subtype, id := range subtypes {
			viper.SetDefault("registry."+cat+"."+subtype, id)
		}
	}
}

// RegistryChannels returns the configured category -> subtype -> channel id
// mapping.
func RegistryChannels() map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, cat := range []string{
		model.CategoryWeapon,
		model.CategoryVehicle,
		model.CategoryCharacter,
	} {
		m := viper.GetStringMapString("registry." + cat)
		if len(m) == 0 {
			continue
		}
		// viper lowercases map keys; subtype labels are stored uppercased to
		// match the original channel naming.
		sub := make(map[string]string, len(m))
		for k, v := range m {
			sub[strings.ToUpper(k)] = v
		}
		out[cat] = sub
	}
	return out
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
