package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	MySQLDSN  string
	RedisURL  string
	JWTSecret string
	Port      string

	BaseStakingRequirement uint64
	InfluencerThreshold    int64
	QuorumMinimum          uint64
	MaxVotingDuration      time.Duration
	ReputationWeightFactor uint64
	MaxTags                int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func getuint(key, def string) uint64 {
	v, err := strconv.ParseUint(getenv(key, def), 10, 64)
	if err != nil {
		log.Fatalf("env %s: %v", key, err)
	}
	return v
}

func Load() Config {
	maxDays := getuint("MAX_VOTING_DAYS", "30")
	return Config{
		MySQLDSN:  getenv("MYSQL_DSN", "cortex:cortex@tcp(127.0.0.1:3306)/cortex_ledger?parseTime=true"),
		RedisURL:  getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret: getenv("JWT_SECRET", ""),
		Port:      getenv("PORT", "8080"),

		BaseStakingRequirement: getuint("BASE_STAKING_REQUIREMENT", "1000"),
		InfluencerThreshold:    int64(getuint("INFLUENCER_THRESHOLD", "500")),
		QuorumMinimum:          getuint("QUORUM_MINIMUM", "100"),
		MaxVotingDuration:      time.Duration(maxDays) * 24 * time.Hour,
		ReputationWeightFactor: getuint("REPUTATION_WEIGHT_FACTOR", "10"),
		MaxTags:                int(getuint("MAX_MODEL_TAGS", "10")),
	}
}
