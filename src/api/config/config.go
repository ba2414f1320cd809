package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN            string
	RedisURL            string
	JWTSecret           string
	Port                string
	TLSCert             string
	TLSKey              string
	ClusterRadiusMeters float64
	PointsPerVerified   int64
	SubmitRatePerMin    int
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

func Load() Config {
	radius, err := strconv.ParseFloat(getenv("CLUSTER_RADIUS_M", "100"), 64)
	if err != nil || radius <= 0 {
		log.Fatalf("bad CLUSTER_RADIUS_M: %v", err)
	}
	points, err := strconv.ParseInt(getenv("VERIFIED_POINTS", "10"), 10, 64)
	if err != nil || points <= 0 {
		log.Fatalf("bad VERIFIED_POINTS: %v", err)
	}
	rate, err := strconv.Atoi(getenv("SUBMIT_RATE_PER_MIN", "10"))
	if err != nil || rate <= 0 {
		log.Fatalf("bad SUBMIT_RATE_PER_MIN: %v", err)
	}

	return Config{
		MySQLDSN:            getenv("MYSQL_DSN", "wastewatch:wastewatch@tcp(127.0.0.1:3306)/wastewatch?parseTime=true"),
		RedisURL:            getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:           getenv("JWT_SECRET", ""),
		Port:                getenv("PORT", "8080"),
		TLSCert:             os.Getenv("TLS_CERT"),
		TLSKey:              os.Getenv("TLS_KEY"),
		ClusterRadiusMeters: radius,
		PointsPerVerified:   points,
		SubmitRatePerMin:    rate,
	}
}
