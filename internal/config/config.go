package config

import (
	"log"
	"os"
	"strings"
)

// ResolveDatabaseURL derives the connection string from the environment.
// On the platform (VCAP_APPLICATION set) the bound DATABASE_URL is used;
// otherwise TEST_DB_URL if present. An empty result surfaces downstream
// as a connection failure, not here.
func ResolveDatabaseURL() string {
	var dbURL string
	switch {
	case os.Getenv("VCAP_APPLICATION") != "":
		dbURL = os.Getenv("DATABASE_URL")
	case os.Getenv("TEST_DB_URL") != "":
		dbURL = os.Getenv("TEST_DB_URL")
	default:
		log.Println("No support for local db testing")
	}

	// Platform-provided URLs use the short scheme token; normalize to the
	// variant the driver expects.
	if strings.HasPrefix(dbURL, "postgres://") {
		dbURL = "postgresql://" + strings.TrimPrefix(dbURL, "postgres://")
	}

	return dbURL
}
