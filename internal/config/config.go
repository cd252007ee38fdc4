package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mind-engage/gradecalc/internal/catalog"
	"github.com/mind-engage/gradecalc/internal/engine"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret string

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// Session-wide calculation options, read once and passed into every
	// engine; the engine itself never touches the environment.
	Calc engine.Options
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           addr,
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		AuthSecret:         envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://grades.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010"),
		Calc:               calcFromEnv(),
	}
}

func calcFromEnv() engine.Options {
	pref := engine.PreferAssignmentValue
	if strings.EqualFold(os.Getenv("STANDARDS_SCORE_PREFERENCE"), "standards") {
		pref = engine.PreferStandardsValue
	}
	return engine.Options{
		AssignmentWeightingOn:             envBool("ASSIGNMENT_WEIGHTING_ON", false),
		ApplyRigorPoints:                  envBool("APPLY_RIGOR_POINTS", false),
		RigorPoints:                       envFloat("RIGOR_POINTS", 0),
		UseTeacherOverrideInTermWeighting: envBool("USE_TEACHER_OVERRIDE_IN_TERM_WEIGHTING", false),
		PercentageRounding: catalog.RoundPolicy{
			Enabled: envBool("PERCENTAGE_ROUNDING_ON", true),
			Places:  envInt("PERCENTAGE_ROUNDING_PLACES", 2),
		},
		MarkRounding: catalog.RoundPolicy{
			Enabled: envBool("MARK_ROUNDING_ON", true),
			Places:  envInt("MARK_ROUNDING_PLACES", 2),
		},
		StandardsScorePreference: pref,
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
