package config

import (
	"testing"

	"github.com/mind-engage/gradecalc/internal/engine"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("MODE", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ASSIGNMENT_WEIGHTING_ON", "")
	t.Setenv("PERCENTAGE_ROUNDING_ON", "")

	cfg := FromEnv()

	if cfg.Mode != ModeOffline {
		t.Fatalf("Mode = %q; want offline", cfg.Mode)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DBDriver != "sqlite" {
		t.Fatalf("addr %q driver %q", cfg.HTTPAddr, cfg.DBDriver)
	}
	if cfg.Calc.AssignmentWeightingOn {
		t.Fatalf("assignment weighting should default off")
	}
	if !cfg.Calc.PercentageRounding.Enabled || cfg.Calc.PercentageRounding.Places != 2 {
		t.Fatalf("percentage rounding default: %+v", cfg.Calc.PercentageRounding)
	}
}

func TestCalcFromEnv(t *testing.T) {
	t.Setenv("ASSIGNMENT_WEIGHTING_ON", "true")
	t.Setenv("APPLY_RIGOR_POINTS", "1")
	t.Setenv("RIGOR_POINTS", "2.5")
	t.Setenv("USE_TEACHER_OVERRIDE_IN_TERM_WEIGHTING", "yes")
	t.Setenv("PERCENTAGE_ROUNDING_ON", "false")
	t.Setenv("MARK_ROUNDING_PLACES", "3")
	t.Setenv("STANDARDS_SCORE_PREFERENCE", "standards")

	opts := calcFromEnv()
	if !opts.AssignmentWeightingOn || !opts.ApplyRigorPoints || !opts.UseTeacherOverrideInTermWeighting {
		t.Fatalf("bool options: %+v", opts)
	}
	if opts.RigorPoints != 2.5 {
		t.Fatalf("RigorPoints = %v", opts.RigorPoints)
	}
	if opts.PercentageRounding.Enabled {
		t.Fatalf("percentage rounding should truncate")
	}
	if opts.MarkRounding.Places != 3 {
		t.Fatalf("MarkRounding.Places = %d", opts.MarkRounding.Places)
	}
	if opts.StandardsScorePreference != engine.PreferStandardsValue {
		t.Fatalf("standards preference not picked up")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_CSV", "a, b ,,c")
	got := csvOr("X_CSV", "")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("csvOr = %v", got)
	}
	if envBool("X_MISSING", true) != true {
		t.Fatalf("envBool default")
	}
	if envInt("X_MISSING", 7) != 7 {
		t.Fatalf("envInt default")
	}
}
