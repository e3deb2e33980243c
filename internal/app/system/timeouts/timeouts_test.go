package timeouts_test

import (
	"testing"
	"time"

	"github.com/mta-community/mtahub/internal/app/system/timeouts"
)

func TestDefaults(t *testing.T) {
	timeouts.Reset()
	if got := timeouts.Ping(); got != timeouts.DefaultPing {
		t.Errorf("Ping() = %v, want %v", got, timeouts.DefaultPing)
	}
	if got := timeouts.Sweep(); got != timeouts.DefaultSweep {
		t.Errorf("Sweep() = %v, want %v", got, timeouts.DefaultSweep)
	}
}

func TestConfigure_IgnoresZero(t *testing.T) {
	timeouts.Reset()
	defer timeouts.Reset()

	timeouts.Configure(timeouts.Config{Short: 9 * time.Second})

	if got := timeouts.Short(); got != 9*time.Second {
		t.Errorf("Short() = %v, want 9s", got)
	}
	if got := timeouts.Medium(); got != timeouts.DefaultMedium {
		t.Errorf("Medium() = %v, want default %v", got, timeouts.DefaultMedium)
	}
}
