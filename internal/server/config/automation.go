package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// LoadAutomation reads the automation settings. Keys missing from the file
// (or the whole file when path is empty) keep the values in defaults;
// CREDSTACK_AUTOMATION_<KEY> environment variables override both.
//
// Recognised keys: lead_time_days, target_max_percent, warning_threshold_percent.
func LoadAutomation(path string, defaults AutomationConfig) (AutomationConfig, error) {
	v := viper.New()
	v.SetDefault("lead_time_days", defaults.LeadTimeDays)
	v.SetDefault("target_max_percent", defaults.TargetMaxPercent.String())
	v.SetDefault("warning_threshold_percent", defaults.WarningThresholdPercent.String())
	v.SetEnvPrefix("CREDSTACK_AUTOMATION")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return AutomationConfig{}, fmt.Errorf("read automation config %s: %w", path, err)
		}
	}

	target, err := decimal.NewFromString(v.GetString("target_max_percent"))
	if err != nil {
		return AutomationConfig{}, fmt.Errorf("invalid target_max_percent: %w", err)
	}
	warning, err := decimal.NewFromString(v.GetString("warning_threshold_percent"))
	if err != nil {
		return AutomationConfig{}, fmt.Errorf("invalid warning_threshold_percent: %w", err)
	}

	a := AutomationConfig{
		LeadTimeDays:            v.GetInt("lead_time_days"),
		TargetMaxPercent:        target,
		WarningThresholdPercent: warning,
	}
	if err := a.Validate(); err != nil {
		return AutomationConfig{}, err
	}
	return a, nil
}

// Validate rejects settings the reminder engine cannot use.
func (a AutomationConfig) Validate() error {
	if a.LeadTimeDays < 0 {
		return errors.New("lead_time_days must be >= 0")
	}
	if a.TargetMaxPercent.IsNegative() || a.WarningThresholdPercent.IsNegative() {
		return errors.New("utilization percentages must be >= 0")
	}
	return nil
}
