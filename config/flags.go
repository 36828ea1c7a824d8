package config

import "github.com/spf13/viper"

// BindFlags mirrors the teacher's viper.BindPFlags(rootCmd.PersistentFlags())
// call in cmd/quantum-node/main.go: CLI flags override file-loaded values
// when present, read back through viper's precedence rules.
func BindFlags(v *viper.Viper, cfg *ScenarioConfig) {
	if v.IsSet("name") {
		cfg.Name = v.GetString("name")
	}
	if v.IsSet("node-count") {
		cfg.NodeCount = v.GetInt("node-count")
	}
	if v.IsSet("ticks") {
		cfg.Ticks = int64(v.GetInt64("ticks"))
	}
	if v.IsSet("gold-price") {
		cfg.BaseGoldPrice = v.GetFloat64("gold-price")
	}
	if v.IsSet("demand") {
		cfg.BaseDemand = v.GetFloat64("demand")
	}
	if v.IsSet("panic") {
		cfg.BasePanic = v.GetFloat64("panic")
	}
	if v.IsSet("seed") {
		cfg.BaseSeed = v.GetUint64("seed")
	}
	if v.IsSet("runs") {
		cfg.RunCount = v.GetInt("runs")
	}
}
