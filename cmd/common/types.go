package common

type RankInfo struct {
	Id   int    `yaml:"id"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Config is the cluster topology shared by every rank.
type Config struct {
	Ranks []RankInfo `yaml:"ranks"`
	// MetricsPort, when set, is where each rank serves /metrics; rank i
	// uses MetricsPort+i.
	MetricsPort int `yaml:"metrics_port"`
}
