package params

import "os"

type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxConfigFromEnv returns nil unless INFLUXDB_URL is set.
func InfluxConfigFromEnv() *InfluxConfig {
	url := os.Getenv("INFLUXDB_URL")
	if url == "" {
		return nil
	}
	return &InfluxConfig{
		URL:    url,
		Token:  os.Getenv("INFLUXDB_TOKEN"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Bucket: os.Getenv("INFLUXDB_BUCKET"),
	}
}
