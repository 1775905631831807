package params

// SinksConfig configures optional external fan-out of stored fixes.
// Empty values disable the sink.
type SinksConfig struct {
	// NATSURL, eg. nats://localhost:4222.
	NATSURL string
	// NATSSubjectPrefix prefixes the per-bus subject: <prefix>.<busID>.
	NATSSubjectPrefix string

	// RedisAddr, eg. localhost:6379.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// RedisKey is the hash holding last-known fixes by bus id.
	RedisKey string
}

const (
	DefaultNATSSubjectPrefix = "bustrack.fix"
	DefaultRedisKey          = "bustrack:lastknown"
)
