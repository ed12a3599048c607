package ringcache

// Hardcoded implementation limits.
//
// These are part of the interface contract, not tuning knobs. They keep
// offset arithmetic inside uint32 range and bound the worst-case cost of a
// lookup against hash-flooding.
const (
	// MaxKeyLen is the largest key ringcache will store, in bytes.
	MaxKeyLen = 1000

	// MaxDataLen is the largest value ringcache will store, in bytes.
	MaxDataLen = 1_000_000

	// MinCacheSize is the smallest arena size Init will honor.
	MinCacheSize = 100

	// MaxCacheSize is the largest arena size Init will honor.
	MaxCacheSize = 1_000_000_000

	// MaxTTL is the largest time-to-live, in seconds, an entry can carry.
	// Longer TTLs are silently clamped on insertion.
	MaxTTL = 604_800

	// MaxChainSteps bounds the number of hash-bucket collision-chain hops a
	// lookup will follow before reporting a miss. This is a defense against
	// hash-flooding, not a correctness guarantee: chains must terminate on
	// their own within this many entries for any state the engine produces.
	MaxChainSteps = 100

	// entryHeaderSize is the fixed portion of an on-arena entry: 4-byte XOR
	// link, 4-byte keylen, 4-byte datalen, 8-byte absolute expiry.
	entryHeaderSize = 20

	// defaultTargetCycleTime is the default wall-clock duration the cycle
	// controller aims for between rotations.
	defaultTargetCycleTime = 86_400 // 24 hours, in seconds

	// resizeHeadroom biases a proposed resize toward comfortably completing
	// the next cycle within the target instead of landing right on it.
	resizeHeadroom = 1.10

	// minHashIndexSize is the smallest hash-index region size, in bytes.
	minHashIndexSize = 4
)
