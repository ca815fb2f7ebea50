package game

const (
	// Arena
	ArenaRadius = 2600.0

	// Match timing (seconds)
	MatchDuration     = 90.0
	CountdownDuration = 3.0
	DefaultTickRate   = 20
	MaxRoomPlayers    = 4

	// Spawning
	SpawnTries          = 30
	SpawnInnerFraction  = 0.70
	SpawnFallbackRadius = 0.60
	SpawnClearance      = 260.0

	// Snake body
	BaseSnakeLength    = 18
	MaxSnakeLength     = 900
	ScorePerSegment    = 12
	BaseSnakeRadius    = 6.0
	MaxSnakeRadius     = 38.0
	RadiusScoreHalf    = 160.0
	RadiusGrowthExp    = 1.15
	BaseSegmentSpacing = 7.0
	SpacingMult        = 0.92
	SpacingMinMult     = 0.78
	SpacingMin         = 5.2
	SpacingMax         = 26.0
	GrowthSmoothRate   = 8.0
	TrailSampleMinDist = 2.0
	TurnRate           = 10.0

	// Speed and boost
	BaseSpeed              = 220.0
	SmallSnakeSpeedMult    = 0.72
	BoostSpeedMult         = 1.55
	BoostEnergyMax         = 100.0
	BoostEnergyDrainPerSec = 55.0
	BoostEnergyRegenPerSec = 32.0
	BoostMinEnergy         = 0.01

	// Tokens
	TokenTargetCount  = 12
	BuffDuration      = 10.0
	TimeAddSeconds    = 10.0
	SpeedupMult       = 1.50
	MagnetPickupBonus = 28.0
	TokenRadiusSmall  = 19.0
	TokenRadiusLarge  = 21.0

	// Magnet attraction
	MagnetAttractRadius = 260.0
	MagnetAttractSpeed  = 520.0
	MagnetAttractMax    = 260
	MagnetAttractMin    = 40

	// Pellets
	PelletTargetCount = 4000
	PelletBucketSize  = 140.0
	PelletRadius      = 4.0
	PelletEatMax      = 10

	// Corpse drop
	CorpseDropMaxPellets = 650
	CorpseDropSpread     = 10.0

	// Collisions
	HeadToHeadFactor    = 0.95
	HeadToHeadTieRatio  = 1.10
	BodyRadiusFactor    = 0.92
	BodySkipSegments    = 3
	HeavyAgentThreshold = 40
	HeavyStrideDivisor  = 110
	HeavyStrideMax      = 6
	HeavyPaddingFactor  = 0.55

	// Inputs older than this many ticks stop steering the agent.
	InputStaleTicks = 40
)
