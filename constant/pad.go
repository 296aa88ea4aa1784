package constant

// Pad grid
const (
	PadCount = 24
)

// Pad parameter ranges
const (
	MinVolume       = 0.0
	MaxVolume       = 1.5
	MinPlaybackRate = 0.5
	MaxPlaybackRate = 2.0
	MinFilterVal    = -1.0
	MaxFilterVal    = 1.0
)

// Interval retrigger period bounds; a zero period means play once
const (
	MinIntervalSeconds = 0.01
	MaxIntervalSeconds = 3600.0
	MaxBeatAmount      = MaxIntervalSeconds * MinBPM / 60
)

// Tempo
const (
	MinBPM     = 60
	MaxBPM     = 200
	DefaultBPM = 120
)

// Pad defaults
const (
	DefaultVolume          = 1.0
	DefaultIntervalSeconds = 2.0
	DefaultBeatAmount      = 4.0
	DefaultPlaybackRate    = 1.0
	DefaultLoopPads        = 4 // first N pads default to LOOP
)

// MasterExportPrefix names master recording artifacts: <prefix>-<unix-ms>.wav
const MasterExportPrefix = "voiceloop-mix"
