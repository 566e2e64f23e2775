package config

// Persistent state keys (Registry)
const (
	KeyVolume         = "audio_volume"
	KeyAudioEnabled   = "audio_enabled"
	KeyRotateNextStep = "rotate_next_step"
	KeyCueInterval    = "cue_interval"
	KeyTimeScale      = "time_scale"
	KeyLastScript     = "last_script"
)

// SettingsPrefix namespaces the boolean toggles of the settings screen.
const SettingsPrefix = "settings."

// Toggle keys of the settings screen.
const (
	KeySettingOne   = SettingsPrefix + "one"
	KeySettingTwo   = SettingsPrefix + "two"
	KeySettingThree = SettingsPrefix + "three"
	KeySettingFour  = SettingsPrefix + "four"
	KeySettingFive  = SettingsPrefix + "five"
	KeySettingSix   = SettingsPrefix + "six"
)
