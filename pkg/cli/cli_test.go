package cli

import (
	"testing"
)

func TestParseArgs_ValidArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name: "defaults",
			args: []string{},
			expected: Config{
				LogLevel: "info",
			},
		},
		{
			name: "positional MIDI path",
			args: []string{"song.mid"},
			expected: Config{
				MIDIPath: "song.mid",
				LogLevel: "info",
			},
		},
		{
			name: "audio directory",
			args: []string{"--audio", "./stems", "song.mid"},
			expected: Config{
				MIDIPath: "song.mid",
				AudioDir: "./stems",
				LogLevel: "info",
			},
		},
		{
			name: "audio directory shorthand",
			args: []string{"-a", "./stems", "song.mid"},
			expected: Config{
				MIDIPath: "song.mid",
				AudioDir: "./stems",
				LogLevel: "info",
			},
		},
		{
			name: "flags after positional",
			args: []string{"song.mid", "--log-level", "debug"},
			expected: Config{
				MIDIPath: "song.mid",
				LogLevel: "debug",
			},
		},
		{
			name: "log level shorthand",
			args: []string{"-l", "error"},
			expected: Config{
				LogLevel: "error",
			},
		},
		{
			name: "headless",
			args: []string{"--headless", "song.mid"},
			expected: Config{
				MIDIPath: "song.mid",
				LogLevel: "info",
				Headless: true,
			},
		},
		{
			name: "audio start offset",
			args: []string{"--audio-start", "0.25", "song.mid"},
			expected: Config{
				MIDIPath:   "song.mid",
				AudioStart: 0.25,
				LogLevel:   "info",
			},
		},
		{
			name: "soundfont",
			args: []string{"--soundfont", "gs.sf2"},
			expected: Config{
				SoundFont: "gs.sf2",
				LogLevel:  "info",
			},
		},
		{
			name: "help",
			args: []string{"-h"},
			expected: Config{
				LogLevel: "info",
				ShowHelp: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *config != tt.expected {
				t.Errorf("got %+v, want %+v", *config, tt.expected)
			}
		})
	}
}

func TestParseArgs_InvalidLogLevel(t *testing.T) {
	_, err := ParseArgs([]string{"--log-level", "verbose"})
	if err == nil {
		t.Error("expected error for invalid log level, got nil")
	}
}

func TestParseArgs_HeadlessEnv(t *testing.T) {
	t.Setenv("HEADLESS", "1")
	config, err := ParseArgs([]string{"song.mid"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.Headless {
		t.Error("HEADLESS=1 should enable headless mode")
	}
}

func TestParseArgs_LogLevelEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	config, err := ParseArgs([]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LOG_LEVEL=debug should apply, got %s", config.LogLevel)
	}
}

func TestParseArgs_FlagBeatsEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	config, err := ParseArgs([]string{"--log-level", "warn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.LogLevel != "warn" {
		t.Errorf("explicit flag should beat environment, got %s", config.LogLevel)
	}
}
