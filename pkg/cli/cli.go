// Package cli parses the command line and environment into a Config.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Config holds the settings parsed from command-line arguments.
type Config struct {
	MIDIPath   string  // path to the MIDI chart file (positional)
	AudioDir   string  // directory holding the audio stems
	SoundFont  string  // explicit SoundFont path for the metronome click
	AudioStart float64 // offset in seconds between audio zero and chart zero
	LogLevel   string  // debug, info, warn, error
	Headless   bool    // run without the editor window
	ShowHelp   bool    // help flag
}

// ParseArgs parses args into a Config. Flags may appear before or after the
// positional MIDI path; environment variables fill in flags that were not
// given (LOG_LEVEL, HEADLESS).
func ParseArgs(args []string) (*Config, error) {
	// Reorder so flags come first and positionals last, which stdlib flag
	// requires.
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("drumchart", flag.ContinueOnError)

	config := &Config{}

	fs.StringVar(&config.AudioDir, "audio", "", "directory holding the audio stems")
	fs.StringVar(&config.AudioDir, "a", "", "directory holding the audio stems (shorthand)")
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFont file for the metronome click")
	fs.Float64Var(&config.AudioStart, "audio-start", 0, "offset in seconds between audio zero and chart zero")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&config.LogLevel, "l", "info", "log level (shorthand)")
	fs.BoolVar(&config.Headless, "headless", false, "run without the editor window")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (shorthand)")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// Environment fallbacks; explicit flags win.
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if fs.NArg() > 0 {
		config.MIDIPath = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs moves flags (and their values) in front of positional
// arguments.
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	boolFlags := map[string]bool{
		"-h": true, "--help": true, "-help": true,
		"--headless": true, "-headless": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// Pull the value of a non-boolean "-flag value" pair along.
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				if !boolFlags[arg] && !strings.Contains(arg, "=") {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp writes the usage message to stdout.
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `drumchart - interactive drum chart editor/viewer

Usage:
  drumchart [options] <chart.mid>

Arguments:
  chart.mid    MIDI file holding tempo, meter, and drum-note data

Options:
  -a, --audio <dir>           directory with audio stems (drums_l, drums_r,
                              song_l, song_r as .ogg or .wav)
  --soundfont <file>          SoundFont for the metronome click
  --audio-start <seconds>     offset between audio zero and chart zero
  -l, --log-level <level>     log level: debug, info, warn, error (default: info)
  --headless                  load and validate without opening the window
  -h, --help                  show this help

Environment Variables:
  HEADLESS=1                  enable headless mode
  LOG_LEVEL=<level>           log level

Examples:
  drumchart song.mid                    open a chart
  drumchart -a ./stems song.mid         open a chart with audio stems
  drumchart --log-level debug song.mid  verbose logging
`)
}
