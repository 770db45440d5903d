// Package app ties the pieces together: configuration, logging, the audio
// backend, the session, and the editor window.
package app

import (
	"fmt"
	"log/slog"

	"github.com/yonetani/drumchart/pkg/audio"
	"github.com/yonetani/drumchart/pkg/cli"
	"github.com/yonetani/drumchart/pkg/logger"
	"github.com/yonetani/drumchart/pkg/session"
	"github.com/yonetani/drumchart/pkg/ui"
)

// Application manages the main program flow.
type Application struct {
	config *cli.Config
	log    *slog.Logger
}

// New creates an Application.
func New() *Application {
	return &Application{}
}

// Run executes the application: parse arguments, initialize logging, bring
// up the audio backend, load the chart, and enter the editor loop.
func (app *Application) Run(args []string) error {
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "midi", app.config.MIDIPath, "audio_dir", app.config.AudioDir)

	sess, err := app.buildSession()
	if err != nil {
		return err
	}

	if app.config.Headless {
		// Headless mode loads and validates the chart, then exits. Useful
		// for checking charts from scripts without a display.
		app.log.Info("Headless mode: chart loaded, skipping editor window")
		return nil
	}

	if err := ui.Run(sess); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs parses the command-line arguments.
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger initializes the logger.
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// buildSession brings up the transport and loads the chart into a fresh
// session.
func (app *Application) buildSession() (*session.Session, error) {
	var transport session.Transport
	if !app.config.Headless {
		mixer, err := app.buildMixer()
		if err != nil {
			return nil, err
		}
		transport = mixer
	}

	sess := session.NewSession(transport)
	sess.SetAudioStart(app.config.AudioStart)

	if app.config.MIDIPath != "" {
		if err := sess.LoadMIDI(app.config.MIDIPath); err != nil {
			return nil, fmt.Errorf("failed to load chart: %w", err)
		}
	} else {
		app.log.Info("No MIDI file given, starting with an empty chart")
	}

	return sess, nil
}

// buildMixer creates the mixer, loads audio stems if a directory was given,
// and sets up the metronome click.
func (app *Application) buildMixer() (*audio.Mixer, error) {
	mixer := audio.NewMixer(nil)

	if app.config.AudioDir != "" {
		if err := mixer.LoadStems(app.config.AudioDir); err != nil {
			return nil, fmt.Errorf("failed to load audio stems: %w", err)
		}
		app.log.Info("Audio stems loaded", "dir", app.config.AudioDir)
	}

	soundFont := app.config.SoundFont
	if soundFont == "" {
		soundFont = audio.FindSoundFont(app.config.AudioDir)
	}
	if err := mixer.SetClickPCM(audio.LoadClick(soundFont)); err != nil {
		return nil, fmt.Errorf("failed to set up metronome click: %w", err)
	}

	return mixer, nil
}
