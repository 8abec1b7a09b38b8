package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tunespot",
		Short: "Tunespot: identify the song playing around you",
		Long: `Tunespot records ten seconds from the microphone, asks the recognition service
what is playing, and opens the match in Spotify, Deezer or YouTube.

Key commands:
  listen [--open <platform>]   Record, recognize and print the match
  recognize <file>             Recognize an existing recording
  open <platform> <id>         Open a track in the app, or the website
  config [--write]             Show or write the resolved configuration

Env overrides: TUNESPOT_RECOGNIZE_BASE_URL, TUNESPOT_RECOGNIZE_TIMEOUT_MS,
               TUNESPOT_AUDIO_BACKEND, TUNESPOT_FFMPEG_COMMAND,
               TUNESPOT_AUDIO_INPUT_FORMAT/DEVICE, TUNESPOT_LOG_LEVEL/FORMAT`,
		Example: `  tunespot listen --open spotify
  tunespot recognize ~/clip.wav
  tunespot open deezer 3135556
  tunespot config --write`,
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
	}

	root.Version = version
	root.SetVersionTemplate("Tunespot v{{.Version}}\n")

	cfgPath := root.PersistentFlags().StringP("config", "c", "", "Path to config file (TOML). Defaults to ~/.config/tunespot/config.toml")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(newListenCmd(cfgPath))
	root.AddCommand(newRecognizeCmd(cfgPath))
	root.AddCommand(newOpenCmd(cfgPath))
	root.AddCommand(newConfigCmd(cfgPath))
	return root
}
