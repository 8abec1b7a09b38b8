package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"tunespot/internal/bootstrap"
	"tunespot/internal/config"
	"tunespot/internal/deeplink"
	"tunespot/internal/domain"
	"tunespot/internal/logging"
	"tunespot/internal/recognition"
	"tunespot/internal/usecase"
)

var errNotMatched = errors.New("no match")

// newListenCmd runs one capture session through the same controller the
// desktop shell uses.
func newListenCmd(cfgPath *string) *cobra.Command {
	var (
		denyMic bool
		openOn  string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Record ten seconds and recognize the song",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var platform domain.Platform
			if openOn != "" {
				p, ok := domain.ParsePlatform(openOn)
				if !ok {
					return fmt.Errorf("unknown platform %q", openOn)
				}
				platform = p
			}

			sink := newCLISink(cmd.OutOrStdout())
			permission := usecase.PermissionFunc(func(context.Context) (bool, error) {
				return !denyMic, nil
			})
			services, err := bootstrap.Build(sink, permission, nil, *cfgPath)
			if err != nil {
				return err
			}
			defer services.Controller.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := services.Controller.Start(context.Background()); err != nil {
				return err
			}

			var reason domain.SessionStateReason
			select {
			case reason = <-sink.done:
			case <-ctx.Done():
				if err := services.Controller.Cancel(); err != nil {
					services.Controller.Close()
				}
				return errors.New("interrupted")
			}

			if reason != domain.SessionReasonMatchFound {
				if reason == domain.SessionReasonNoMatch {
					return errNotMatched
				}
				return fmt.Errorf("listen failed: %s", reason)
			}

			state := services.Presentation.State()
			if err := printRecord(cmd.OutOrStdout(), state.Current, jsonOut); err != nil {
				return err
			}
			if platform == "" {
				return nil
			}
			id, ok := services.Presentation.ExternalID(platform)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "not available on %s\n", platform)
				return nil
			}
			services.Resolver.Open(ctx, platform, id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&denyMic, "deny-mic", false, "answer the microphone prompt with a denial")
	cmd.Flags().StringVar(&openOn, "open", "", "open the match on a platform (spotify, deezer, youtube)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}

// newRecognizeCmd submits an existing recording, which is left in place.
func newRecognizeCmd(cfgPath *string) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "recognize <file>",
		Short: "Recognize an existing recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger, err := logging.Configure(cfg)
			if err != nil {
				return err
			}
			client := recognition.NewClient(recognition.Config{
				BaseURL: cfg.Recognition.BaseURL,
				Timeout: cfg.Recognition.Timeout(),
			}, logger.WithField("component", "recognition"))

			outcome := client.Recognize(cmd.Context(), domain.AudioAsset{
				Location: args[0],
				MimeType: "audio/wav",
			})
			switch outcome.Kind {
			case domain.OutcomeMatched:
				return printRecord(cmd.OutOrStdout(), outcome.Match, jsonOut)
			case domain.OutcomeTransportError:
				return fmt.Errorf("recognition failed: %w", outcome.Err)
			default:
				return errNotMatched
			}
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}

func newOpenCmd(cfgPath *string) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "open <platform> <id>",
		Short: "Open a track in the platform app, falling back to the website",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, ok := domain.ParsePlatform(args[0])
			if !ok {
				return fmt.Errorf("unknown platform %q", args[0])
			}
			native, web, err := deeplink.Links(platform, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "native: %s\nweb:    %s\n", native, web)
			if printOnly {
				return nil
			}

			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger, err := logging.Configure(cfg)
			if err != nil {
				return err
			}
			deeplink.NewResolver(deeplink.NewSystemOpener(), nil, logger.WithField("component", "deeplink")).
				Open(cmd.Context(), platform, args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the links without opening them")
	return cmd
}

func newConfigCmd(cfgPath *string) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if write {
				if err := config.Save(cfg, cfg.Paths.ConfigPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfg.Paths.ConfigPath)
				return nil
			}
			out, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", cfg.Paths.ConfigPath, out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write the resolved configuration to the config file")
	return cmd
}

func printRecord(out io.Writer, record *domain.MatchRecord, jsonOut bool) error {
	if record == nil {
		return errNotMatched
	}
	if jsonOut {
		return json.NewEncoder(out).Encode(record)
	}
	fmt.Fprintf(out, "title:   %s\nartist:  %s\n", orUnknown(record.Title), orUnknown(record.Artist))
	for _, platform := range domain.Platforms {
		id, ok := record.ExternalID(platform)
		if !ok {
			continue
		}
		_, web, err := deeplink.Links(platform, id)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "%-8s %s\n", string(platform)+":", web)
	}
	return nil
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Unknown"
	}
	return value
}
