package deeplink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"tunespot/internal/domain"
	"tunespot/internal/logging"
	"tunespot/internal/ports"
)

var (
	errUnknownPlatform = errors.New("unknown platform")
	errMissingID       = errors.New("missing platform identifier")
)

// Tier reports which link of a platform was opened.
type Tier string

const (
	TierNone   Tier = "none"
	TierNative Tier = "native"
	TierWeb    Tier = "web"
)

type linkTemplate struct {
	native string
	web    string
}

var templates = map[domain.Platform]linkTemplate{
	domain.PlatformSpotify: {native: "spotify://track/%s", web: "https://open.spotify.com/track/%s"},
	domain.PlatformYouTube: {native: "vnd.youtube:%s", web: "https://youtu.be/%s"},
	domain.PlatformDeezer:  {native: "deezer://track/%s", web: "https://www.deezer.com/track/%s"},
}

// Links returns the native URI and web URL for an entity on a platform.
func Links(platform domain.Platform, id string) (native string, web string, err error) {
	tmpl, ok := templates[platform]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", errUnknownPlatform, platform)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", errMissingID
	}
	escaped := url.PathEscape(id)
	return fmt.Sprintf(tmpl.native, escaped), fmt.Sprintf(tmpl.web, escaped), nil
}

// Resolver opens a platform's native app and falls back to its website.
type Resolver struct {
	native ports.URLOpener
	web    ports.URLOpener
	logger logrus.FieldLogger
}

func NewResolver(native ports.URLOpener, web ports.URLOpener, logger logrus.FieldLogger) *Resolver {
	if web == nil {
		web = native
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{native: native, web: web, logger: logger}
}

// Open is fire-and-forget: failures of both tiers are absorbed.
func (r *Resolver) Open(ctx context.Context, platform domain.Platform, id string) {
	tier, err := r.resolve(ctx, platform, id)
	entry := r.logger.WithFields(logrus.Fields{"platform": platform, "tier": tier})
	if err != nil {
		entry.WithError(err).Debug("deep link not opened")
		return
	}
	entry.Debug("deep link opened")
}

func (r *Resolver) resolve(ctx context.Context, platform domain.Platform, id string) (Tier, error) {
	nativeURI, webURL, err := Links(platform, id)
	if err != nil {
		return TierNone, err
	}

	nativeErr := r.native.Open(ctx, nativeURI)
	if nativeErr == nil {
		return TierNative, nil
	}

	if err := r.web.Open(ctx, webURL); err != nil {
		return TierNone, fmt.Errorf("native: %v; web: %w", nativeErr, err)
	}
	return TierWeb, nil
}
