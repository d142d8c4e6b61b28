package geocode

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

type Factory func(s Settings, client *http.Client) (Provider, error)

var reg = map[string]Factory{}

const fallbackProvider = "nominatim"

func Register(name string, f Factory) {
	reg[strings.ToLower(name)] = f
}

// New builds the named provider, falling back to Nominatim for unknown names.
func New(name string, s Settings, client *http.Client, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if f, ok := reg[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f(s, client)
	}
	if f, ok := reg[fallbackProvider]; ok {
		logger.Warn("unknown geocode provider; falling back", "provider", name, "fallback", fallbackProvider)
		return f(s, client)
	}
	return nil, fmt.Errorf("no factory for provider %q and no %s registered", name, fallbackProvider)
}

func Names() []string {
	out := make([]string, 0, len(reg))
	for k := range reg {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register("nominatim", func(s Settings, c *http.Client) (Provider, error) { return NewNominatim(s, c) })
	Register("google", func(s Settings, c *http.Client) (Provider, error) { return NewGoogle(s, c) })
	Register("kakao", func(s Settings, c *http.Client) (Provider, error) { return NewKakao(s, c) })
	Register("none", func(Settings, *http.Client) (Provider, error) { return Offline{}, nil })
}
