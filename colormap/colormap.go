/*
NAME
  colormap.go

DESCRIPTION
  colormap implements the Encoding Map (EM): the bijection between baseN
  symbols and RGB colors, the per-channel tolerance bands derived from a
  configured threshold, and the two-tier pixel classifier (banded match,
  then nearest-color fallback) that tolerates lossy re-encoding.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package colormap implements the encoding map between baseN symbols and
// RGB colors, and the classifier used to read them back off video frames.
package colormap

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"

	"github.com/pkg/errors"

	"github.com/coldvault/boxvid/boxerr"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

func (c Color) dist2(r, g, b uint8) int {
	dr := int(c.R) - int(r)
	dg := int(c.G) - int(g)
	db := int(c.B) - int(b)
	return dr*dr + dg*dg + db*db
}

// band is the inclusive per-channel tolerance range [c-T, c+T] clamped to
// [0, 255] for one symbol's color.
type band struct {
	rLo, rHi uint8
	gLo, gHi uint8
	bLo, bHi uint8
}

func (b band) contains(r, g, bl uint8) bool {
	return r >= b.rLo && r <= b.rHi && g >= b.gLo && g <= b.gHi && bl >= b.bLo && bl <= b.bHi
}

// Map is an Encoding Map: a bijection between baseN symbols (single ASCII
// bytes) and colors, with a tolerance band per symbol.
type Map struct {
	base      int
	symbols   []byte
	colors    map[byte]Color
	bands     map[byte]band
	threshold uint8
}

var hexColorRE = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Load reads an encoding map JSON file of the form {"<symbol>":"#RRGGBB",...},
// derives the per-channel tolerance band from thresholdPercent (0..100),
// and validates that no two symbols' bands overlap on all three channels
// simultaneously. Base is inferred from the number of entries and must be
// one of {2,4,8,10,16,64}.
func Load(path string, thresholdPercent float64) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, boxerr.New(boxerr.Config, "colormap.Load", err)
	}
	defer f.Close()

	var raw map[string]string
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, boxerr.New(boxerr.Config, "colormap.Load", errors.Wrap(err, "decoding encoding map JSON"))
	}
	return FromRaw(raw, thresholdPercent)
}

// FromRaw builds and validates a Map from an already-decoded symbol->hex
// color mapping, as Load does after reading the JSON file.
func FromRaw(raw map[string]string, thresholdPercent float64) (*Map, error) {
	base := len(raw)
	switch base {
	case 2, 4, 8, 10, 16, 64:
	default:
		return nil, boxerr.New(boxerr.Config, "colormap.FromRaw", fmt.Errorf("unsupported base %d: must be one of 2,4,8,10,16,64", base))
	}
	if thresholdPercent < 0 || thresholdPercent > 100 {
		return nil, boxerr.New(boxerr.Config, "colormap.FromRaw", fmt.Errorf("color_threshold_percent %v out of range [0,100]", thresholdPercent))
	}
	threshold := uint8(math.Ceil(thresholdPercent / 100.0 * 255.0))

	m := &Map{
		base:      base,
		colors:    make(map[byte]Color, base),
		bands:     make(map[byte]band, base),
		threshold: threshold,
	}
	for k, hex := range raw {
		if len(k) != 1 {
			return nil, boxerr.New(boxerr.Config, "colormap.FromRaw", fmt.Errorf("invalid symbol %q: must be a single character", k))
		}
		if !hexColorRE.MatchString(hex) {
			return nil, boxerr.New(boxerr.Config, "colormap.FromRaw", fmt.Errorf("invalid color %q for symbol %q", hex, k))
		}
		sym := k[0]
		var r, g, b uint8
		fmt.Sscanf(hex[1:3], "%02x", &r)
		fmt.Sscanf(hex[3:5], "%02x", &g)
		fmt.Sscanf(hex[5:7], "%02x", &b)

		m.symbols = append(m.symbols, sym)
		m.colors[sym] = Color{R: r, G: g, B: b}
		m.bands[sym] = band{
			rLo: clampSub(r, threshold), rHi: clampAdd(r, threshold),
			gLo: clampSub(g, threshold), gHi: clampAdd(g, threshold),
			bLo: clampSub(b, threshold), bHi: clampAdd(b, threshold),
		}
	}
	sort.Slice(m.symbols, func(i, j int) bool { return m.symbols[i] < m.symbols[j] })

	if err := m.checkOverlap(); err != nil {
		return nil, boxerr.New(boxerr.Config, "colormap.FromRaw", err)
	}
	return m, nil
}

func clampSub(c, t uint8) uint8 {
	if int(c)-int(t) < 0 {
		return 0
	}
	return c - t
}

func clampAdd(c, t uint8) uint8 {
	if int(c)+int(t) > 255 {
		return 255
	}
	return c + t
}

// checkOverlap enumerates all ordered pairs of symbols and rejects the map
// if their bands intersect on all three channels simultaneously.
func (m *Map) checkOverlap() error {
	for i := 0; i < len(m.symbols); i++ {
		for j := i + 1; j < len(m.symbols); j++ {
			a, b := m.bands[m.symbols[i]], m.bands[m.symbols[j]]
			rOverlap := a.rLo <= b.rHi && b.rLo <= a.rHi
			gOverlap := a.gLo <= b.gHi && b.gLo <= a.gHi
			bOverlap := a.bLo <= b.bHi && b.bLo <= a.bHi
			if rOverlap && gOverlap && bOverlap {
				return fmt.Errorf("overlapping color bands between symbols %q and %q", m.symbols[i], m.symbols[j])
			}
		}
	}
	return nil
}

// Base returns the number of symbols in the map (B).
func (m *Map) Base() int { return m.base }

// BitsPerSymbol returns log2(B); non-integer for B=10.
func (m *Map) BitsPerSymbol() float64 { return math.Log2(float64(m.base)) }

// Color returns the color assigned to a symbol.
func (m *Map) Color(sym byte) (Color, bool) {
	c, ok := m.colors[sym]
	return c, ok
}

// Symbols returns the sorted list of valid symbols.
func (m *Map) Symbols() []byte { return m.symbols }

// Classify maps an observed (R,G,B) pixel value back to a symbol. It first
// tries a banded match, returning the symbol whose band contains the pixel
// on all three channels; FromRaw rejects maps with overlapping bands, so at
// most one band can match. If none does, it falls back to nearest-color by
// squared Euclidean distance.
func (m *Map) Classify(r, g, b uint8) byte {
	for _, sym := range m.symbols {
		if m.bands[sym].contains(r, g, b) {
			return sym
		}
	}
	best := m.symbols[0]
	bestDist := m.colors[best].dist2(r, g, b)
	for _, sym := range m.symbols[1:] {
		if d := m.colors[sym].dist2(r, g, b); d < bestDist {
			bestDist = d
			best = sym
		}
	}
	return best
}
