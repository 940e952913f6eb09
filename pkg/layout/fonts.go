package layout

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// tabWidth is the number of spaces a tab advances in preformatted text.
const tabWidth = 4

type fontSet struct {
	regular, bold, italic, boldItalic, mono *truetype.Font
}

var (
	fontsOnce sync.Once
	fonts     fontSet
	errFonts  error
)

func loadFonts() (*fontSet, error) {
	fontsOnce.Do(func() {
		parse := func(name string, ttf []byte) *truetype.Font {
			if errFonts != nil {
				return nil
			}
			f, err := truetype.Parse(ttf)
			if err != nil {
				errFonts = fmt.Errorf("parse %s font: %w", name, err)
			}
			return f
		}
		fonts = fontSet{
			regular:    parse("regular", goregular.TTF),
			bold:       parse("bold", gobold.TTF),
			italic:     parse("italic", goitalic.TTF),
			boldItalic: parse("bold italic", gobolditalic.TTF),
			mono:       parse("mono", gomono.TTF),
		}
	})
	if errFonts != nil {
		return nil, errFonts
	}
	return &fonts, nil
}

// style is the text style in effect while flowing inline content.
type style struct {
	size   float64
	bold   bool
	italic bool
	mono   bool
	pre    bool
}

type faceKey struct {
	size   float64
	bold   bool
	italic bool
	mono   bool
}

// faces caches one font.Face per style. truetype faces are not safe for
// concurrent use, so each layout owns its cache.
type faces struct {
	set   *fontSet
	cache map[faceKey]font.Face
}

func newFaces(set *fontSet) *faces {
	return &faces{set: set, cache: make(map[faceKey]font.Face)}
}

func (f *faces) face(st style) font.Face {
	key := faceKey{size: st.size, bold: st.bold, italic: st.italic, mono: st.mono}
	if face, ok := f.cache[key]; ok {
		return face
	}

	ttf := f.set.regular
	switch {
	case st.mono:
		ttf = f.set.mono
	case st.bold && st.italic:
		ttf = f.set.boldItalic
	case st.bold:
		ttf = f.set.bold
	case st.italic:
		ttf = f.set.italic
	}

	face := truetype.NewFace(ttf, &truetype.Options{Size: st.size, DPI: 72, Hinting: font.HintingNone})
	f.cache[key] = face
	return face
}

// advances returns the cumulative advance before each rune of s and after
// the last one, so len(result) is the rune count plus one.
func advances(face font.Face, s string, pre bool) []fixed.Int26_6 {
	out := make([]fixed.Int26_6, 1, len(s)+1)
	var x fixed.Int26_6
	prev := rune(-1)

	for _, r := range s {
		var adv fixed.Int26_6
		switch {
		case r == '\t' && pre:
			space, _ := face.GlyphAdvance(' ')
			adv = space * tabWidth
			prev = -1
		case r == '\n' || r == '\r' || r == '\t':
			adv, _ = face.GlyphAdvance(' ')
			prev = -1
		default:
			if prev >= 0 {
				x += face.Kern(prev, r)
			}
			var ok bool
			adv, ok = face.GlyphAdvance(r)
			if !ok {
				adv, _ = face.GlyphAdvance('?')
			}
			prev = r
		}
		x += adv
		out = append(out, x)
	}

	return out
}
