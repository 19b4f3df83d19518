// Package samples generates fake identities with rendered ID card images
// for exercising the verification pipeline.
package samples

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/reactit/kycdesk/internal/kyc"
)

const (
	DefaultCount = 10
	MaxCount     = 100

	cardWidth  = 400
	cardHeight = 250

	// DateLayout is the date of birth format printed on generated cards.
	DateLayout = "2006/01/02"
)

var (
	darkGray  = color.RGBA{R: 64, G: 64, B: 64, A: 255}
	lightGray = color.RGBA{R: 192, G: 192, B: 192, A: 255}

	photoRect = image.Rect(300, 60, 380, 180)
)

type System interface {
	Handler() *Handler
	// Generate returns count pending test users, each carrying a PNG ID
	// card as base64.
	Generate(count int) ([]kyc.TestUser, error)
}

type generator struct {
	mu     sync.Mutex
	faker  *gofakeit.Faker
	now    func() time.Time
	logger *slog.Logger
}

// New creates a sample generator. A zero seed draws a random one.
func New(seed uint64, logger *slog.Logger) System {
	return &generator{
		faker:  gofakeit.New(seed),
		now:    time.Now,
		logger: logger.With("system", "samples"),
	}
}

func (g *generator) Handler() *Handler {
	return NewHandler(g, g.logger)
}

func (g *generator) Generate(count int) ([]kyc.TestUser, error) {
	users := make([]kyc.TestUser, 0, count)
	for range count {
		u := g.identity()

		card, err := RenderCard(u)
		if err != nil {
			return nil, fmt.Errorf("render card %s: %w", u.ID, err)
		}
		u.DocumentImageBase64 = base64.StdEncoding.EncodeToString(card)

		users = append(users, u)
	}
	return users, nil
}

func (g *generator) identity() kyc.TestUser {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	dob := g.faker.DateRange(now.AddDate(-80, 0, 0), now.AddDate(-18, 0, 0))
	addr := g.faker.Address()

	return kyc.TestUser{
		ID:          g.faker.UUID(),
		FullName:    g.faker.FirstName() + " " + g.faker.LastName(),
		DateOfBirth: dob.Format(DateLayout),
		Address:     addr.Address,
		PhoneNumber: g.faker.Phone(),
		IDNumber:    g.faker.DigitN(8),
		KYCStatus:   kyc.StatusPending,
	}
}

// RenderCard draws a 400x250 fake ID card for u and encodes it as PNG.
func RenderCard(u kyc.TestUser) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	drawText(img, "FAKE ID CARD", 50, 40, 2, darkGray)

	textLimit := fixed.I(photoRect.Min.X - 30)
	y := 100
	for _, line := range [][2]string{
		{"Full Name: ", u.FullName},
		{"Date of Birth: ", u.DateOfBirth},
		{"ID Number: ", u.IDNumber},
	} {
		text := line[0] + line[1]
		if font.MeasureString(basicfont.Face7x13, text) > textLimit {
			drawText(img, line[0], 20, y, 1, color.Black)
			y += 18
			text = line[1]
		}
		drawText(img, text, 20, y, 1, color.Black)
		y += 30
	}

	draw.Draw(img, photoRect, image.NewUniform(lightGray), image.Point{}, draw.Src)
	outline(img, photoRect, color.Black)
	drawText(img, "PHOTO", photoRect.Min.X+22, photoRect.Min.Y+65, 1, color.Black)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawText writes s with its baseline at (x, y). Scales above 1 render the
// bitmap face into a scratch image and enlarge it.
func drawText(dst draw.Image, s string, x, y, scale int, c color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Src: image.NewUniform(c), Face: face}

	if scale <= 1 {
		d.Dst = dst
		d.Dot = fixed.P(x, y)
		d.DrawString(s)
		return
	}

	w := d.MeasureString(s).Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	h := face.Metrics().Height.Ceil()

	scratch := image.NewRGBA(image.Rect(0, 0, w, h))
	d.Dst = scratch
	d.Dot = fixed.P(0, ascent)
	d.DrawString(s)

	top := y - ascent*scale
	target := image.Rect(x, top, x+w*scale, top+h*scale)
	xdraw.NearestNeighbor.Scale(dst, target, scratch, scratch.Bounds(), xdraw.Over, nil)
}

func outline(dst draw.Image, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}
