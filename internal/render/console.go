package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bobby-s-dev/weatherstar/internal/display"
)

const (
	DefaultWidth = 64

	// A text console cannot blend, so the previous frame stays up until the
	// fade overlay drops below this alpha.
	overlayCutoff = 128

	clearScreen = "\033[H\033[2J"
)

var ErrUnknownScreen = errors.New("no renderer for screen")

type Options struct {
	Width int
	// ANSI clears the terminal before each changed frame.
	ANSI bool
}

// Console is a text Renderer. Frames are only written when their content
// changes, so a 30 FPS loop does not flood the output.
type Console struct {
	out     io.Writer
	width   int
	ansi    bool
	clock   clockwork.Clock
	logger  *zap.Logger
	screens map[display.ScreenID]screenFunc
	title   cases.Caser
	upper   cases.Caser

	frame   string
	shown   string
	overlay string
	alpha   int
}

func NewConsole(out io.Writer, opts Options, clock clockwork.Clock, logger *zap.Logger) *Console {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Console{
		out:     out,
		width:   opts.Width,
		ansi:    opts.ANSI,
		clock:   clock,
		logger:  logger,
		screens: screenTable(),
		title:   cases.Title(language.English),
		upper:   cases.Upper(language.English),
	}
}

func (c *Console) DrawScreen(id display.ScreenID, data display.ScreenData) error {
	fn, ok := c.screens[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScreen, id)
	}

	p := &page{width: c.width, now: c.clock.Now(), title: c.title, upper: c.upper}
	fn(p, data)
	p.footer(data.Snapshot.ScrollText)
	c.frame = p.String()
	return nil
}

// Capture returns the frame currently on screen.
func (c *Console) Capture() display.Frame {
	return c.shown
}

func (c *Console) Composite(frame display.Frame, alpha int) {
	if s, ok := frame.(string); ok {
		c.overlay = s
		c.alpha = alpha
	}
}

func (c *Console) PresentFrame() error {
	out := c.frame
	if c.overlay != "" && c.alpha >= overlayCutoff {
		out = c.overlay
	}
	c.overlay = ""

	if out == c.shown {
		return nil
	}
	c.shown = out

	if c.ansi {
		out = clearScreen + out
	}
	if _, err := io.WriteString(c.out, out); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// page accumulates one frame of text.
type page struct {
	b     strings.Builder
	width int
	now   time.Time
	title cases.Caser
	upper cases.Caser
}

func (p *page) String() string {
	return p.b.String()
}

func (p *page) rule(ch string) {
	p.b.WriteString(strings.Repeat(ch, p.width))
	p.b.WriteByte('\n')
}

func (p *page) header(top, bottom string) {
	p.rule("═")
	heading := p.upper.String(top)
	if bottom != "" {
		heading += " " + p.upper.String(bottom)
	}
	clock := p.now.Format("3:04 PM Mon Jan 2")
	pad := max(p.width-len([]rune(heading))-len([]rune(clock)), 1)
	p.b.WriteString(heading + strings.Repeat(" ", pad) + clock + "\n")
	p.rule("═")
}

func (p *page) line(format string, args ...any) {
	p.b.WriteString(truncate(fmt.Sprintf(format, args...), p.width))
	p.b.WriteByte('\n')
}

func (p *page) blank() {
	p.b.WriteByte('\n')
}

func (p *page) field(label, value string) {
	p.line("  %-18s %s", label+":", value)
}

func (p *page) section(name string) {
	p.blank()
	p.line("%s", p.upper.String(name))
}

func (p *page) paragraph(text string, indent int) {
	prefix := strings.Repeat(" ", indent)
	for _, l := range wrap(text, p.width-indent) {
		p.b.WriteString(prefix + l + "\n")
	}
}

func (p *page) unavailable(what string) {
	p.blank()
	p.line("  %s not available", p.title.String(what))
}

func (p *page) footer(scroll string) {
	p.rule("─")
	if scroll != "" {
		p.line("%s", scroll)
	}
}
